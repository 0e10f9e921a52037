package hub

import (
	"strconv"
	"time"

	"markethub-integration-layer/internal/domain"
)

func toDomainOrder(payload orderPayload) *domain.Order {
	items := make([]domain.OrderItem, 0, len(payload.Products))
	for _, product := range payload.Products {
		items = append(items, domain.OrderItem{
			SKU:      product.SKU,
			Name:     product.Name,
			Quantity: product.Quantity,
			Price:    product.Price,
		})
	}

	return &domain.Order{
		ReferenceID: payload.Reference.ID,
		Status:      domain.OrderStatus(payload.Status.Status),
		Items:       items,
		TotalAmount: payload.Payment.TotalAmount,
		CreatedAt:   parseWireTime(payload.CreatedDate),
	}
}

func toWireOrder(order *domain.Order) orderPayload {
	products := make([]orderProduct, 0, len(order.Items))
	for _, item := range order.Items {
		products = append(products, orderProduct{
			SKU:      item.SKU,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	return orderPayload{
		Reference: orderReference{ID: order.ReferenceID},
		Status:    orderStatus{Status: string(order.Status)},
		Products:  products,
		Payment:   orderPayment{TotalAmount: order.TotalAmount},
	}
}

func toDomainInvoice(payload invoicePayload) *domain.Invoice {
	return &domain.Invoice{
		IssueDate:   parseWireTime(payload.IssueDate),
		Key:         payload.Key,
		Number:      payload.Number,
		CFOP:        payload.CFOP,
		Series:      payload.Series,
		Packages:    payload.Packages,
		TotalAmount: payload.TotalAmount,
	}
}

func toWireInvoice(invoice *domain.Invoice) invoicePayload {
	return invoicePayload{
		IssueDate:   formatWireTime(invoice.IssueDate),
		Key:         invoice.Key,
		Number:      invoice.Number,
		CFOP:        invoice.CFOP,
		Series:      invoice.Series,
		Packages:    invoice.Packages,
		TotalAmount: invoice.TotalAmount,
	}
}

func toDomainTracking(payload trackingPayload) *domain.Tracking {
	return &domain.Tracking{
		Code:             payload.Code,
		URL:              payload.URL,
		ShippingDate:     parseWireTime(payload.ShippingDate),
		ShippingProvider: payload.ShippingProvider,
		ShippingService:  payload.ShippingService,
	}
}

func toWireTracking(tracking *domain.Tracking) trackingPayload {
	return trackingPayload{
		Code:             tracking.Code,
		URL:              tracking.URL,
		ShippingDate:     formatWireTime(tracking.ShippingDate),
		ShippingProvider: tracking.ShippingProvider,
		ShippingService:  tracking.ShippingService,
	}
}

func toDomainCatalogItem(payload catalogProduct) domain.CatalogItem {
	images := make([]string, 0, len(payload.Images))
	for _, image := range payload.Images {
		images = append(images, image.URL)
	}

	attributes := make([]domain.CatalogAttribute, 0, len(payload.Attributes))
	for _, attribute := range payload.Attributes {
		attributes = append(attributes, domain.CatalogAttribute{
			Name:  attribute.Name,
			Value: attribute.Value,
		})
	}

	return domain.CatalogItem{
		SKU:            payload.SKU,
		ParentSKU:      payload.ParentSKU,
		DestinationSKU: payload.DestinationSKU,
		Name:           payload.Name,
		Description:    payload.Description,
		Brand:          payload.Brand,
		EAN:            payload.EAN,
		CategoryName:   payload.CategoryName,
		CategoryCode:   payload.CategoryCode,
		PriceBase:      payload.PriceBase,
		PriceSale:      payload.PriceSale,
		Stock:          payload.Stock,
		Images:         images,
		Attributes:     attributes,
		HeightM:        payload.Height,
		WidthM:         payload.Width,
		LengthM:        payload.Length,
		WeightKg:       payload.Weight,
	}
}

func toWireProduct(product *domain.Product) catalogProduct {
	images := make([]catalogImage, 0, len(product.Images))
	for rank, url := range product.Images {
		images = append(images, catalogImage{URL: url, Rank: rank + 1})
	}

	return catalogProduct{
		SKU:          product.SKU,
		Name:         product.Name,
		Description:  product.Description,
		Brand:        product.Brand,
		EAN:          product.EAN,
		CategoryCode: strconv.Itoa(product.Subcategory),
		PriceBase:    product.Price,
		PriceSale:    product.PriceDiscounted,
		Images:       images,
	}
}

func parseWireTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func formatWireTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(time.RFC3339)
}
