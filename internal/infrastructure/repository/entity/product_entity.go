package entity

import (
	"markethub-integration-layer/internal/domain"
)

// MongoProductDoc represents a catalog product in MongoDB. Products and
// variations use string ids assigned at creation so they can double as
// the SKUs announced to external systems.
type MongoProductDoc struct {
	ID              string   `bson:"_id"`
	ShopID          string   `bson:"shop_id"`
	SKU             string   `bson:"sku"`
	Name            string   `bson:"name"`
	Description     string   `bson:"description"`
	Brand           string   `bson:"brand"`
	EAN             string   `bson:"ean"`
	Category        int      `bson:"category"`
	Subcategory     int      `bson:"subcategory"`
	Images          []string `bson:"images"`
	Price           float64  `bson:"price"`
	PriceDiscounted float64  `bson:"price_discounted"`
	IsActive        bool     `bson:"is_active"`
	Validation      []string `bson:"validation"`
}

// MongoVariationDoc represents one sellable variation in MongoDB
type MongoVariationDoc struct {
	ID          string `bson:"_id"`
	ProductID   string `bson:"product_id"`
	Stock       int    `bson:"stock"`
	Size        string `bson:"size,omitempty"`
	Color       string `bson:"color,omitempty"`
	Flavor      string `bson:"flavor,omitempty"`
	Voltage     string `bson:"voltage,omitempty"`
	GlutenFree  bool   `bson:"gluten_free"`
	LactoseFree bool   `bson:"lactose_free"`
	MappingID   string `bson:"mapping_id,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity. Variations
// are attached by the repository after a separate lookup.
func (d *MongoProductDoc) ToDomain() *domain.Product {
	return &domain.Product{
		ID:              d.ID,
		ShopID:          d.ShopID,
		SKU:             d.SKU,
		Name:            d.Name,
		Description:     d.Description,
		Brand:           d.Brand,
		EAN:             d.EAN,
		Category:        d.Category,
		Subcategory:     d.Subcategory,
		Images:          d.Images,
		Price:           d.Price,
		PriceDiscounted: d.PriceDiscounted,
		IsActive:        d.IsActive,
		Validation:      domain.Validation{Errors: d.Validation},
	}
}

// MongoProductDocFromDomain converts a domain entity to a MongoDB document
func MongoProductDocFromDomain(product *domain.Product) *MongoProductDoc {
	return &MongoProductDoc{
		ID:              product.ID,
		ShopID:          product.ShopID,
		SKU:             product.SKU,
		Name:            product.Name,
		Description:     product.Description,
		Brand:           product.Brand,
		EAN:             product.EAN,
		Category:        product.Category,
		Subcategory:     product.Subcategory,
		Images:          product.Images,
		Price:           product.Price,
		PriceDiscounted: product.PriceDiscounted,
		IsActive:        product.IsActive,
		Validation:      product.Validation.Errors,
	}
}

func (d *MongoVariationDoc) ToDomain() *domain.Variation {
	return &domain.Variation{
		ID:          d.ID,
		ProductID:   d.ProductID,
		Stock:       d.Stock,
		Size:        d.Size,
		Color:       d.Color,
		Flavor:      d.Flavor,
		Voltage:     d.Voltage,
		GlutenFree:  d.GlutenFree,
		LactoseFree: d.LactoseFree,
		MappingID:   d.MappingID,
	}
}

func MongoVariationDocFromDomain(variation *domain.Variation) *MongoVariationDoc {
	return &MongoVariationDoc{
		ID:          variation.ID,
		ProductID:   variation.ProductID,
		Stock:       variation.Stock,
		Size:        variation.Size,
		Color:       variation.Color,
		Flavor:      variation.Flavor,
		Voltage:     variation.Voltage,
		GlutenFree:  variation.GlutenFree,
		LactoseFree: variation.LactoseFree,
		MappingID:   variation.MappingID,
	}
}
