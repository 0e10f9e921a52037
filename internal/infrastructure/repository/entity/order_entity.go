package entity

import (
	"time"

	"markethub-integration-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoOrderDoc represents a marketplace order in MongoDB
type MongoOrderDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ReferenceID string             `bson:"reference_id"`
	ShopID      string             `bson:"shop_id"`
	Status      string             `bson:"status"`
	Items       []MongoOrderItem   `bson:"items"`
	TotalAmount float64            `bson:"total_amount"`
	Tenant      *MongoTenantLink   `bson:"tenant,omitempty"`
	ERPOrderID  string             `bson:"erp_order_id,omitempty"`
	ERPStatus   string             `bson:"erp_status,omitempty"`
	Meta        MongoOrderMeta     `bson:"meta"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

type MongoOrderItem struct {
	SKU      string  `bson:"sku"`
	Name     string  `bson:"name"`
	Quantity int     `bson:"quantity"`
	Price    float64 `bson:"price"`
}

type MongoTenantLink struct {
	TenantID      string `bson:"tenant_id"`
	TenantOrderID string `bson:"tenant_order_id"`
}

// MongoOrderMeta keys match the lifecycle timestamp names used by the
// conditional status update, which targets them with dotted paths.
type MongoOrderMeta struct {
	ApprovedAt                *time.Time `bson:"approved_at,omitempty"`
	InvoicedAt                *time.Time `bson:"invoiced_at,omitempty"`
	ShippedAt                 *time.Time `bson:"shipped_at,omitempty"`
	DeliveredAt               *time.Time `bson:"delivered_at,omitempty"`
	LateShippingNotifications int        `bson:"late_shipping_notifications"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoOrderDoc) ToDomain() *domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.OrderItem{
			SKU:      item.SKU,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	var tenant *domain.TenantLink
	if d.Tenant != nil {
		tenant = &domain.TenantLink{
			TenantID:      d.Tenant.TenantID,
			TenantOrderID: d.Tenant.TenantOrderID,
		}
	}

	return &domain.Order{
		ID:          d.ID.Hex(),
		ReferenceID: d.ReferenceID,
		ShopID:      d.ShopID,
		Status:      domain.OrderStatus(d.Status),
		Items:       items,
		TotalAmount: d.TotalAmount,
		Tenant:      tenant,
		ERPOrderID:  d.ERPOrderID,
		ERPStatus:   domain.OrderStatus(d.ERPStatus),
		Meta: domain.OrderMeta{
			ApprovedAt:                d.Meta.ApprovedAt,
			InvoicedAt:                d.Meta.InvoicedAt,
			ShippedAt:                 d.Meta.ShippedAt,
			DeliveredAt:               d.Meta.DeliveredAt,
			LateShippingNotifications: d.Meta.LateShippingNotifications,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoOrderDocFromDomain converts a domain entity to a MongoDB document
func MongoOrderDocFromDomain(order *domain.Order) *MongoOrderDoc {
	items := make([]MongoOrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, MongoOrderItem{
			SKU:      item.SKU,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	var tenant *MongoTenantLink
	if order.Tenant != nil {
		tenant = &MongoTenantLink{
			TenantID:      order.Tenant.TenantID,
			TenantOrderID: order.Tenant.TenantOrderID,
		}
	}

	doc := &MongoOrderDoc{
		ReferenceID: order.ReferenceID,
		ShopID:      order.ShopID,
		Status:      string(order.Status),
		Items:       items,
		TotalAmount: order.TotalAmount,
		Tenant:      tenant,
		ERPOrderID:  order.ERPOrderID,
		ERPStatus:   string(order.ERPStatus),
		Meta: MongoOrderMeta{
			ApprovedAt:                order.Meta.ApprovedAt,
			InvoicedAt:                order.Meta.InvoicedAt,
			ShippedAt:                 order.Meta.ShippedAt,
			DeliveredAt:               order.Meta.DeliveredAt,
			LateShippingNotifications: order.Meta.LateShippingNotifications,
		},
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}

	if order.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(order.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}

// MongoCheckpointDoc records order-polling progress in MongoDB
type MongoCheckpointDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	LastUpdate time.Time          `bson:"last_update"`
	WindowFrom time.Time          `bson:"window_from"`
	WindowTo   time.Time          `bson:"window_to"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (d *MongoCheckpointDoc) ToDomain() *domain.OrderCheckpoint {
	return &domain.OrderCheckpoint{
		LastUpdate: d.LastUpdate,
		WindowFrom: d.WindowFrom,
		WindowTo:   d.WindowTo,
		CreatedAt:  d.CreatedAt,
	}
}

func MongoCheckpointDocFromDomain(checkpoint *domain.OrderCheckpoint) *MongoCheckpointDoc {
	return &MongoCheckpointDoc{
		LastUpdate: checkpoint.LastUpdate,
		WindowFrom: checkpoint.WindowFrom,
		WindowTo:   checkpoint.WindowTo,
		CreatedAt:  checkpoint.CreatedAt,
	}
}
