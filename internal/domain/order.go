package domain

import (
	"fmt"
	"time"
)

// OrderStatus is the channel-facing order lifecycle status as reported by
// the Hub aggregator.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusApproved  OrderStatus = "Approved"
	StatusInvoiced  OrderStatus = "Invoiced"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCanceled  OrderStatus = "Canceled"
	StatusCompleted OrderStatus = "Completed"
)

// LimboShopID is the sentinel shop id assigned when no owning seller could
// be resolved at ingestion time.
const LimboShopID = "limbo"

// ParseOrderStatus validates a status string coming from an external system.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	switch status {
	case StatusPending, StatusApproved, StatusInvoiced, StatusShipped,
		StatusDelivered, StatusCanceled, StatusCompleted:
		return status, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// MetaTimestampKey returns the meta field recording when an order entered
// the given status, or false when the status has no lifecycle timestamp.
func MetaTimestampKey(status OrderStatus) (string, bool) {
	switch status {
	case StatusApproved:
		return "approved_at", true
	case StatusInvoiced:
		return "invoiced_at", true
	case StatusShipped:
		return "shipped_at", true
	case StatusDelivered:
		return "delivered_at", true
	}
	return "", false
}

// OrderItem is one sold line item.
type OrderItem struct {
	SKU      string
	Name     string
	Quantity int
	Price    float64
}

// TenantLink records that an order was forwarded to a tenant sub-account
// and under which id it exists there. It anchors bidirectional sync.
type TenantLink struct {
	TenantID      string
	TenantOrderID string
}

// OrderMeta holds sparse lifecycle timestamps and notification guards.
type OrderMeta struct {
	ApprovedAt                *time.Time
	InvoicedAt                *time.Time
	ShippedAt                 *time.Time
	DeliveredAt               *time.Time
	LateShippingNotifications int
}

// Order is one marketplace sale. Exactly one Order exists per Hub
// reference id; a second observation of the same reference id is an
// update, never a new document.
type Order struct {
	ID          string
	ReferenceID string
	ShopID      string
	Status      OrderStatus
	Items       []OrderItem
	TotalAmount float64
	Tenant      *TenantLink
	ERPOrderID  string
	ERPStatus   OrderStatus
	Meta        OrderMeta
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StampStatus records the lifecycle timestamp for statuses that carry one.
func (o *Order) StampStatus(status OrderStatus, t time.Time) {
	switch status {
	case StatusApproved:
		o.Meta.ApprovedAt = &t
	case StatusInvoiced:
		o.Meta.InvoicedAt = &t
	case StatusShipped:
		o.Meta.ShippedAt = &t
	case StatusDelivered:
		o.Meta.DeliveredAt = &t
	}
}

// Invoice is the fiscal document issued for an order.
type Invoice struct {
	IssueDate   time.Time
	Key         string
	Number      string
	CFOP        string
	Series      string
	Packages    int
	TotalAmount float64
}

// Tracking is the shipping information attached to an order.
type Tracking struct {
	Code             string
	URL              string
	ShippingDate     time.Time
	ShippingProvider string
	ShippingService  string
}

// OrderCheckpoint records how far time-windowed order polling has
// progressed. Append-only; the most recent row is the resume point.
type OrderCheckpoint struct {
	LastUpdate time.Time
	WindowFrom time.Time
	WindowTo   time.Time
	CreatedAt  time.Time
}
