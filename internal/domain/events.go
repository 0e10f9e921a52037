package domain

// Domain event names carried by the in-process event bus.
const (
	EventOrderNew       = "order.new"
	EventOrderUpdated   = "order.updated"
	EventOrderApproved  = "order.approved"
	EventOrderInvoiced  = "order.invoiced"
	EventOrderShipped   = "order.shipped"
	EventOrderDelivered = "order.delivered"
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
	EventStockUpdated   = "stock.updated"
	EventPriceUpdated   = "price.updated"
)

// StockOrigin identifies which system produced a stock observation, so
// listeners can avoid echoing a change back to its source.
type StockOrigin string

const (
	StockOriginLocal StockOrigin = "local"
	StockOriginHub   StockOrigin = "hub"
	StockOriginERP   StockOrigin = "erp"
)

// OrderNewEvent fires when an order is stored for the first time.
type OrderNewEvent struct {
	Order *Order
}

// OrderUpdatedEvent fires on every genuine status transition.
type OrderUpdatedEvent struct {
	Order  *Order
	Status OrderStatus
	Source string
}

// OrderApprovedEvent fires when an order transitions to Approved.
type OrderApprovedEvent struct {
	Order *Order
}

// OrderInvoicedEvent fires when an order transitions to Invoiced. Invoice
// is nil when the fiscal document could not be fetched from the Hub.
type OrderInvoicedEvent struct {
	Order   *Order
	Invoice *Invoice
}

// OrderShippedEvent fires when an order transitions to Shipped. Tracking
// is nil when tracking info could not be fetched from the Hub.
type OrderShippedEvent struct {
	Order    *Order
	Tracking *Tracking
}

// OrderDeliveredEvent fires when an order transitions to Delivered.
// ERPStatus carries the ERP-facing vocabulary for the same fact: a
// delivered order is Completed downstream.
type OrderDeliveredEvent struct {
	Order     *Order
	ERPStatus OrderStatus
}

// ProductEvent fires on catalog mutations.
type ProductEvent struct {
	Product  *Product
	TenantID string
}

// StockEvent fires when a variation's available stock changes.
type StockEvent struct {
	VariationID string
	Available   int
	Origin      StockOrigin
	TenantID    string
}

// PriceEvent fires when a product's price pair changes.
type PriceEvent struct {
	VariationID string
	Base        float64
	Sale        float64
	TenantID    string
}
