package domain

import "time"

// SystemIntegration is the per-shop record of which downstream ERP is
// configured. Active flips to true only after a live connectivity probe
// succeeds.
type SystemIntegration struct {
	ID          string
	ShopID      string
	SystemName  string
	Token       string
	EcommerceID string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ERPSystemName is the only downstream ERP currently supported.
const ERPSystemName = "erp-a"

// Tenant is a sub-account reachable through the Hub to which orders may be
// forwarded for fulfillment by a different seller entity.
type Tenant struct {
	ID         string
	ShopID     string
	Name       string
	OwnerEmail string
}
