package domain

import "fmt"

// Variation is one sellable unit of a Product. Stock may go negative: a
// negative value is a signal to investigate, never silently clamped.
type Variation struct {
	ID          string
	ProductID   string
	Stock       int
	Size        string
	Color       string
	Flavor      string
	Voltage     string
	GlutenFree  bool
	LactoseFree bool
	MappingID   string
}

// Validation is the denormalized completeness view of a Product,
// recomputed on every mutation. It flags missing fields for operator
// attention and never blocks ingestion.
type Validation struct {
	Errors []string
}

// Product is a catalog entity owning zero or more Variations.
type Product struct {
	ID              string
	ShopID          string
	SKU             string
	Name            string
	Description     string
	Brand           string
	EAN             string
	Category        int
	Subcategory     int
	Images          []string
	Price           float64
	PriceDiscounted float64
	IsActive        bool
	Variations      []Variation
	Validation      Validation
}

// categoryAttributes maps category codes to the variation attributes the
// category requires. Categories absent from the map require none.
var categoryAttributes = map[int][]string{
	CategoryApparel:    {"size", "color"},
	CategoryFood:       {"flavor"},
	CategoryAppliances: {"voltage"},
}

// Category codes for the small static catalog carried by the platform.
const (
	CategoryApparel    = 1
	CategoryFood       = 2
	CategoryAppliances = 3
)

// Revalidate recomputes the completeness view. The result describes which
// required fields or variation attributes are currently missing.
func (p *Product) Revalidate() {
	var errs []string

	if p.Name == "" {
		errs = append(errs, "name is required")
	}
	if p.Brand == "" {
		errs = append(errs, "brand is required")
	}
	if p.SKU == "" {
		errs = append(errs, "sku is required")
	}
	if p.Price <= 0 {
		errs = append(errs, "price must be greater than zero")
	}
	if p.Subcategory == 0 {
		errs = append(errs, "subcategory is required")
	}

	required := categoryAttributes[p.Category]
	for i, variation := range p.Variations {
		for _, attr := range required {
			if !variationHasAttribute(variation, attr) {
				errs = append(errs, fmt.Sprintf("variation %d is missing attribute %s", i, attr))
			}
		}
	}

	p.Validation = Validation{Errors: errs}
}

func variationHasAttribute(v Variation, attr string) bool {
	switch attr {
	case "size":
		return v.Size != ""
	case "color":
		return v.Color != ""
	case "flavor":
		return v.Flavor != ""
	case "voltage":
		return v.Voltage != ""
	}
	return true
}

// CatalogAttribute is a raw name/value attribute attached to a Hub
// catalog item.
type CatalogAttribute struct {
	Name  string
	Value string
}

// CatalogItem is the normalized view of one Hub catalog entry. Items
// sharing a ParentSKU are variations of the same Product.
type CatalogItem struct {
	SKU             string
	ParentSKU       string
	DestinationSKU  string
	Name            string
	Description     string
	Brand           string
	EAN             string
	CategoryName    string
	CategoryCode    string
	PriceBase       float64
	PriceSale       float64
	Stock           int
	Images          []string
	Attributes      []CatalogAttribute
	HeightM         float64
	WidthM          float64
	LengthM         float64
	WeightKg        float64
}

// SKUMapping binds a locally assigned id back to the Hub's source SKU so
// future stock and price webhooks resolve to local variations.
type SKUMapping struct {
	SourceSKU      string
	DestinationSKU string
}
