package hub

// Wire types for the Hub aggregator REST API. They mirror the Hub's JSON
// schema exactly; schema drift on the Hub side stays contained in this
// package and never leaks into the domain.

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type orderReference struct {
	ID     string `json:"id"`
	Source string `json:"source,omitempty"`
}

type orderStatus struct {
	Status      string `json:"status"`
	UpdatedDate string `json:"updatedDate,omitempty"`
}

type orderProduct struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type orderPayment struct {
	TotalAmount float64 `json:"totalAmount"`
}

type orderPayload struct {
	Reference   orderReference `json:"reference"`
	Status      orderStatus    `json:"status"`
	Products    []orderProduct `json:"products"`
	Payment     orderPayment   `json:"payment"`
	CreatedDate string         `json:"createdDate,omitempty"`
}

type orderListResponse struct {
	Response []orderPayload `json:"response"`
}

type orderCreateResponse struct {
	Response orderReference `json:"response"`
}

type statusPut struct {
	Status string `json:"status"`
}

type invoicePayload struct {
	IssueDate   string  `json:"issueDate"`
	Key         string  `json:"key"`
	Number      string  `json:"number"`
	CFOP        string  `json:"cfop"`
	Series      string  `json:"series"`
	Packages    int     `json:"packages"`
	TotalAmount float64 `json:"totalAmount"`
}

type trackingPayload struct {
	Code             string `json:"code"`
	URL              string `json:"url"`
	ShippingDate     string `json:"shippingDate"`
	ShippingProvider string `json:"shippingProvider"`
	ShippingService  string `json:"shippingService"`
}

type catalogAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type catalogImage struct {
	URL  string `json:"url"`
	Rank int    `json:"rank"`
}

type catalogProduct struct {
	SKU            string             `json:"sku"`
	ParentSKU      string             `json:"parentSku,omitempty"`
	DestinationSKU string             `json:"destinationSku,omitempty"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Brand          string             `json:"brand"`
	EAN            string             `json:"ean"`
	CategoryName   string             `json:"categoryName"`
	CategoryCode   string             `json:"categoryCode"`
	PriceBase      float64            `json:"priceBase"`
	PriceSale      float64            `json:"priceSale"`
	Stock          int                `json:"stock"`
	Images         []catalogImage     `json:"images"`
	Attributes     []catalogAttribute `json:"attributes"`
	Height         float64            `json:"height"`
	Width          float64            `json:"width"`
	Length         float64            `json:"length"`
	Weight         float64            `json:"weight"`
}

type catalogPageResponse struct {
	Response []catalogProduct `json:"response"`
}

type stockPut struct {
	Available int `json:"available"`
}

type stockResponse struct {
	Available int `json:"available"`
}

type pricePut struct {
	PriceBase float64 `json:"priceBase"`
	PriceSale float64 `json:"priceSale"`
}

type skuMapPair struct {
	SourceSKU      string `json:"sourceSku"`
	DestinationSKU string `json:"destinationSku"`
}
