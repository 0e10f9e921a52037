package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRevalidateFlagsMissingFields(t *testing.T) {
	p := &Product{Name: "Shirt"}
	p.Revalidate()

	assert.Contains(t, p.Validation.Errors, "brand is required")
	assert.Contains(t, p.Validation.Errors, "sku is required")
	assert.Contains(t, p.Validation.Errors, "price must be greater than zero")
	assert.Contains(t, p.Validation.Errors, "subcategory is required")
}

func TestRevalidateChecksCategoryAttributes(t *testing.T) {
	p := &Product{
		Name:        "Shirt",
		Brand:       "Acme",
		SKU:         "shirt",
		Price:       10,
		Category:    CategoryApparel,
		Subcategory: 7,
		Variations: []Variation{
			{Size: "M", Color: "blue"},
			{Size: "L"},
		},
	}
	p.Revalidate()

	assert.Equal(t, []string{"variation 1 is missing attribute color"}, p.Validation.Errors)
}

func TestRevalidateClearsStaleErrors(t *testing.T) {
	p := &Product{}
	p.Revalidate()
	assert.NotEmpty(t, p.Validation.Errors)

	p.Name = "Shirt"
	p.Brand = "Acme"
	p.SKU = "shirt"
	p.Price = 10
	p.Subcategory = 7
	p.Revalidate()

	assert.Empty(t, p.Validation.Errors)
}

func TestOrderStatusParsing(t *testing.T) {
	status, err := ParseOrderStatus("Invoiced")
	assert.NoError(t, err)
	assert.Equal(t, StatusInvoiced, status)

	_, err = ParseOrderStatus("invoiced")
	assert.Error(t, err)
}

func TestCredentialValidity(t *testing.T) {
	now := time.Now()

	var c *Credential
	assert.False(t, c.Valid(now))

	c = &Credential{AccessToken: "tok", IssuedAt: now.Unix(), ExpiresIn: 60}
	assert.True(t, c.Valid(now))
	assert.False(t, c.Valid(now.Add(2*time.Minute)))
}
