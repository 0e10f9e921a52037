package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// catalogPageSize is the fixed page size of the Hub catalog listing.
const catalogPageSize = 10

const (
	retryBaseDelay  = 200 * time.Millisecond
	retryMaxRetries = 2
)

// Client talks to the Hub aggregator REST API. Tokens are resolved per
// call through the TokenProvider; the client never caches credentials
// itself. Calls for a tenant sub-account authenticate under that tenant's
// scope, everything else under the hub's main account.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  ports.TokenProvider
	logger  zerolog.Logger
}

var (
	_ ports.HubGateway  = (*Client)(nil)
	_ ports.AuthGateway = (*Client)(nil)
)

// NewClient creates a Hub API client rooted at baseURL.
func NewClient(baseURL string, httpClient *http.Client, tokens ports.TokenProvider, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		logger:  logger,
	}
}

func scopeFor(tenantID string) domain.CredentialScope {
	if tenantID == "" {
		return domain.ScopeGlobal
	}
	return domain.TenantScope(tenantID)
}

// Orders

func (c *Client) FetchOrder(ctx context.Context, referenceID string) (*domain.Order, error) {
	var payload orderPayload
	err := c.get(ctx, domain.ScopeGlobal, "/api/orders/"+url.PathEscape(referenceID), nil, &payload)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainOrder(payload), nil
}

func (c *Client) FetchOrdersByWindow(ctx context.Context, from, to time.Time) ([]*domain.Order, error) {
	query := url.Values{}
	query.Set("updatedFrom", from.Format(time.RFC3339))
	query.Set("updatedTo", to.Format(time.RFC3339))

	var payload orderListResponse
	if err := c.get(ctx, domain.ScopeGlobal, "/api/orders", query, &payload); err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(payload.Response))
	for _, order := range payload.Response {
		orders = append(orders, toDomainOrder(order))
	}
	return orders, nil
}

func (c *Client) FetchAllOrders(ctx context.Context) ([]*domain.Order, error) {
	var payload orderListResponse
	if err := c.get(ctx, domain.ScopeGlobal, "/api/orders", nil, &payload); err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(payload.Response))
	for _, order := range payload.Response {
		orders = append(orders, toDomainOrder(order))
	}
	return orders, nil
}

func (c *Client) PostOrder(ctx context.Context, tenantID string, order *domain.Order) (string, error) {
	var payload orderCreateResponse
	err := c.do(ctx, scopeFor(tenantID), http.MethodPost, "/api/orders", nil, toWireOrder(order), &payload)
	if err != nil {
		return "", err
	}
	if payload.Response.ID == "" {
		return "", fmt.Errorf("order create for %s returned no id", order.ReferenceID)
	}
	return payload.Response.ID, nil
}

func (c *Client) FetchTenantOrder(ctx context.Context, tenantID, tenantOrderID string) (*domain.Order, error) {
	var payload orderPayload
	err := c.get(ctx, scopeFor(tenantID), "/api/orders/"+url.PathEscape(tenantOrderID), nil, &payload)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainOrder(payload), nil
}

func (c *Client) PutOrderStatus(ctx context.Context, tenantID, referenceID string, status domain.OrderStatus) error {
	path := "/api/orders/" + url.PathEscape(referenceID) + "/status"
	return c.do(ctx, scopeFor(tenantID), http.MethodPut, path, nil, statusPut{Status: string(status)}, nil)
}

// Fiscal documents and shipping

func (c *Client) FetchInvoice(ctx context.Context, referenceID string) (*domain.Invoice, error) {
	var payload invoicePayload
	err := c.get(ctx, domain.ScopeGlobal, "/api/orders/"+url.PathEscape(referenceID)+"/invoice", nil, &payload)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainInvoice(payload), nil
}

func (c *Client) PostInvoice(ctx context.Context, tenantID, referenceID string, invoice *domain.Invoice) error {
	path := "/api/orders/" + url.PathEscape(referenceID) + "/invoice"
	return c.do(ctx, scopeFor(tenantID), http.MethodPost, path, nil, toWireInvoice(invoice), nil)
}

func (c *Client) FetchTracking(ctx context.Context, referenceID string) (*domain.Tracking, error) {
	var payload trackingPayload
	err := c.get(ctx, domain.ScopeGlobal, "/api/orders/"+url.PathEscape(referenceID)+"/tracking", nil, &payload)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainTracking(payload), nil
}

func (c *Client) PostTracking(ctx context.Context, tenantID, referenceID string, tracking *domain.Tracking) error {
	path := "/api/orders/" + url.PathEscape(referenceID) + "/tracking"
	return c.do(ctx, scopeFor(tenantID), http.MethodPost, path, nil, toWireTracking(tracking), nil)
}

// Catalog and inventory

func (c *Client) FetchCatalogPage(ctx context.Context, tenantID, statusFilter string, offset int) ([]domain.CatalogItem, error) {
	query := url.Values{}
	query.Set("status", statusFilter)
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(catalogPageSize))

	var payload catalogPageResponse
	if err := c.get(ctx, scopeFor(tenantID), "/api/catalog/products", query, &payload); err != nil {
		return nil, err
	}

	items := make([]domain.CatalogItem, 0, len(payload.Response))
	for _, product := range payload.Response {
		items = append(items, toDomainCatalogItem(product))
	}
	return items, nil
}

func (c *Client) PostProducts(ctx context.Context, tenantID string, product *domain.Product) error {
	return c.do(ctx, scopeFor(tenantID), http.MethodPost, "/api/catalog/products", nil, toWireProduct(product), nil)
}

func (c *Client) DeleteProduct(ctx context.Context, tenantID, sku string) error {
	path := "/api/catalog/products/" + url.PathEscape(sku)
	err := c.do(ctx, scopeFor(tenantID), http.MethodDelete, path, nil, nil, nil)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (c *Client) PutStock(ctx context.Context, variationID string, available int) error {
	path := "/api/inventory/" + url.PathEscape(variationID)
	return c.do(ctx, domain.ScopeGlobal, http.MethodPut, path, nil, stockPut{Available: available}, nil)
}

func (c *Client) PutPrice(ctx context.Context, variationID string, base, sale float64) error {
	path := "/api/prices/" + url.PathEscape(variationID)
	return c.do(ctx, domain.ScopeGlobal, http.MethodPut, path, nil, pricePut{PriceBase: base, PriceSale: sale}, nil)
}

func (c *Client) FetchStock(ctx context.Context, tenantID, variationID string) (int, error) {
	var payload stockResponse
	err := c.get(ctx, scopeFor(tenantID), "/api/inventory/"+url.PathEscape(variationID), nil, &payload)
	if err != nil {
		return 0, err
	}
	return payload.Available, nil
}

func (c *Client) MapSKUs(ctx context.Context, tenantID string, pairs []domain.SKUMapping) error {
	wire := make([]skuMapPair, 0, len(pairs))
	for _, pair := range pairs {
		wire = append(wire, skuMapPair{
			SourceSKU:      pair.SourceSKU,
			DestinationSKU: pair.DestinationSKU,
		})
	}
	return c.do(ctx, scopeFor(tenantID), http.MethodPost, "/api/catalog/skus", nil, wire, nil)
}

// Auth. Login and Refresh authenticate themselves; they never go through
// the TokenProvider.

func (c *Client) Login(ctx context.Context, scope domain.CredentialScope, login domain.LoginCredentials) (*domain.Credential, error) {
	values := url.Values{}
	values.Set("grant_type", "password")
	values.Set("username", login.Username)
	values.Set("password", login.Password)
	if login.OAuthScope != "" {
		values.Set("scope", login.OAuthScope)
	}
	return c.grant(ctx, scope, values)
}

func (c *Client) Refresh(ctx context.Context, scope domain.CredentialScope, refreshToken string) (*domain.Credential, error) {
	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("refresh_token", refreshToken)
	return c.grant(ctx, scope, values)
}

func (c *Client) grant(ctx context.Context, scope domain.CredentialScope, values url.Values) (*domain.Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/token", strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token grant for scope %s: %s", domain.ErrCredential, scope, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: token grant for scope %s: status %d, body: %s", domain.ErrCredential, scope, resp.StatusCode, string(body))
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode token response for scope %s: %s", domain.ErrCredential, scope, err)
	}

	return &domain.Credential{
		Scope:        scope,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
		ExpiresIn:    payload.ExpiresIn,
		IssuedAt:     time.Now().Unix(),
	}, nil
}

// get runs an idempotent GET with bounded exponential backoff on
// transport-level failures. Writes are never retried here; a failed write
// heals on the next scheduled tick or webhook delivery.
func (c *Client) get(ctx context.Context, scope domain.CredentialScope, path string, query url.Values, out any) error {
	backoff := retry.WithMaxRetries(retryMaxRetries, retry.NewExponential(retryBaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, scope, http.MethodGet, path, query, nil, out)
		if errors.Is(err, domain.ErrTransport) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) do(ctx context.Context, scope domain.CredentialScope, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens == nil {
		return fmt.Errorf("%w: client has no token provider, auth-only", domain.ErrCredential)
	}
	token, err := c.tokens.Token(ctx, scope)
	if err != nil {
		return fmt.Errorf("resolve token for scope %s: %w", scope, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %s", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, method, path)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("Hub request failed")
		return fmt.Errorf("%w: %s %s: status %d, body: %s", domain.ErrTransport, method, path, resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
