package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"markethub-integration-layer/internal/domain"
	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Client talks to the downstream ERP's HTTP API. Every call carries the
// shop-scoped API token as a query parameter, which is how the ERP
// authenticates; there is no session or oauth flow on this side.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

var _ ports.ERPGateway = (*Client)(nil)

// NewClient creates an ERP API client rooted at baseURL.
func NewClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

type accountInfo struct {
	Result struct {
		Status  string `json:"status"`
		Account string `json:"account"`
	} `json:"result"`
}

type orderPushResponse struct {
	Result struct {
		Status  string `json:"status"`
		OrderID string `json:"order_id"`
	} `json:"result"`
}

type stockFetchResponse struct {
	Result struct {
		Status string `json:"status"`
		Stock  int    `json:"stock"`
	} `json:"result"`
}

type orderPush struct {
	Reference string          `json:"reference"`
	Total     float64         `json:"total"`
	Items     []orderPushItem `json:"items"`
}

type orderPushItem struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// erpStatus translates the channel-facing status vocabulary into the
// ERP's. The two agree except on the final state, which the ERP calls
// Completed.
func erpStatus(status domain.OrderStatus) string {
	if status == domain.StatusDelivered {
		return string(domain.StatusCompleted)
	}
	return string(status)
}

// Probe checks that the token grants access to a live ERP account. Used
// before activating a shop's integration.
func (c *Client) Probe(ctx context.Context, token string) error {
	var payload accountInfo
	if err := c.call(ctx, token, "account.info", nil, &payload); err != nil {
		return err
	}
	if payload.Result.Status != "OK" {
		return fmt.Errorf("%w: account probe returned status %s", domain.ErrCredential, payload.Result.Status)
	}
	return nil
}

func (c *Client) PushOrder(ctx context.Context, token string, order *domain.Order) (string, error) {
	items := make([]orderPushItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderPushItem{
			SKU:      item.SKU,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	encoded, err := json.Marshal(orderPush{
		Reference: order.ReferenceID,
		Total:     order.TotalAmount,
		Items:     items,
	})
	if err != nil {
		return "", fmt.Errorf("encode order %s: %w", order.ReferenceID, err)
	}

	params := url.Values{}
	params.Set("order", string(encoded))

	var payload orderPushResponse
	if err := c.call(ctx, token, "order.create", params, &payload); err != nil {
		return "", err
	}
	if payload.Result.OrderID == "" {
		return "", fmt.Errorf("order create for %s returned no id", order.ReferenceID)
	}
	return payload.Result.OrderID, nil
}

func (c *Client) PushStatus(ctx context.Context, token, erpOrderID string, status domain.OrderStatus) error {
	params := url.Values{}
	params.Set("id", erpOrderID)
	params.Set("status", erpStatus(status))
	return c.call(ctx, token, "order.status.update", params, nil)
}

func (c *Client) FetchStock(ctx context.Context, token, mappingID string) (int, error) {
	params := url.Values{}
	params.Set("id", mappingID)

	var payload stockFetchResponse
	if err := c.call(ctx, token, "product.stock.get", params, &payload); err != nil {
		return 0, err
	}
	return payload.Result.Stock, nil
}

// call posts a form-encoded request to one ERP endpoint. The ERP speaks a
// flat RPC dialect: every endpoint is a POST with token, format and the
// operation parameters in the body.
func (c *Client) call(ctx context.Context, token, endpoint string, params url.Values, out any) error {
	values := url.Values{}
	for key, vals := range params {
		for _, val := range vals {
			values.Add(key, val)
		}
	}
	values.Set("token", token)
	values.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", domain.ErrTransport, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s: status %d", domain.ErrCredential, endpoint, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("ERP request failed")
		return fmt.Errorf("%w: %s: status %d, body: %s", domain.ErrTransport, endpoint, resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
