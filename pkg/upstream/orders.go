package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
)

const resourceOrders = "orders"

// ListOrders fetches the caller's orders.
func (c *Client) ListOrders(ctx context.Context, token, locale string, query url.Values) (*Paginated[Order], error) {
	var out Paginated[Order]
	err := c.do(ctx, resourceOrders, http.MethodGet, "/orders/", nil, &out,
		withToken(token), withLocale(locale), withQuery(query))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder fetches one order by order number.
func (c *Client) GetOrder(ctx context.Context, token, locale, orderNumber string) (*Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	var out Order
	path := fmt.Sprintf("/orders/%s/", url.PathEscape(orderNumber))
	err := c.do(ctx, resourceOrders, http.MethodGet, path, nil, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder turns the server cart into an order.
func (c *Client) CreateOrder(ctx context.Context, token, locale string, req CreateOrderRequest) (*Order, error) {
	var out Order
	err := c.do(ctx, resourceOrders, http.MethodPost, "/orders/create/", req, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder cancels a pending order.
func (c *Client) CancelOrder(ctx context.Context, token, orderNumber string) (*Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	var out Order
	path := fmt.Sprintf("/orders/%s/cancel/", url.PathEscape(orderNumber))
	err := c.do(ctx, resourceOrders, http.MethodPatch, path, nil, &out, withToken(token))
	if err != nil {
		return nil, err
	}
	return &out, nil
}
