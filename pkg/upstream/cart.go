package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
)

const resourceCart = "cart"

// GetCart fetches the full server-side cart.
func (c *Client) GetCart(ctx context.Context, token, locale string) (*RemoteCart, error) {
	var out RemoteCart
	err := c.do(ctx, resourceCart, http.MethodGet, "/cart/", nil, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCartSummary fetches the cart totals only.
func (c *Client) GetCartSummary(ctx context.Context, token, locale string) (*CartSummary, error) {
	var out CartSummary
	err := c.do(ctx, resourceCart, http.MethodGet, "/cart/summary/", nil, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCartCount fetches the item count only.
func (c *Client) GetCartCount(ctx context.Context, token string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.do(ctx, resourceCart, http.MethodGet, "/cart/count/", nil, &out, withToken(token))
	return out.Count, err
}

// AddCartItem adds one line to the server cart and returns the updated cart.
func (c *Client) AddCartItem(ctx context.Context, token, locale string, req AddCartItemRequest) (*RemoteCart, error) {
	var out RemoteCart
	err := c.do(ctx, resourceCart, http.MethodPost, "/cart/add/", req, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCartItem changes one line's quantity on the server cart.
func (c *Client) UpdateCartItem(ctx context.Context, token, locale, itemID string, req UpdateCartItemRequest) (*RemoteCart, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	var out RemoteCart
	path := fmt.Sprintf("/cart/items/%s/update/", url.PathEscape(itemID))
	err := c.do(ctx, resourceCart, http.MethodPut, path, req, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveCartItem deletes one line from the server cart.
func (c *Client) RemoveCartItem(ctx context.Context, token, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	path := fmt.Sprintf("/cart/items/%s/remove/", url.PathEscape(itemID))
	return c.do(ctx, resourceCart, http.MethodDelete, path, nil, nil, withToken(token))
}

// ClearCart empties the server cart.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, resourceCart, http.MethodDelete, "/cart/clear/", nil, nil, withToken(token))
}

// MergeCart pushes locally collected lines into the server cart. The
// backend resolves collisions and returns its own view, which callers
// must treat as authoritative.
func (c *Client) MergeCart(ctx context.Context, token, locale string, items []AddCartItemRequest) (*RemoteCart, error) {
	body := struct {
		Items []AddCartItemRequest `json:"items"`
	}{Items: items}
	var out RemoteCart
	err := c.do(ctx, resourceCart, http.MethodPost, "/cart/merge/", body, &out, withToken(token), withLocale(locale))
	if err != nil {
		return nil, err
	}
	return &out, nil
}
