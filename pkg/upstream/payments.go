package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
)

const resourcePayments = "payments"

// ListPayments fetches the caller's payments.
func (c *Client) ListPayments(ctx context.Context, token string, query url.Values) (*Paginated[Payment], error) {
	var out Paginated[Payment]
	err := c.do(ctx, resourcePayments, http.MethodGet, "/payments/", nil, &out,
		withToken(token), withQuery(query))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPayment fetches one payment by id.
func (c *Client) GetPayment(ctx context.Context, token, paymentID string) (*Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	var out Payment
	path := fmt.Sprintf("/payments/%s/", url.PathEscape(paymentID))
	err := c.do(ctx, resourcePayments, http.MethodGet, path, nil, &out, withToken(token))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePayment starts a payment for an order. The backend owns the
// processor handoff; we only relay the method and return URL.
func (c *Client) CreatePayment(ctx context.Context, token string, req CreatePaymentRequest) (*Payment, error) {
	var out Payment
	err := c.do(ctx, resourcePayments, http.MethodPost, "/payments/create/", req, &out, withToken(token))
	if err != nil {
		return nil, err
	}
	return &out, nil
}
