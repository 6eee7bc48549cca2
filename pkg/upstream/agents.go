package upstream

import (
	"context"
	"net/http"
	"net/url"
)

const resourceAgents = "agents"

// AgentDashboardSummary fetches the agent home summary.
func (c *Client) AgentDashboardSummary(ctx context.Context, token string) (*AgentDashboard, error) {
	var out AgentDashboard
	err := c.do(ctx, resourceAgents, http.MethodGet, "/agents/dashboard/", nil, &out, withToken(token))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AgentOrders fetches the orders booked through the agent.
func (c *Client) AgentOrders(ctx context.Context, token string, query url.Values) (*Paginated[Order], error) {
	var out Paginated[Order]
	err := c.do(ctx, resourceAgents, http.MethodGet, "/agents/orders/", nil, &out,
		withToken(token), withQuery(query))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AgentCommissions fetches the agent's earned commissions.
func (c *Client) AgentCommissions(ctx context.Context, token string, query url.Values) (*Paginated[Commission], error) {
	var out Paginated[Commission]
	err := c.do(ctx, resourceAgents, http.MethodGet, "/agents/commissions/", nil, &out,
		withToken(token), withQuery(query))
	if err != nil {
		return nil, err
	}
	return &out, nil
}
