package controllers

import (
	"net/http"
	"net/url"

	"github.com/peykantravel/peykan-storefront/api/middleware"
	"github.com/peykantravel/peykan-storefront/api/responses"
	"github.com/peykantravel/peykan-storefront/api/validators"
	"github.com/peykantravel/peykan-storefront/internal/session"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

func agentListQuery(r *http.Request) (url.Values, error) {
	query, err := pageQuery(r)
	if err != nil {
		return nil, err
	}
	if from := validators.SanitizeString(r.URL.Query().Get("from"), 10); from != "" {
		query.Set("from", from)
	}
	if to := validators.SanitizeString(r.URL.Query().Get("to"), 10); to != "" {
		query.Set("to", to)
	}
	return query, nil
}

func AgentDashboard(backend *upstream.Client, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := middleware.SessionIDFromContext(ctx)
		var dashboard *upstream.AgentDashboard
		err := sessions.WithUpstreamToken(ctx, sessionID, func(token string) error {
			var callErr error
			dashboard, callErr = backend.AgentDashboardSummary(ctx, token)
			return callErr
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}

func AgentOrdersList(backend *upstream.Client, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := middleware.SessionIDFromContext(ctx)
		query, err := agentListQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var orders *upstream.Paginated[upstream.Order]
		err = sessions.WithUpstreamToken(ctx, sessionID, func(token string) error {
			var callErr error
			orders, callErr = backend.AgentOrders(ctx, token, query)
			return callErr
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func AgentCommissionsList(backend *upstream.Client, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := middleware.SessionIDFromContext(ctx)
		query, err := agentListQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var commissions *upstream.Paginated[upstream.Commission]
		err = sessions.WithUpstreamToken(ctx, sessionID, func(token string) error {
			var callErr error
			commissions, callErr = backend.AgentCommissions(ctx, token, query)
			return callErr
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, commissions)
	}
}
