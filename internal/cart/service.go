package cart

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/peykantravel/peykan-storefront/internal/analytics/payloads"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// backendCart is the slice of the upstream client the cart needs.
type backendCart interface {
	GetCart(ctx context.Context, token, locale string) (*upstream.RemoteCart, error)
	GetCartSummary(ctx context.Context, token, locale string) (*upstream.CartSummary, error)
	GetCartCount(ctx context.Context, token string) (int, error)
	MergeCart(ctx context.Context, token, locale string, items []upstream.AddCartItemRequest) (*upstream.RemoteCart, error)
	ClearCart(ctx context.Context, token string) error
}

type analyticsEmitter interface {
	CartItemAdded(ctx context.Context, event payloads.CartItemAddedEvent)
}

// Session identifies the caller for cart operations. Token is empty
// for anonymous sessions, which operate purely on local state.
type Session struct {
	ID     string
	Token  string
	Locale enums.Locale
}

// Service owns cart state for sessions: local persistence through the
// repository, synchronization against the backend cart resource
// (server wins on conflict), and analytics emission.
type Service struct {
	repo            *Repository
	tx              txRunner
	backend         backendCart
	analytics       analyticsEmitter
	logg            *logger.Logger
	defaultCurrency enums.Currency
}

// NewService builds the cart service.
func NewService(repo *Repository, tx txRunner, backend backendCart, analytics analyticsEmitter, logg *logger.Logger, defaultCurrency enums.Currency) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if !defaultCurrency.IsValid() {
		return nil, fmt.Errorf("invalid default currency %q", defaultCurrency)
	}
	return &Service{
		repo:            repo,
		tx:              tx,
		backend:         backend,
		analytics:       analytics,
		logg:            logg,
		defaultCurrency: defaultCurrency,
	}, nil
}

// Get loads the session's cart, creating an empty one on first touch.
func (s *Service) Get(ctx context.Context, sess Session) (*Cart, error) {
	record, err := s.repo.FindActiveBySession(ctx, sess.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if record == nil {
		return NewCart(sess.ID, s.defaultCurrency), nil
	}
	return cartFromRecord(record), nil
}

// AddItem merges the item into the session's cart, persists it, and
// pushes the change to the backend when authenticated.
func (s *Service) AddItem(ctx context.Context, sess Session, item Item) (*Cart, error) {
	cart, err := s.Get(ctx, sess)
	if err != nil {
		return nil, err
	}

	added, err := cart.AddItem(item)
	if err != nil {
		return nil, err
	}

	if cart, err = s.persistAndSync(ctx, sess, cart); err != nil {
		return nil, err
	}

	if s.analytics != nil {
		s.analytics.CartItemAdded(ctx, payloads.CartItemAddedEvent{
			SessionID:   sess.ID,
			ProductType: added.Kind.String(),
			ProductID:   added.ProductID,
			Title:       added.Title,
			Quantity:    added.Quantity,
			UnitPrice:   added.UnitPrice.String(),
			Currency:    cart.Currency.String(),
			Locale:      sess.Locale.String(),
			AddedAt:     time.Now().UTC(),
		})
	}

	return cart, nil
}

// RemoveItem deletes a line. Removing a missing id leaves the cart
// unchanged and succeeds.
func (s *Service) RemoveItem(ctx context.Context, sess Session, itemID string) (*Cart, error) {
	cart, err := s.Get(ctx, sess)
	if err != nil {
		return nil, err
	}
	before := len(cart.Items)
	cart.RemoveItem(itemID)
	if len(cart.Items) == before {
		return cart, nil
	}
	return s.persistAndSync(ctx, sess, cart)
}

// UpdateQuantity changes a line's quantity. Zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, sess Session, itemID string, quantity int) (*Cart, error) {
	cart, err := s.Get(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := cart.UpdateQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	return s.persistAndSync(ctx, sess, cart)
}

// Clear empties the cart locally and on the backend.
func (s *Service) Clear(ctx context.Context, sess Session) error {
	if err := s.repo.DeleteBySession(ctx, sess.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	if s.backend != nil && sess.Token != "" {
		if err := s.backend.ClearCart(ctx, sess.Token); err != nil {
			// Local clear already happened; backend state will
			// reconcile on the next load.
			s.logWarn(ctx, "clear backend cart", err)
		}
	}
	return nil
}

// Load pulls the backend cart and replaces local state with it.
func (s *Service) Load(ctx context.Context, sess Session) (*Cart, error) {
	if s.backend == nil || sess.Token == "" {
		return s.Get(ctx, sess)
	}
	remote, err := s.backend.GetCart(ctx, sess.Token, sess.Locale.String())
	if err != nil {
		return nil, err
	}
	cart, err := cartFromRemote(sess.ID, remote, s.defaultCurrency)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Save pushes the local cart to the backend. On CONFLICT the backend's
// state is reloaded and replaces local state.
func (s *Service) Save(ctx context.Context, sess Session) (*Cart, error) {
	cart, err := s.Get(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.push(ctx, sess, cart)
}

// Summary proxies the backend totals view for authenticated sessions
// and derives it locally otherwise.
func (s *Service) Summary(ctx context.Context, sess Session) (*upstream.CartSummary, error) {
	if s.backend != nil && sess.Token != "" {
		return s.backend.GetCartSummary(ctx, sess.Token, sess.Locale.String())
	}
	cart, err := s.Get(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &upstream.CartSummary{
		Subtotal:   cart.Subtotal(),
		Total:      cart.Total(),
		TotalItems: cart.TotalItems(),
		Currency:   cart.Currency.String(),
	}, nil
}

// Count returns the cart item count.
func (s *Service) Count(ctx context.Context, sess Session) (int, error) {
	if s.backend != nil && sess.Token != "" {
		return s.backend.GetCartCount(ctx, sess.Token)
	}
	cart, err := s.Get(ctx, sess)
	if err != nil {
		return 0, err
	}
	return cart.TotalItems(), nil
}

// persistAndSync saves locally then pushes to the backend when the
// session is authenticated.
func (s *Service) persistAndSync(ctx context.Context, sess Session, cart *Cart) (*Cart, error) {
	if err := s.persist(ctx, cart); err != nil {
		return nil, err
	}
	if s.backend == nil || sess.Token == "" {
		return cart, nil
	}
	return s.push(ctx, sess, cart)
}

// push merges the local lines into the backend cart. The backend's
// response always replaces local state; on CONFLICT it is refetched
// first. Server wins either way.
func (s *Service) push(ctx context.Context, sess Session, cart *Cart) (*Cart, error) {
	if s.backend == nil || sess.Token == "" {
		return cart, nil
	}

	items := make([]upstream.AddCartItemRequest, 0, len(cart.Items))
	for _, item := range cart.Items {
		req, err := itemToRemoteAdd(item)
		if err != nil {
			return nil, err
		}
		items = append(items, req)
	}

	remote, err := s.backend.MergeCart(ctx, sess.Token, sess.Locale.String(), items)
	if err != nil {
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeConflict {
			return nil, err
		}
		s.logWarn(ctx, "cart conflict, reloading server state", err)
		remote, err = s.backend.GetCart(ctx, sess.Token, sess.Locale.String())
		if err != nil {
			return nil, err
		}
	}

	merged, err := cartFromRemote(sess.ID, remote, s.defaultCurrency)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// persist writes the cart and its items in one transaction.
func (s *Service) persist(ctx context.Context, cart *Cart) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindActiveBySession(ctx, cart.SessionID)
		if err != nil {
			return err
		}

		record := recordFromCart(cart)
		if existing == nil {
			_, err := repo.Create(ctx, record)
			return err
		}

		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		items := record.Items
		record.Items = nil
		if _, err := repo.Update(ctx, record); err != nil {
			return err
		}
		return repo.ReplaceItems(ctx, record.ID, items)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist cart")
	}
	return nil
}

func (s *Service) logWarn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
