package cart

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/peykantravel/peykan-storefront/pkg/db/models"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/types"
	"github.com/peykantravel/peykan-storefront/pkg/upstream"
)

func itemToModel(item Item) models.CartItem {
	model := models.CartItem{
		Kind:           item.Kind,
		ProductID:      item.ProductID,
		Title:          item.Title,
		UnitPrice:      item.UnitPrice,
		Currency:       item.Currency,
		Quantity:       item.Quantity,
		Image:          item.Image,
		Duration:       item.Duration,
		Location:       item.Location,
		Date:           item.Date,
		Time:           item.Time,
		VariantName:    item.VariantName,
		TourDetail:     item.Tour,
		EventDetail:    item.Event,
		TransferDetail: item.Transfer,
		Subtotal:       item.Subtotal(),
	}
	if id, err := uuid.Parse(item.ID); err == nil {
		model.ID = id
	}
	return model
}

func itemFromModel(model models.CartItem) Item {
	return Item{
		ID:          model.ID.String(),
		Kind:        model.Kind,
		ProductID:   model.ProductID,
		Title:       model.Title,
		UnitPrice:   model.UnitPrice,
		Currency:    model.Currency,
		Quantity:    model.Quantity,
		Image:       model.Image,
		Duration:    model.Duration,
		Location:    model.Location,
		Date:        model.Date,
		Time:        model.Time,
		VariantName: model.VariantName,
		Tour:        model.TourDetail,
		Event:       model.EventDetail,
		Transfer:    model.TransferDetail,
	}
}

func cartFromRecord(record *models.CartRecord) *Cart {
	cart := &Cart{
		SessionID: record.SessionID,
		Currency:  record.Currency,
	}
	for _, model := range record.Items {
		cart.Items = append(cart.Items, itemFromModel(model))
	}
	return cart
}

func recordFromCart(cart *Cart) *models.CartRecord {
	record := &models.CartRecord{
		SessionID:  cart.SessionID,
		Status:     enums.CartStatusActive,
		Currency:   cart.Currency,
		Subtotal:   cart.Subtotal(),
		Total:      cart.Total(),
		TotalItems: cart.TotalItems(),
	}
	for _, item := range cart.Items {
		record.Items = append(record.Items, itemToModel(item))
	}
	return record
}

// itemFromRemote decodes one backend cart line into the tagged union.
func itemFromRemote(remote upstream.RemoteCartItem, currency enums.Currency) (Item, error) {
	kind, err := enums.ParseProductKind(remote.Kind)
	if err != nil {
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "backend cart line has unknown kind")
	}

	item := Item{
		ID:        remote.ID,
		Kind:      kind,
		ProductID: remote.ProductID,
		Title:     remote.Title,
		UnitPrice: remote.UnitPrice,
		Currency:  currency,
		Quantity:  remote.Quantity,
	}

	switch kind {
	case enums.ProductKindTour:
		detail := &types.TourDetail{}
		if len(remote.Detail) > 0 {
			if err := json.Unmarshal(remote.Detail, detail); err != nil {
				return Item{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode tour detail")
			}
		}
		item.Tour = detail
	case enums.ProductKindEvent:
		detail := &types.EventDetail{}
		if len(remote.Detail) > 0 {
			if err := json.Unmarshal(remote.Detail, detail); err != nil {
				return Item{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode event detail")
			}
		}
		item.Event = detail
	case enums.ProductKindTransfer:
		detail := &types.TransferDetail{}
		if len(remote.Detail) > 0 {
			if err := json.Unmarshal(remote.Detail, detail); err != nil {
				return Item{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode transfer detail")
			}
		}
		item.Transfer = detail
	default:
		return Item{}, pkgerrors.New(pkgerrors.CodeUpstream, fmt.Sprintf("unhandled backend kind %q", remote.Kind))
	}

	return item, nil
}

// itemToRemoteAdd encodes a line for the backend cart API.
func itemToRemoteAdd(item Item) (upstream.AddCartItemRequest, error) {
	var detail any
	switch item.Kind {
	case enums.ProductKindTour:
		detail = item.Tour
	case enums.ProductKindEvent:
		detail = item.Event
	case enums.ProductKindTransfer:
		detail = item.Transfer
	default:
		return upstream.AddCartItemRequest{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unhandled product kind %q", item.Kind))
	}

	raw, err := json.Marshal(detail)
	if err != nil {
		return upstream.AddCartItemRequest{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode item detail")
	}

	return upstream.AddCartItemRequest{
		Kind:      item.Kind.String(),
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Detail:    raw,
	}, nil
}

// cartFromRemote replaces local state with the backend's view.
func cartFromRemote(sessionID string, remote *upstream.RemoteCart, fallback enums.Currency) (*Cart, error) {
	currency := fallback
	if remote.Currency != "" {
		parsed, err := enums.ParseCurrency(remote.Currency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "backend cart has unknown currency")
		}
		currency = parsed
	}

	cart := &Cart{
		SessionID: sessionID,
		Currency:  currency,
	}
	for _, line := range remote.Items {
		item, err := itemFromRemote(line, currency)
		if err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}
