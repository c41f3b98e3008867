package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	product "github.com/freshbox/freshbox-backend/internal/products"
	"github.com/freshbox/freshbox-backend/internal/pricing"
	"github.com/freshbox/freshbox-backend/internal/schedule"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/google/uuid"
)

const (
	msgCartEmpty     = "Cart is empty"
	msgDatesRequired = "At least one delivery date is required"
	msgLineNotFound  = "cart item not found"
)

type selectionResolver interface {
	ResolveSelection(ctx context.Context, productID uuid.UUID, addonIDs []uuid.UUID) (*product.Selection, error)
}

type dateValidator interface {
	ValidateDates(ctx context.Context, dates []string) ([]time.Time, error)
}

type discountEvaluator interface {
	Evaluate(ctx context.Context, code string, lines []pricing.Line) (*pricing.Evaluation, error)
}

// Service applies cart actions to stored guest carts and prices the result.
type Service interface {
	Get(ctx context.Context, cartID string) (*Quote, error)
	AddItem(ctx context.Context, cartID string, input AddItemInput) (*Quote, error)
	UpdateQuantity(ctx context.Context, cartID, key string, quantity int) (*Quote, error)
	RemoveItem(ctx context.Context, cartID, key string) (*Quote, error)
	ApplyDiscount(ctx context.Context, cartID, code string) (*Quote, error)
	RemoveDiscount(ctx context.Context, cartID string) (*Quote, error)
	Clear(ctx context.Context, cartID string) error
}

// AddItemInput is a storefront add-to-cart request. Prices are never taken
// from the client.
type AddItemInput struct {
	ProductID     uuid.UUID
	AddonIDs      []uuid.UUID
	Quantity      int
	OrderType     enums.OrderType
	DeliveryDates []string
	Notes         *string
}

type service struct {
	store     Store
	catalog   selectionResolver
	dates     dateValidator
	discounts discountEvaluator
}

// NewService wires the cart service.
func NewService(store Store, catalog selectionResolver, dates dateValidator, discounts discountEvaluator) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if dates == nil {
		return nil, fmt.Errorf("date validator required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount evaluator required")
	}
	return &service{store: store, catalog: catalog, dates: dates, discounts: discounts}, nil
}

func (s *service) Get(ctx context.Context, cartID string) (*Quote, error) {
	state, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, cartID, state)
}

func (s *service) AddItem(ctx context.Context, cartID string, input AddItemInput) (*Quote, error) {
	if !input.OrderType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type")
	}
	if len(input.DeliveryDates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgDatesRequired)
	}

	selection, err := s.catalog.ResolveSelection(ctx, input.ProductID, input.AddonIDs)
	if err != nil {
		return nil, err
	}
	if !selection.SupportsOrderType(input.OrderType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s is not available as %s", selection.Product.Name, input.OrderType))
	}

	days, err := s.dates.ValidateDates(ctx, input.DeliveryDates)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(days))
	seen := make(map[string]struct{}, len(days))
	for _, d := range days {
		formatted := schedule.FormatDate(d)
		if _, dup := seen[formatted]; dup {
			continue
		}
		seen[formatted] = struct{}{}
		dates = append(dates, formatted)
	}

	line := lineFromSelection(selection, input.Quantity, input.OrderType, dates)
	if input.Notes != nil {
		if note := strings.TrimSpace(*input.Notes); note != "" {
			line.Notes = &note
		}
	}
	return s.dispatch(ctx, cartID, AddItem{Line: line})
}

func (s *service) UpdateQuantity(ctx context.Context, cartID, key string, quantity int) (*Quote, error) {
	return s.dispatch(ctx, cartID, UpdateQuantity{Key: key, Quantity: quantity})
}

func (s *service) RemoveItem(ctx context.Context, cartID, key string) (*Quote, error) {
	return s.dispatch(ctx, cartID, RemoveItem{Key: key})
}

// ApplyDiscount stores code only when it currently applies to the cart.
func (s *service) ApplyDiscount(ctx context.Context, cartID, code string) (*Quote, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	state, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if state.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgCartEmpty)
	}
	current, _, err := s.reprice(ctx, state)
	if err != nil {
		return nil, err
	}
	if _, err := s.discounts.Evaluate(ctx, code, current.Lines()); err != nil {
		return nil, err
	}
	return s.apply(ctx, cartID, state, ApplyDiscount{Code: code})
}

func (s *service) RemoveDiscount(ctx context.Context, cartID string) (*Quote, error) {
	return s.dispatch(ctx, cartID, RemoveDiscount{})
}

func (s *service) Clear(ctx context.Context, cartID string) error {
	if err := requireCartID(cartID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) dispatch(ctx context.Context, cartID string, action Action) (*Quote, error) {
	state, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, cartID, state, action)
}

func (s *service) apply(ctx context.Context, cartID string, state State, action Action) (*Quote, error) {
	next, err := Reduce(state, action)
	if err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgLineNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply cart action")
	}
	if err := s.store.Save(ctx, cartID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return s.quote(ctx, cartID, next)
}

func (s *service) load(ctx context.Context, cartID string) (State, error) {
	if err := requireCartID(cartID); err != nil {
		return State{}, err
	}
	state, err := s.store.Load(ctx, cartID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return state, nil
}

// quote prices state at current catalog prices, the same prices checkout
// charges. A stored code that no longer applies is reported in DiscountError
// instead of failing the read.
func (s *service) quote(ctx context.Context, cartID string, state State) (*Quote, error) {
	state, unavailable, err := s.reprice(ctx, state)
	if err != nil {
		return nil, err
	}
	q := newQuote(cartID, state)
	q.UnavailableItems = unavailable
	if state.DiscountCode == nil || state.IsEmpty() {
		return q, nil
	}

	eval, err := s.discounts.Evaluate(ctx, *state.DiscountCode, state.Lines())
	if err != nil {
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() == pkgerrors.CodeInternal {
			return nil, err
		}
		msg := typed.Message()
		q.DiscountError = &msg
		return q, nil
	}
	info := eval.Discount
	q.DiscountPence = eval.DiscountPence
	q.TotalPence = eval.TotalPence
	q.Discount = &info
	return q, nil
}

// reprice refreshes each line from the catalog. Lines whose product or
// add-ons can no longer be bought keep their stored prices and are returned
// by key so the storefront can ask the customer to remove them.
func (s *service) reprice(ctx context.Context, state State) (State, []string, error) {
	if state.IsEmpty() {
		return state, nil, nil
	}
	next := state
	next.Items = make([]Line, len(state.Items))
	var unavailable []string
	for i, line := range state.Items {
		next.Items[i] = line
		addonIDs := make([]uuid.UUID, 0, len(line.Addons))
		for _, a := range line.Addons {
			addonIDs = append(addonIDs, a.ID)
		}
		sel, err := s.catalog.ResolveSelection(ctx, line.ProductID, addonIDs)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() == pkgerrors.CodeInternal || typed.Code() == pkgerrors.CodeDependency {
				return State{}, nil, err
			}
			unavailable = append(unavailable, line.Key())
			continue
		}
		if !sel.SupportsOrderType(line.OrderType) {
			unavailable = append(unavailable, line.Key())
			continue
		}
		refreshed := lineFromSelection(sel, line.Quantity, line.OrderType, line.DeliveryDates)
		refreshed.Notes = line.Notes
		next.Items[i] = refreshed
	}
	return next, unavailable, nil
}

func lineFromSelection(sel *product.Selection, quantity int, orderType enums.OrderType, dates []string) Line {
	addons := make([]LineAddon, 0, len(sel.Addons))
	for _, a := range sel.Addons {
		addons = append(addons, LineAddon{ID: a.ID, Name: a.Name, PricePence: a.PricePence})
	}
	return Line{
		ProductID:      sel.Product.ID,
		CategoryID:     sel.Product.CategoryID,
		Name:           sel.Product.Name,
		Slug:           sel.Product.Slug,
		BasePricePence: sel.Product.BasePricePence,
		Addons:         addons,
		Quantity:       pricing.ClampQuantity(quantity),
		OrderType:      orderType,
		DeliveryDates:  dates,
	}
}

func requireCartID(cartID string) error {
	if strings.TrimSpace(cartID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	return nil
}
