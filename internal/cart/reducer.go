package cart

import (
	"errors"
	"strings"
)

// ErrLineNotFound is returned when an action names a key the cart lacks.
var ErrLineNotFound = errors.New("cart line not found")

// Action is a cart mutation understood by Reduce.
type Action interface {
	isAction()
}

// AddItem appends Line or, when a line with the same key exists, adds to its
// quantity.
type AddItem struct{ Line Line }

// RemoveItem drops the line with Key.
type RemoveItem struct{ Key string }

// UpdateQuantity sets the quantity of the line with Key, floored at one.
type UpdateQuantity struct {
	Key      string
	Quantity int
}

// ApplyDiscount remembers a discount code.
type ApplyDiscount struct{ Code string }

// RemoveDiscount forgets the discount code.
type RemoveDiscount struct{}

// Clear empties the cart.
type Clear struct{}

func (AddItem) isAction()        {}
func (RemoveItem) isAction()     {}
func (UpdateQuantity) isAction() {}
func (ApplyDiscount) isAction()  {}
func (RemoveDiscount) isAction() {}
func (Clear) isAction()          {}

// Reduce applies action to state and returns the new state. The input state
// is never modified.
func Reduce(state State, action Action) (State, error) {
	next := State{
		Items:        append([]Line(nil), state.Items...),
		DiscountCode: state.DiscountCode,
	}

	switch a := action.(type) {
	case AddItem:
		line := a.Line
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		key := line.Key()
		for i := range next.Items {
			if next.Items[i].Key() == key {
				next.Items[i].Quantity += line.Quantity
				return next, nil
			}
		}
		next.Items = append(next.Items, line)
		return next, nil

	case RemoveItem:
		idx := indexOf(next.Items, a.Key)
		if idx < 0 {
			return state, ErrLineNotFound
		}
		next.Items = append(next.Items[:idx], next.Items[idx+1:]...)
		return next, nil

	case UpdateQuantity:
		idx := indexOf(next.Items, a.Key)
		if idx < 0 {
			return state, ErrLineNotFound
		}
		qty := a.Quantity
		if qty < 1 {
			qty = 1
		}
		next.Items[idx].Quantity = qty
		return next, nil

	case ApplyDiscount:
		code := strings.ToUpper(strings.TrimSpace(a.Code))
		if code == "" {
			next.DiscountCode = nil
			return next, nil
		}
		next.DiscountCode = &code
		return next, nil

	case RemoveDiscount:
		next.DiscountCode = nil
		return next, nil

	case Clear:
		return State{}, nil

	default:
		return state, errors.New("unknown cart action")
	}
}

func indexOf(items []Line, key string) int {
	for i, item := range items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}
