package pricing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/types"
)

const (
	msgDiscountUnavailable = "Discount not found or inactive"
	msgDiscountNotEligible = "This discount does not apply to selected products."
	msgMinimumNotMet       = "Minimum order value not met (%s required)"
)

var (
	ErrDiscountUnavailable = errors.New("discount unavailable")
	ErrDiscountNotEligible = errors.New("discount not eligible")
	ErrMinimumNotMet       = errors.New("discount minimum not met")
)

// Discount is the evaluator's view of a stored discount code.
type Discount struct {
	ID            uuid.UUID
	Code          string
	Description   *string
	Type          enums.DiscountType
	Value         int64
	MinOrderPence int64
	MaxCapPence   *int64
	CategoryIDs   []uuid.UUID
	IsActive      bool
}

// DiscountInfo is the public description returned alongside an evaluation.
type DiscountInfo struct {
	ID          uuid.UUID          `json:"id"`
	Code        string             `json:"code"`
	Description *string            `json:"description,omitempty"`
	Type        enums.DiscountType `json:"type"`
	Value       int64              `json:"value"`
	CategoryIDs []uuid.UUID        `json:"categoryIds"`
}

// Evaluation is the outcome of applying a discount to a set of lines.
type Evaluation struct {
	SubtotalPence         int64        `json:"subtotal"`
	EligibleSubtotalPence int64        `json:"eligibleSubtotal"`
	DiscountPence         int64        `json:"discount"`
	TotalPence            int64        `json:"total"`
	Discount              DiscountInfo `json:"discountInfo"`
}

// AppliesTo reports whether the discount covers a category. An empty list
// covers every category.
func (d Discount) AppliesTo(categoryID uuid.UUID) bool {
	if len(d.CategoryIDs) == 0 {
		return true
	}
	for _, id := range d.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

// Info returns the public description of the discount.
func (d Discount) Info() DiscountInfo {
	ids := d.CategoryIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return DiscountInfo{
		ID:          d.ID,
		Code:        d.Code,
		Description: d.Description,
		Type:        d.Type,
		Value:       d.Value,
		CategoryIDs: ids,
	}
}

// EvaluateDiscount applies discount to lines. A nil or inactive discount, a
// cart with no eligible lines, and a subtotal under the minimum each fail with
// their own message.
func EvaluateDiscount(discount *Discount, lines []Line) (Evaluation, error) {
	if discount == nil || !discount.IsActive {
		return Evaluation{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrDiscountUnavailable, msgDiscountUnavailable)
	}

	subtotal := Subtotal(lines)
	var eligible int64
	for _, line := range lines {
		if discount.AppliesTo(line.CategoryID) {
			eligible += LineTotal(line)
		}
	}

	if eligible == 0 {
		return Evaluation{}, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrDiscountNotEligible, msgDiscountNotEligible)
	}
	if subtotal < discount.MinOrderPence {
		msg := fmt.Sprintf(msgMinimumNotMet, types.FormatPounds(discount.MinOrderPence))
		return Evaluation{}, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrMinimumNotMet, msg).
			WithDetails(map[string]any{"minOrder": discount.MinOrderPence, "subtotal": subtotal})
	}

	amount := rawDiscount(*discount, eligible)
	if amount > subtotal {
		amount = subtotal
	}
	if amount < 0 {
		amount = 0
	}

	return Evaluation{
		SubtotalPence:         subtotal,
		EligibleSubtotalPence: eligible,
		DiscountPence:         amount,
		TotalPence:            subtotal - amount,
		Discount:              discount.Info(),
	}, nil
}

func rawDiscount(d Discount, eligible int64) int64 {
	switch d.Type {
	case enums.DiscountTypePercentage:
		amount := eligible * d.Value / 100
		if d.MaxCapPence != nil && *d.MaxCapPence > 0 && amount > *d.MaxCapPence {
			amount = *d.MaxCapPence
		}
		return amount
	case enums.DiscountTypeFixed:
		return d.Value
	default:
		return 0
	}
}
