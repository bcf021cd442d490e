package documents

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// Money rounds half away from zero to two places.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Outstanding returns max(0, total - advance).
func Outstanding(total, advance decimal.Decimal) decimal.Decimal {
	rest := Money(total.Sub(advance))
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// BuildLines prices each input and returns the lines with their subtotal.
func BuildLines(inputs []LineInput) ([]Line, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: at least one line item required", shared.ErrValidation)
	}
	lines := make([]Line, 0, len(inputs))
	subtotal := decimal.Zero
	for i, in := range inputs {
		if strings.TrimSpace(in.Description) == "" {
			return nil, decimal.Zero, fmt.Errorf("%w: line %d description required", shared.ErrValidation, i+1)
		}
		if !in.Quantity.IsPositive() {
			return nil, decimal.Zero, fmt.Errorf("%w: line %d quantity must be positive", shared.ErrValidation, i+1)
		}
		if in.UnitPrice.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("%w: line %d unit price must not be negative", shared.ErrValidation, i+1)
		}
		total := Money(in.Quantity.Mul(in.UnitPrice))
		lines = append(lines, Line{
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			UnitPrice:   Money(in.UnitPrice),
			Total:       total,
		})
		subtotal = subtotal.Add(total)
	}
	return lines, Money(subtotal), nil
}

// Total computes subtotal + tax - discount.
func Total(subtotal, tax, discount decimal.Decimal) (decimal.Decimal, error) {
	if tax.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: tax must not be negative", shared.ErrValidation)
	}
	if discount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: discount must not be negative", shared.ErrValidation)
	}
	total := Money(subtotal.Add(tax).Sub(discount))
	if total.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: discount exceeds subtotal plus tax", shared.ErrValidation)
	}
	return total, nil
}

// derive copies amounts from a predecessor and applies overrides.
func derive(from Header, ov Overrides, allowDiscount bool) (Header, error) {
	h := Header{
		OrderID:  from.OrderID,
		Lines:    append([]Line(nil), from.Lines...),
		Subtotal: from.Subtotal,
		Tax:      from.Tax,
		Discount: from.Discount,
	}
	if len(ov.Lines) > 0 {
		lines, subtotal, err := BuildLines(ov.Lines)
		if err != nil {
			return Header{}, err
		}
		h.Lines = lines
		h.Subtotal = subtotal
	}
	if ov.Tax != nil {
		h.Tax = Money(*ov.Tax)
	}
	if ov.Discount != nil {
		if !allowDiscount && !ov.Discount.IsZero() {
			return Header{}, fmt.Errorf("%w: discount not applicable", shared.ErrValidation)
		}
		h.Discount = Money(*ov.Discount)
	}
	if !allowDiscount {
		h.Discount = decimal.Zero
	}
	total, err := Total(h.Subtotal, h.Tax, h.Discount)
	if err != nil {
		return Header{}, err
	}
	h.Total = total
	return h, nil
}
