// Package finance turns a transaction payload into consistent ledger rows.
//
// Everything here is pure: no storage, no clock. The entry point is
// BuildDraft, which validates a strictly typed TransactionInput once and
// derives per-item net prices, adjustment amounts and the proposed total.
package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/money"
)

// DefaultUnit is applied to items that do not state a unit.
const DefaultUnit = "pcs"

// QuantityPlaces is the number of decimal places a quantity may carry.
const QuantityPlaces = 3

// MaxQuantity is the largest quantity the item table can store.
var MaxQuantity = decimal.RequireFromString("999999999.999")

// Adjustment describes a percentage or nominal reduction or surcharge.
type Adjustment struct {
	Type  models.AdjustmentType
	Value decimal.Decimal
}

// ItemInput is one line as supplied by a caller (manual entry or receipt proposal).
type ItemInput struct {
	Name       string
	Quantity   *decimal.Decimal
	Unit       string
	Price      *money.Amount
	BasePrice  *money.Amount
	Discount   *Adjustment
	CategoryID *string
}

// FeeInput is a flat transaction-level charge.
type FeeInput struct {
	Name   string
	Amount money.Amount
}

// AdjustmentInput is a transaction-level tax or discount. Amount, when
// supplied, is checked against the recomputed value. BaseAmount overrides the
// base a percentage applies to.
type AdjustmentInput struct {
	Name       string
	Adjustment Adjustment
	Amount     *money.Amount
	BaseAmount *money.Amount
}

// TransactionInput is the validated-once boundary representation of a
// create or update payload.
type TransactionInput struct {
	TotalAmount     *money.Amount
	Type            models.TransactionType
	TransactionDate *time.Time
	MerchantName    string
	Note            string
	ImageURL        *string
	RawOCRText      *string
	Items           []ItemInput
	Fees            []FeeInput
	Taxes           []AdjustmentInput
	Discounts       []AdjustmentInput
}

// Draft is the engine's output: rows ready to persist plus the figures they were derived from.
type Draft struct {
	Type            models.TransactionType
	TotalAmount     money.Amount
	ComputedTotal   money.Amount
	Subtotal        money.Amount
	TransactionDate *time.Time
	MerchantName    string
	Note            string
	ImageURL        *string
	RawOCRText      *string

	Items     []models.TransactionItem
	Fees      []models.TransactionFee
	Taxes     []models.TransactionTax
	Discounts []models.TransactionDiscount
}

// CategoryIDs returns the distinct category ids referenced by the draft's items.
func (d *Draft) CategoryIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, it := range d.Items {
		if it.CategoryID == nil {
			continue
		}
		if _, ok := seen[*it.CategoryID]; ok {
			continue
		}
		seen[*it.CategoryID] = struct{}{}
		ids = append(ids, *it.CategoryID)
	}
	return ids
}

// ComputeAdjustmentAmount returns the amount a discount removes from base.
// PERCENT rounds base*value/100 to minor units, NOMINAL takes value as is.
// The result is clamped to [0, base] so it can never push a price below zero.
func ComputeAdjustmentAmount(base money.Amount, adj Adjustment) money.Amount {
	ceiling := base
	if ceiling < 0 {
		ceiling = 0
	}
	return rawAmount(base, adj).Clamp(0, ceiling)
}

// ComputeItemNet returns the final unit price of an item after its discount.
func ComputeItemNet(base money.Amount, discount *Adjustment) (money.Amount, error) {
	if discount == nil {
		return base, nil
	}
	if !discount.Type.Valid() {
		return 0, apperrors.Validation("discount_type", "discount type must be PERCENT or NOMINAL")
	}
	if discount.Value.IsNegative() {
		return 0, apperrors.Validation("discount_value", "discount value must not be negative")
	}
	net := base - ComputeAdjustmentAmount(base, *discount)
	if net < 0 {
		net = 0
	}
	return net, nil
}

// rawAmount applies an adjustment without the discount ceiling; taxes use it directly.
func rawAmount(base money.Amount, adj Adjustment) money.Amount {
	var amount money.Amount
	if adj.Type == models.AdjustmentPercent {
		amount = base.Percent(adj.Value)
	} else {
		amount = money.FromDecimal(adj.Value)
	}
	if amount < 0 {
		return 0
	}
	return amount
}

// BuildDraft validates in and derives every computed figure. A declared
// TotalAmount is kept as is; the computed total only fills in when the
// caller declared none.
func BuildDraft(in TransactionInput) (*Draft, error) {
	if !in.Type.Valid() {
		return nil, apperrors.Validation("type", "type must be one of RECEIPT, QRIS, MANUAL")
	}

	d := &Draft{
		Type:            in.Type,
		TransactionDate: in.TransactionDate,
		MerchantName:    strings.TrimSpace(in.MerchantName),
		Note:            strings.TrimSpace(in.Note),
		ImageURL:        in.ImageURL,
		RawOCRText:      in.RawOCRText,
	}

	for i, item := range in.Items {
		row, err := buildItem(i, item)
		if err != nil {
			return nil, err
		}
		d.Items = append(d.Items, *row)
		d.Subtotal += row.LineTotal
	}

	var feeTotal money.Amount
	for i, fee := range in.Fees {
		field := fmt.Sprintf("fees[%d]", i)
		name := strings.TrimSpace(fee.Name)
		if name == "" {
			return nil, apperrors.Validation(field+".name", "name is required")
		}
		if fee.Amount < 0 {
			return nil, apperrors.Validation(field+".amount", "fee amount must not be negative")
		}
		d.Fees = append(d.Fees, models.TransactionFee{Name: name, Amount: fee.Amount, Position: i})
		feeTotal += fee.Amount
	}

	defaultBase := d.Subtotal
	if len(d.Items) == 0 && in.TotalAmount != nil {
		defaultBase = *in.TotalAmount
	}

	var taxTotal money.Amount
	for i, tax := range in.Taxes {
		amount, name, err := buildAdjustment(fmt.Sprintf("taxes[%d]", i), tax, defaultBase, false)
		if err != nil {
			return nil, err
		}
		d.Taxes = append(d.Taxes, models.TransactionTax{
			Name: name, Type: tax.Adjustment.Type, Value: tax.Adjustment.Value, Amount: amount, Position: i,
		})
		taxTotal += amount
	}

	var discountTotal money.Amount
	for i, disc := range in.Discounts {
		amount, name, err := buildAdjustment(fmt.Sprintf("discounts[%d]", i), disc, defaultBase, true)
		if err != nil {
			return nil, err
		}
		d.Discounts = append(d.Discounts, models.TransactionDiscount{
			Name: name, Type: disc.Adjustment.Type, Value: disc.Adjustment.Value, Amount: amount, Position: i,
		})
		discountTotal += amount
	}

	d.ComputedTotal = d.Subtotal + feeTotal + taxTotal - discountTotal
	if d.ComputedTotal < 0 {
		d.ComputedTotal = 0
	}
	if d.ComputedTotal > money.Max {
		return nil, apperrors.Validation("total_amount", "computed total is out of range")
	}

	switch {
	case in.TotalAmount != nil:
		if *in.TotalAmount <= 0 {
			return nil, apperrors.Validation("total_amount", "total amount must be greater than zero")
		}
		d.TotalAmount = *in.TotalAmount
	case d.ComputedTotal > 0:
		d.TotalAmount = d.ComputedTotal
	default:
		return nil, apperrors.Validation("total_amount", "total amount is required when it cannot be derived from items")
	}

	return d, nil
}

func buildItem(i int, in ItemInput) (*models.TransactionItem, error) {
	field := fmt.Sprintf("items[%d]", i)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation(field+".name", "name is required")
	}

	qty := decimal.NewFromInt(1)
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if !qty.IsPositive() {
		return nil, apperrors.Validation(field+".qty", "quantity must be greater than zero")
	}
	if !qty.Equal(qty.Truncate(QuantityPlaces)) {
		return nil, apperrors.Validation(field+".qty", fmt.Sprintf("quantity must have at most %d decimal places", QuantityPlaces))
	}
	if qty.GreaterThan(MaxQuantity) {
		return nil, apperrors.Validation(field+".qty", "quantity must not exceed "+MaxQuantity.String())
	}

	unit := strings.ToLower(strings.TrimSpace(in.Unit))
	if unit == "" {
		unit = DefaultUnit
	}

	row := &models.TransactionItem{
		CategoryID: in.CategoryID,
		Name:       name,
		Quantity:   qty,
		Unit:       unit,
		Position:   i,
	}

	if in.Discount != nil {
		if in.BasePrice == nil {
			return nil, apperrors.Validation(field+".base_price", "base price is required when a discount is applied")
		}
		if *in.BasePrice < 0 {
			return nil, apperrors.Validation(field+".base_price", "base price must not be negative")
		}
		net, err := ComputeItemNet(*in.BasePrice, in.Discount)
		if err != nil {
			appErr := err.(*apperrors.AppError)
			return nil, apperrors.Validation(field+"."+appErr.Field, appErr.Message)
		}
		if in.Price != nil && !money.Within(*in.Price, net) {
			return nil, apperrors.Validation(field+".price",
				fmt.Sprintf("price does not match base price after discount (expected %s)", net))
		}
		base := *in.BasePrice
		discType := in.Discount.Type
		row.Price = net
		row.BasePrice = &base
		row.DiscountType = &discType
		row.DiscountValue = decimal.NewNullDecimal(in.Discount.Value)
	} else {
		if in.Price == nil {
			return nil, apperrors.Validation(field+".price", "price is required")
		}
		// Raw prices may be negative for manual corrections.
		row.Price = *in.Price
	}

	line, err := row.Price.Mul(qty)
	if err != nil {
		return nil, apperrors.Validation(field+".price", "price times quantity is out of range")
	}
	row.LineTotal = line
	return row, nil
}

func buildAdjustment(field string, in AdjustmentInput, defaultBase money.Amount, isDiscount bool) (money.Amount, string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, "", apperrors.Validation(field+".name", "name is required")
	}
	if !in.Adjustment.Type.Valid() {
		return 0, "", apperrors.Validation(field+".type", "type must be PERCENT or NOMINAL")
	}
	if in.Adjustment.Value.IsNegative() {
		return 0, "", apperrors.Validation(field+".value", "value must not be negative")
	}

	base := defaultBase
	if in.BaseAmount != nil {
		base = *in.BaseAmount
	}

	var amount money.Amount
	if isDiscount {
		amount = ComputeAdjustmentAmount(base, in.Adjustment)
	} else {
		amount = rawAmount(base, in.Adjustment)
	}

	if in.Amount != nil && !money.Within(*in.Amount, amount) {
		return 0, "", apperrors.Validation(field+".amount",
			fmt.Sprintf("amount does not match %s of %s (expected %s)", in.Adjustment.Type, in.Adjustment.Value, amount))
	}
	return amount, name, nil
}
