package finance

import (
	"testing"

	"github.com/shopspring/decimal"

	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/testutil"
)

func amt(major int64) *money.Amount {
	a := money.FromMajor(major)
	return &a
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func qty(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func percent(v string) *Adjustment {
	return &Adjustment{Type: models.AdjustmentPercent, Value: dec(v)}
}

func nominal(v string) *Adjustment {
	return &Adjustment{Type: models.AdjustmentNominal, Value: dec(v)}
}

func TestComputeAdjustmentAmount(t *testing.T) {
	tests := []struct {
		name string
		base money.Amount
		adj  Adjustment
		want money.Amount
	}{
		{"percent", money.FromMajor(50000), *percent("10"), money.FromMajor(5000)},
		{"percent_rounds_half_up", 5, *percent("50"), 3},
		{"nominal", money.FromMajor(50000), *nominal("7500"), money.FromMajor(7500)},
		{"nominal_clamped_to_base", money.FromMajor(1000), *nominal("5000"), money.FromMajor(1000)},
		{"percent_over_hundred_clamped", money.FromMajor(1000), *percent("150"), money.FromMajor(1000)},
		{"negative_base_yields_zero", money.FromMajor(-1000), *nominal("10"), 0},
		{"zero_value", money.FromMajor(1000), *percent("0"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeAdjustmentAmount(tt.base, tt.adj); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestComputeItemNet(t *testing.T) {
	t.Run("percent_discount", func(t *testing.T) {
		net, err := ComputeItemNet(money.FromMajor(50000), percent("10"))
		testutil.AssertNoError(t, err)
		if net != money.FromMajor(45000) {
			t.Errorf("expected 45000.00, got %s", net)
		}
	})

	t.Run("no_discount_returns_base", func(t *testing.T) {
		net, err := ComputeItemNet(money.FromMajor(1200), nil)
		testutil.AssertNoError(t, err)
		if net != money.FromMajor(1200) {
			t.Errorf("expected 1200.00, got %s", net)
		}
	})

	t.Run("never_below_zero", func(t *testing.T) {
		net, err := ComputeItemNet(money.FromMajor(1000), nominal("999999"))
		testutil.AssertNoError(t, err)
		if net != 0 {
			t.Errorf("expected 0, got %s", net)
		}
	})

	t.Run("invalid_type", func(t *testing.T) {
		_, err := ComputeItemNet(money.FromMajor(1000), &Adjustment{Type: "HALF", Value: dec("1")})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_value", func(t *testing.T) {
		_, err := ComputeItemNet(money.FromMajor(1000), percent("-5"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestBuildDraft(t *testing.T) {
	t.Run("discounted_item_price_is_derived", func(t *testing.T) {
		d, err := BuildDraft(TransactionInput{
			Type: models.TransactionTypeReceipt,
			Items: []ItemInput{
				{Name: "Coffee", BasePrice: amt(50000), Discount: percent("10")},
			},
		})
		testutil.AssertNoError(t, err)

		item := d.Items[0]
		if item.Price != money.FromMajor(45000) {
			t.Errorf("expected price 45000.00, got %s", item.Price)
		}
		if item.BasePrice == nil || *item.BasePrice != money.FromMajor(50000) {
			t.Errorf("expected base price 50000.00, got %v", item.BasePrice)
		}
		if item.Unit != DefaultUnit {
			t.Errorf("expected default unit %q, got %q", DefaultUnit, item.Unit)
		}
		if !item.Quantity.Equal(decimal.NewFromInt(1)) {
			t.Errorf("expected default qty 1, got %s", item.Quantity)
		}
		if d.TotalAmount != money.FromMajor(45000) {
			t.Errorf("expected derived total 45000.00, got %s", d.TotalAmount)
		}
	})

	t.Run("matching_caller_price_accepted", func(t *testing.T) {
		price := money.FromMajor(45000) + 1
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeReceipt,
			Items: []ItemInput{{Name: "Coffee", Price: &price, BasePrice: amt(50000), Discount: percent("10")}},
		})
		testutil.AssertNoError(t, err)
	})

	t.Run("inconsistent_caller_price_rejected", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeReceipt,
			Items: []ItemInput{{Name: "Coffee", Price: amt(40000), BasePrice: amt(50000), Discount: percent("10")}},
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		assertField(t, err, "items[0].price")
	})

	t.Run("discount_without_base_price", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeManual,
			Items: []ItemInput{{Name: "Tea", Price: amt(100), Discount: nominal("10")}},
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		assertField(t, err, "items[0].base_price")
	})

	t.Run("invalid_discount_type_names_item", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeManual,
			Items: []ItemInput{{Name: "Tea", BasePrice: amt(100), Discount: &Adjustment{Type: "BOGO"}}},
		})
		assertField(t, err, "items[0].discount_type")
	})

	t.Run("undiscounted_item_keeps_raw_price_and_drops_base", func(t *testing.T) {
		d, err := BuildDraft(TransactionInput{
			Type:        models.TransactionTypeManual,
			TotalAmount: amt(500),
			Items: []ItemInput{
				{Name: "Refund adj", Price: amt(-200), BasePrice: amt(999)},
				{Name: "Bread", Price: amt(350), Quantity: qty("2")},
			},
		})
		testutil.AssertNoError(t, err)
		if d.Items[0].Price != money.FromMajor(-200) {
			t.Errorf("expected raw negative price, got %s", d.Items[0].Price)
		}
		if d.Items[0].BasePrice != nil {
			t.Error("expected base price to be dropped without a discount")
		}
		if d.Subtotal != money.FromMajor(500) {
			t.Errorf("expected subtotal 500.00, got %s", d.Subtotal)
		}
	})

	t.Run("fractional_quantity_line_total", func(t *testing.T) {
		d, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeReceipt,
			Items: []ItemInput{{Name: "Beef", Price: amt(120000), Quantity: qty("0.355"), Unit: " KG "}},
		})
		testutil.AssertNoError(t, err)
		if d.Items[0].LineTotal != money.FromMajor(42600) {
			t.Errorf("expected line total 42600.00, got %s", d.Items[0].LineTotal)
		}
		if d.Items[0].Unit != "kg" {
			t.Errorf("expected unit kg, got %q", d.Items[0].Unit)
		}
	})

	t.Run("zero_quantity_rejected", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeManual,
			Items: []ItemInput{{Name: "Milk", Price: amt(100), Quantity: qty("0")}},
		})
		assertField(t, err, "items[0].qty")
	})

	t.Run("quantity_beyond_three_decimals_rejected", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeReceipt,
			Items: []ItemInput{{Name: "Beef", Price: amt(120000), Quantity: qty("0.3555")}},
		})
		assertField(t, err, "items[0].qty")
	})

	t.Run("quantity_trailing_zeros_accepted", func(t *testing.T) {
		d, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeReceipt,
			Items: []ItemInput{{Name: "Beef", Price: amt(100), Quantity: qty("1.50000")}},
		})
		testutil.AssertNoError(t, err)
		if d.Items[0].LineTotal != money.FromMajor(150) {
			t.Errorf("expected line total 150.00, got %s", d.Items[0].LineTotal)
		}
	})

	t.Run("quantity_above_column_range_rejected", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeReceipt,
			Items: []ItemInput{{Name: "Rice", Price: amt(1), Quantity: qty("1000000000")}},
		})
		assertField(t, err, "items[0].qty")
	})

	t.Run("largest_quantity_accepted", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeReceipt,
			Items: []ItemInput{{Name: "Rice", Price: amt(1), Quantity: qty("999999999.999")}},
		})
		testutil.AssertNoError(t, err)
	})

	t.Run("line_total_overflow_rejected", func(t *testing.T) {
		price := money.Max
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeReceipt,
			Items: []ItemInput{{Name: "Gold", Price: &price, Quantity: qty("999999999")}},
		})
		assertField(t, err, "items[0].price")
	})

	t.Run("computed_total_overflow_rejected", func(t *testing.T) {
		price := money.Max
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeReceipt,
			Items: []ItemInput{{Name: "Gold", Price: &price}, {Name: "Silver", Price: &price}},
		})
		assertField(t, err, "total_amount")
	})

	t.Run("missing_item_name", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeManual,
			Items: []ItemInput{{Name: "  ", Price: amt(100)}},
		})
		assertField(t, err, "items[0].name")
	})

	t.Run("undiscounted_item_requires_price", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeManual,
			Items: []ItemInput{{Name: "Milk"}},
		})
		assertField(t, err, "items[0].price")
	})

	t.Run("invalid_type", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{Type: "CASH", TotalAmount: amt(10)})
		assertField(t, err, "type")
	})

	t.Run("declared_total_is_authoritative", func(t *testing.T) {
		d, err := BuildDraft(TransactionInput{
			Type:        models.TransactionTypeReceipt,
			TotalAmount: amt(99000),
			Items:       []ItemInput{{Name: "Rice", Price: amt(60000)}},
			Fees:        []FeeInput{{Name: "Delivery", Amount: money.FromMajor(10000)}},
		})
		testutil.AssertNoError(t, err)
		if d.TotalAmount != money.FromMajor(99000) {
			t.Errorf("expected declared total to stand, got %s", d.TotalAmount)
		}
		if d.ComputedTotal != money.FromMajor(70000) {
			t.Errorf("expected computed total 70000.00, got %s", d.ComputedTotal)
		}
	})

	t.Run("qris_without_items", func(t *testing.T) {
		d, err := BuildDraft(TransactionInput{Type: models.TransactionTypeQRIS, TotalAmount: amt(20000)})
		testutil.AssertNoError(t, err)
		if d.TotalAmount != money.FromMajor(20000) || len(d.Items) != 0 {
			t.Errorf("unexpected draft: total=%s items=%d", d.TotalAmount, len(d.Items))
		}
	})

	t.Run("zero_declared_total", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{Type: models.TransactionTypeQRIS, TotalAmount: amt(0)})
		assertField(t, err, "total_amount")
	})

	t.Run("no_total_and_nothing_to_derive", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{Type: models.TransactionTypeManual})
		assertField(t, err, "total_amount")
	})

	t.Run("adjustments_over_item_subtotal", func(t *testing.T) {
		d, err := BuildDraft(TransactionInput{
			Type: models.TransactionTypeReceipt,
			Items: []ItemInput{
				{Name: "Nasi", Price: amt(25000), Quantity: qty("2")},
				{Name: "Es teh", Price: amt(5000), Quantity: qty("2")},
			},
			Fees:      []FeeInput{{Name: "Service", Amount: money.FromMajor(2000)}},
			Taxes:     []AdjustmentInput{{Name: "PB1", Adjustment: *percent("10")}},
			Discounts: []AdjustmentInput{{Name: "Promo", Adjustment: *nominal("15000"), Amount: amt(15000)}},
		})
		testutil.AssertNoError(t, err)
		if d.Subtotal != money.FromMajor(60000) {
			t.Errorf("expected subtotal 60000.00, got %s", d.Subtotal)
		}
		if d.Taxes[0].Amount != money.FromMajor(6000) {
			t.Errorf("expected tax 6000.00, got %s", d.Taxes[0].Amount)
		}
		if d.Discounts[0].Amount != money.FromMajor(15000) {
			t.Errorf("expected discount 15000.00, got %s", d.Discounts[0].Amount)
		}
		if d.ComputedTotal != money.FromMajor(53000) {
			t.Errorf("expected computed total 53000.00, got %s", d.ComputedTotal)
		}
		if d.TotalAmount != d.ComputedTotal {
			t.Errorf("expected total to fall back to computed total, got %s", d.TotalAmount)
		}
	})

	t.Run("explicit_base_amount", func(t *testing.T) {
		d, err := BuildDraft(TransactionInput{
			Type:        models.TransactionTypeReceipt,
			TotalAmount: amt(100000),
			Items:       []ItemInput{{Name: "Shoes", Price: amt(100000)}},
			Discounts:   []AdjustmentInput{{Name: "Member", Adjustment: *percent("5"), BaseAmount: amt(40000)}},
		})
		testutil.AssertNoError(t, err)
		if d.Discounts[0].Amount != money.FromMajor(2000) {
			t.Errorf("expected 2000.00 off the stated base, got %s", d.Discounts[0].Amount)
		}
	})

	t.Run("percent_tax_without_items_uses_declared_total", func(t *testing.T) {
		d, err := BuildDraft(TransactionInput{
			Type:        models.TransactionTypeQRIS,
			TotalAmount: amt(20000),
			Taxes:       []AdjustmentInput{{Name: "VAT", Adjustment: *percent("11")}},
		})
		testutil.AssertNoError(t, err)
		if d.Taxes[0].Amount != money.FromMajor(2200) {
			t.Errorf("expected 2200.00, got %s", d.Taxes[0].Amount)
		}
	})

	t.Run("inconsistent_tax_amount_rejected", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:  models.TransactionTypeReceipt,
			Items: []ItemInput{{Name: "Rice", Price: amt(10000)}},
			Taxes: []AdjustmentInput{{Name: "VAT", Adjustment: *percent("10"), Amount: amt(2000)}},
		})
		assertField(t, err, "taxes[0].amount")
	})

	t.Run("negative_fee_rejected", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:        models.TransactionTypeQRIS,
			TotalAmount: amt(100),
			Fees:        []FeeInput{{Name: "Admin", Amount: -1}},
		})
		assertField(t, err, "fees[0].amount")
	})

	t.Run("negative_discount_value_rejected", func(t *testing.T) {
		_, err := BuildDraft(TransactionInput{
			Type:        models.TransactionTypeQRIS,
			TotalAmount: amt(100),
			Discounts:   []AdjustmentInput{{Name: "Odd", Adjustment: *nominal("-5")}},
		})
		assertField(t, err, "discounts[0].value")
	})

	t.Run("discounts_floor_computed_total", func(t *testing.T) {
		d, err := BuildDraft(TransactionInput{
			Type:        models.TransactionTypeManual,
			TotalAmount: amt(1),
			Items:       []ItemInput{{Name: "Gift", Price: amt(1000)}},
			Discounts: []AdjustmentInput{
				{Name: "A", Adjustment: *nominal("800")},
				{Name: "B", Adjustment: *nominal("800")},
			},
		})
		testutil.AssertNoError(t, err)
		if d.ComputedTotal != 0 {
			t.Errorf("expected computed total floored at 0, got %s", d.ComputedTotal)
		}
	})

	t.Run("category_ids_are_distinct", func(t *testing.T) {
		food := "cat-food"
		d, err := BuildDraft(TransactionInput{
			Type: models.TransactionTypeReceipt,
			Items: []ItemInput{
				{Name: "A", Price: amt(1), CategoryID: &food},
				{Name: "B", Price: amt(1), CategoryID: &food},
				{Name: "C", Price: amt(1)},
			},
		})
		testutil.AssertNoError(t, err)
		if ids := d.CategoryIDs(); len(ids) != 1 || ids[0] != food {
			t.Errorf("unexpected category ids %v", ids)
		}
	})
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	testutil.AssertAppError(t, err, "INVALID_INPUT")
	if got := testutil.AppErrorField(err); got != field {
		t.Errorf("expected field %q, got %q", field, got)
	}
}
