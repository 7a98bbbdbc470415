package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/finance"
	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/testutil"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("itemless_transaction_counts_toward_total_only", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		_, err := env.transactions.CreateTransaction(ctx, user.ID, qrisInput(20000, fixedNow))
		testutil.AssertNoError(t, err)

		view, err := env.stats.Dashboard(ctx, user.ID, false)
		testutil.AssertNoError(t, err)

		if view.TotalSpent != money.FromMajor(20000) || view.TransactionCount != 1 {
			t.Errorf("expected 20000 over 1 transaction, got %s over %d", view.TotalSpent, view.TransactionCount)
		}
		if len(view.Categories) != 0 {
			t.Errorf("expected no category buckets, got %+v", view.Categories)
		}
	})

	t.Run("family_total", func(t *testing.T) {
		env := newTestEnv(t)
		alice := testutil.CreateTestUser(t, env.db)
		bob := testutil.CreateTestUser(t, env.db)
		family := testutil.CreateTestFamily(t, env.db, alice)
		testutil.AddTestFamilyMember(t, env.db, family, bob)
		testutil.CreateTestTransaction(t, env.db, alice.ID, money.FromMajor(10000), fixedNow)
		testutil.CreateTestTransaction(t, env.db, bob.ID, money.FromMajor(30000), fixedNow)

		shared, err := env.stats.Dashboard(ctx, alice.ID, true)
		testutil.AssertNoError(t, err)
		if shared.TotalSpent != money.FromMajor(40000) {
			t.Errorf("expected family total 40000, got %s", shared.TotalSpent)
		}

		own, err := env.stats.Dashboard(ctx, alice.ID, false)
		testutil.AssertNoError(t, err)
		if own.TotalSpent != money.FromMajor(10000) {
			t.Errorf("expected own total 10000, got %s", own.TotalSpent)
		}
	})

	t.Run("current_month_only", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		testutil.CreateTestTransaction(t, env.db, user.ID, money.FromMajor(1000), time.Date(2024, 2, 29, 23, 30, 0, 0, jakarta))
		testutil.CreateTestTransaction(t, env.db, user.ID, money.FromMajor(2000), time.Date(2024, 3, 1, 0, 30, 0, 0, jakarta))
		testutil.CreateTestTransaction(t, env.db, user.ID, money.FromMajor(4000), time.Date(2024, 3, 31, 23, 30, 0, 0, jakarta))
		testutil.CreateTestTransaction(t, env.db, user.ID, money.FromMajor(8000), time.Date(2024, 4, 1, 0, 30, 0, 0, jakarta))

		view, err := env.stats.Dashboard(ctx, user.ID, false)
		testutil.AssertNoError(t, err)
		if view.TotalSpent != money.FromMajor(6000) {
			t.Errorf("expected 6000 in March, got %s", view.TotalSpent)
		}
	})

	t.Run("daily_buckets_follow_app_timezone", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		testutil.CreateTestTransaction(t, env.db, user.ID, money.FromMajor(1000), time.Date(2024, 3, 10, 23, 30, 0, 0, jakarta))
		testutil.CreateTestTransaction(t, env.db, user.ID, money.FromMajor(2000), time.Date(2024, 3, 11, 0, 30, 0, 0, jakarta))
		testutil.CreateTestTransaction(t, env.db, user.ID, money.FromMajor(3000), time.Date(2024, 3, 11, 18, 0, 0, 0, jakarta))

		view, err := env.stats.Dashboard(ctx, user.ID, false)
		testutil.AssertNoError(t, err)

		want := []DailyTotal{
			{Date: "2024-03-10", Total: money.FromMajor(1000)},
			{Date: "2024-03-11", Total: money.FromMajor(5000)},
		}
		if len(view.Daily) != len(want) {
			t.Fatalf("expected %d days, got %+v", len(want), view.Daily)
		}
		for i := range want {
			if view.Daily[i] != want[i] {
				t.Errorf("day %d: expected %+v, got %+v", i, want[i], view.Daily[i])
			}
		}
	})

	t.Run("category_breakdown_with_uncategorized_bucket", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		food := testutil.CreateTestCategory(t, env.db, "Food")
		testutil.CreateTestTransactionWithItems(t, env.db, user.ID, fixedNow,
			testutil.TestItem{Name: "Soto", Price: money.FromMajor(20000), CategoryID: &food.ID},
			testutil.TestItem{Name: "Es Teh", Price: money.FromMajor(5000), Qty: 2, CategoryID: &food.ID},
			testutil.TestItem{Name: "Parkir", Price: money.FromMajor(2000)})

		view, err := env.stats.Dashboard(ctx, user.ID, false)
		testutil.AssertNoError(t, err)

		if len(view.Categories) != 2 {
			t.Fatalf("expected 2 buckets, got %+v", view.Categories)
		}
		first := view.Categories[0]
		if first.CategoryID == nil || *first.CategoryID != food.ID || first.Total != money.FromMajor(30000) || first.Name != food.Name {
			t.Errorf("unexpected first bucket %+v", first)
		}
		second := view.Categories[1]
		if second.CategoryID != nil || second.Total != money.FromMajor(2000) {
			t.Errorf("expected uncategorized bucket of 2000, got %+v", second)
		}
	})
}

func TestReport(t *testing.T) {
	ctx := context.Background()

	t.Run("member_breakdown_descending", func(t *testing.T) {
		env := newTestEnv(t)
		alice := testutil.CreateTestUser(t, env.db)
		bob := testutil.CreateTestUser(t, env.db)
		family := testutil.CreateTestFamily(t, env.db, alice)
		testutil.AddTestFamilyMember(t, env.db, family, bob)
		testutil.CreateTestTransaction(t, env.db, alice.ID, money.FromMajor(10000), fixedNow)
		testutil.CreateTestTransaction(t, env.db, bob.ID, money.FromMajor(30000), fixedNow)

		view, err := env.stats.Report(ctx, alice.ID, TransactionFilter{IncludeFamily: true})
		testutil.AssertNoError(t, err)

		if view.TotalSpent != money.FromMajor(40000) {
			t.Errorf("expected 40000, got %s", view.TotalSpent)
		}
		if len(view.Members) != 2 {
			t.Fatalf("expected 2 members, got %+v", view.Members)
		}
		if view.Members[0].UserID != bob.ID || view.Members[0].Total != money.FromMajor(30000) {
			t.Errorf("expected bob first with 30000, got %+v", view.Members[0])
		}
		if view.Members[1].UserID != alice.ID || view.Members[1].Total != money.FromMajor(10000) {
			t.Errorf("expected alice second with 10000, got %+v", view.Members[1])
		}
	})

	t.Run("no_member_breakdown_without_family", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		testutil.CreateTestTransaction(t, env.db, user.ID, money.FromMajor(10000), fixedNow)

		view, err := env.stats.Report(ctx, user.ID, TransactionFilter{IncludeFamily: true})
		testutil.AssertNoError(t, err)
		if view.Members != nil {
			t.Errorf("expected no members, got %+v", view.Members)
		}
	})

	t.Run("defaults_to_current_month", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)

		view, err := env.stats.Report(ctx, user.ID, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if view.PeriodStart == nil || view.PeriodStart.Day() != 1 || view.PeriodStart.Month() != time.March {
			t.Errorf("unexpected period start %v", view.PeriodStart)
		}
		if view.PeriodEnd == nil || view.PeriodEnd.Day() != 31 {
			t.Errorf("unexpected period end %v", view.PeriodEnd)
		}
	})

	t.Run("end_before_start", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		start := time.Date(2024, 3, 10, 0, 0, 0, 0, jakarta)
		end := time.Date(2024, 3, 1, 0, 0, 0, 0, jakarta)

		_, err := env.stats.Report(ctx, user.ID, TransactionFilter{StartDate: &start, EndDate: &end})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		if field := testutil.AppErrorField(err); field != "end_date" {
			t.Errorf("expected field end_date, got %q", field)
		}
	})

	t.Run("end_date_covers_the_whole_day", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		testutil.CreateTestTransaction(t, env.db, user.ID, money.FromMajor(12000), time.Date(2024, 3, 1, 15, 0, 0, 0, jakarta))
		testutil.CreateTestTransaction(t, env.db, user.ID, money.FromMajor(3000), time.Date(2024, 3, 1, 8, 0, 0, 0, jakarta))
		start := time.Date(2024, 3, 1, 10, 0, 0, 0, jakarta)
		end := time.Date(2024, 3, 1, 0, 0, 0, 0, jakarta)

		view, err := env.stats.Report(ctx, user.ID, TransactionFilter{StartDate: &start, EndDate: &end})
		testutil.AssertNoError(t, err)
		if view.TotalSpent != money.FromMajor(12000) || view.TransactionCount != 1 {
			t.Errorf("expected only the afternoon transaction, got %s over %d", view.TotalSpent, view.TransactionCount)
		}
	})

	t.Run("item_filter_without_match_is_zeroed", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		testutil.CreateTestTransactionWithItems(t, env.db, user.ID, fixedNow,
			testutil.TestItem{Name: "Bread", Price: money.FromMajor(1000)})

		view, err := env.stats.Report(ctx, user.ID, TransactionFilter{ItemName: "rice"})
		testutil.AssertNoError(t, err)
		if view.TotalSpent != 0 || view.TransactionCount != 0 || len(view.Categories) != 0 || len(view.Daily) != 0 {
			t.Errorf("expected zeroed report, got %+v", view)
		}
	})

	t.Run("adjustment_totals", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		input := receiptInput(fixedNow, nil)
		input.Discounts = []finance.AdjustmentInput{{
			Name:       "Voucher",
			Adjustment: finance.Adjustment{Type: models.AdjustmentNominal, Value: decimal.NewFromInt(3000)},
		}}
		_, err := env.transactions.CreateTransaction(ctx, user.ID, input)
		testutil.AssertNoError(t, err)

		view, err := env.stats.Report(ctx, user.ID, TransactionFilter{})
		testutil.AssertNoError(t, err)

		want := AdjustmentTotals{
			Fees:      money.FromMajor(5000),
			Taxes:     money.FromMajor(8250),
			Discounts: money.FromMajor(3000),
		}
		if view.Adjustments != want {
			t.Errorf("expected %+v, got %+v", want, view.Adjustments)
		}
	})
}
