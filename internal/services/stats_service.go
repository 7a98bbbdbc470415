package services

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/money"
)

// CategoryTotal is one bucket of the category breakdown. CategoryID is nil
// for items without a category.
type CategoryTotal struct {
	CategoryID *string      `json:"category_id"`
	Name       string       `json:"name"`
	Icon       string       `json:"icon,omitempty"`
	Color      string       `json:"color,omitempty"`
	Total      money.Amount `json:"total"`
}

// DailyTotal is the spend of one calendar day (YYYY-MM-DD in the app timezone).
type DailyTotal struct {
	Date  string       `json:"date"`
	Total money.Amount `json:"total"`
}

// MemberTotal is one family member's spend.
type MemberTotal struct {
	UserID           string       `json:"user_id"`
	Name             string       `json:"name"`
	Total            money.Amount `json:"total"`
	TransactionCount int64        `json:"transaction_count"`
}

// AdjustmentTotals breaks transaction-level adjustments out individually.
type AdjustmentTotals struct {
	Fees      money.Amount `json:"fees"`
	Taxes     money.Amount `json:"taxes"`
	Discounts money.Amount `json:"discounts"`
}

// DashboardView summarizes the current calendar month.
type DashboardView struct {
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	TotalSpent       money.Amount    `json:"total_spent"`
	TransactionCount int64           `json:"transaction_count"`
	Categories       []CategoryTotal `json:"categories"`
	Daily            []DailyTotal    `json:"daily"`
}

// ReportView summarizes an arbitrary range.
type ReportView struct {
	PeriodStart      *time.Time       `json:"period_start,omitempty"`
	PeriodEnd        *time.Time       `json:"period_end,omitempty"`
	TotalSpent       money.Amount     `json:"total_spent"`
	TransactionCount int64            `json:"transaction_count"`
	Categories       []CategoryTotal  `json:"categories"`
	Daily            []DailyTotal     `json:"daily"`
	Members          []MemberTotal    `json:"members,omitempty"`
	Adjustments      AdjustmentTotals `json:"adjustments"`
}

// statsService computes dashboard and report aggregates. Independent
// queries over the same scope run concurrently.
type statsService struct {
	db         *gorm.DB
	compositor *QueryCompositor
	now        func() time.Time
}

// NewStatsService creates a new StatsServicer.
func NewStatsService(db *gorm.DB, compositor *QueryCompositor) StatsServicer {
	return &statsService{db: db, compositor: compositor, now: time.Now}
}

// Dashboard aggregates the requester's (and optionally the family's)
// spending for the current calendar month.
func (s *statsService) Dashboard(ctx context.Context, requesterID string, includeFamily bool) (*DashboardView, error) {
	loc := s.compositor.Location()
	start, end := MonthWindow(s.now(), loc)

	scope, err := s.compositor.Compose(ctx, requesterID, TransactionFilter{
		StartDate:     &start,
		EndDate:       &end,
		IncludeFamily: includeFamily,
	})
	if err != nil {
		return nil, asAppError(err)
	}

	view := &DashboardView{
		PeriodStart: start,
		PeriodEnd:   end,
		Categories:  []CategoryTotal{},
		Daily:       []DailyTotal{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.TotalSpent, view.TransactionCount, err = s.totals(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		view.Categories, err = s.categoryBreakdown(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		view.Daily, err = s.dailySeries(gctx, scope, loc)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return view, nil
}

// Report aggregates an arbitrary range with optional category, item and
// member filters. Without dates the current month is used.
func (s *statsService) Report(ctx context.Context, requesterID string, filter TransactionFilter) (*ReportView, error) {
	loc := s.compositor.Location()
	if filter.StartDate == nil && filter.EndDate == nil {
		start, end := MonthWindow(s.now(), loc)
		filter.StartDate, filter.EndDate = &start, &end
	}
	if filter.StartDate != nil && filter.EndDate != nil && EndOfDay(*filter.EndDate, loc).Before(*filter.StartDate) {
		return nil, apperrors.Validation("end_date", "end date must not be before start date")
	}

	scope, err := s.compositor.Compose(ctx, requesterID, filter)
	if err != nil {
		return nil, asAppError(err)
	}

	view := &ReportView{
		Categories: []CategoryTotal{},
		Daily:      []DailyTotal{},
	}
	if filter.StartDate != nil {
		start := filter.StartDate.In(loc)
		view.PeriodStart = &start
	}
	if filter.EndDate != nil {
		end := EndOfDay(*filter.EndDate, loc)
		view.PeriodEnd = &end
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.TotalSpent, view.TransactionCount, err = s.totals(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		view.Categories, err = s.categoryBreakdown(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		view.Daily, err = s.dailySeries(gctx, scope, loc)
		return err
	})
	g.Go(func() error {
		var err error
		view.Adjustments, err = s.adjustmentTotals(gctx, scope)
		return err
	})
	if scope.FamilyScope {
		g.Go(func() error {
			var err error
			view.Members, err = s.memberBreakdown(gctx, scope)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return view, nil
}

func (s *statsService) totals(ctx context.Context, scope *Scope) (money.Amount, int64, error) {
	if scope.Empty {
		return 0, 0, nil
	}
	var row struct {
		Total money.Amount
		Count int64
	}
	err := scope.Apply(s.db.WithContext(ctx).Table("transactions"), "transactions").
		Select("CAST(COALESCE(SUM(transactions.total_amount), 0) AS BIGINT) AS total, COUNT(*) AS count").
		Scan(&row).Error
	return row.Total, row.Count, err
}

func (s *statsService) categoryBreakdown(ctx context.Context, scope *Scope) ([]CategoryTotal, error) {
	out := []CategoryTotal{}
	if scope.Empty {
		return out, nil
	}

	var rows []struct {
		CategoryID *string
		Name       string
		Icon       string
		Color      string
		Total      money.Amount
	}
	q := s.db.WithContext(ctx).Table("transaction_items").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Joins("LEFT JOIN categories ON categories.id = transaction_items.category_id")
	err := scope.Apply(q, "transactions").
		Select("transaction_items.category_id AS category_id, " +
			"COALESCE(categories.name, '') AS name, " +
			"COALESCE(categories.icon, '') AS icon, " +
			"COALESCE(categories.color, '') AS color, " +
			"CAST(COALESCE(SUM(transaction_items.line_total), 0) AS BIGINT) AS total").
		Group("transaction_items.category_id, categories.name, categories.icon, categories.color").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		out = append(out, CategoryTotal{
			CategoryID: r.CategoryID,
			Name:       r.Name,
			Icon:       r.Icon,
			Color:      r.Color,
			Total:      r.Total,
		})
	}
	return out, nil
}

// dailySeries buckets transaction totals by calendar day in loc. Bucketing
// happens here rather than in SQL so day boundaries follow the app timezone
// on every store.
func (s *statsService) dailySeries(ctx context.Context, scope *Scope, loc *time.Location) ([]DailyTotal, error) {
	out := []DailyTotal{}
	if scope.Empty {
		return out, nil
	}

	var rows []struct {
		TransactionDate time.Time
		TotalAmount     money.Amount
	}
	err := scope.Apply(s.db.WithContext(ctx).Table("transactions"), "transactions").
		Select("transactions.transaction_date, transactions.total_amount").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]money.Amount)
	for _, r := range rows {
		buckets[r.TransactionDate.In(loc).Format("2006-01-02")] += r.TotalAmount
	}
	for day, total := range buckets {
		out = append(out, DailyTotal{Date: day, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *statsService) memberBreakdown(ctx context.Context, scope *Scope) ([]MemberTotal, error) {
	out := []MemberTotal{}
	if scope.Empty {
		return out, nil
	}

	var rows []MemberTotal
	q := s.db.WithContext(ctx).Table("transactions").
		Joins("JOIN users ON users.id = transactions.user_id")
	err := scope.Apply(q, "transactions").
		Select("transactions.user_id AS user_id, users.name AS name, " +
			"CAST(COALESCE(SUM(transactions.total_amount), 0) AS BIGINT) AS total, " +
			"COUNT(*) AS transaction_count").
		Group("transactions.user_id, users.name").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return append(out, rows...), nil
}

func (s *statsService) adjustmentTotals(ctx context.Context, scope *Scope) (AdjustmentTotals, error) {
	var totals AdjustmentTotals
	if scope.Empty {
		return totals, nil
	}

	sum := func(table string, dest *money.Amount) error {
		var row struct{ Total money.Amount }
		q := s.db.WithContext(ctx).Table(table).
			Joins("JOIN transactions ON transactions.id = " + table + ".transaction_id")
		if err := scope.Apply(q, "transactions").
			Select("CAST(COALESCE(SUM(" + table + ".amount), 0) AS BIGINT) AS total").
			Scan(&row).Error; err != nil {
			return err
		}
		*dest = row.Total
		return nil
	}

	if err := sum("transaction_fees", &totals.Fees); err != nil {
		return totals, err
	}
	if err := sum("transaction_taxes", &totals.Taxes); err != nil {
		return totals, err
	}
	if err := sum("transaction_discounts", &totals.Discounts); err != nil {
		return totals, err
	}
	return totals, nil
}
