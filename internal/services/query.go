package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
)

// Scope is the resolved predicate over transactions shared by listing,
// dashboard and report queries.
type Scope struct {
	OwnerIDs []string
	Start    *time.Time
	End      *time.Time

	// TransactionIDs restricts the scope to transactions found by the item
	// stage. Nil means no item filter was requested.
	TransactionIDs []string

	// Empty is set when the item stage matched nothing; callers must return
	// an empty result without querying further.
	Empty bool

	// FamilyScope is true when the owner set came from family membership.
	FamilyScope bool
}

// Apply adds the scope's WHERE clauses to db, qualifying columns with table.
func (s *Scope) Apply(db *gorm.DB, table string) *gorm.DB {
	if s.Empty {
		return db.Where("1 = 0")
	}

	col := func(name string) string { return table + "." + name }

	db = db.Where(col("user_id")+" IN ?", s.OwnerIDs)
	if s.Start != nil {
		db = db.Where(col("transaction_date")+" >= ?", *s.Start)
	}
	if s.End != nil {
		db = db.Where(col("transaction_date")+" <= ?", *s.End)
	}
	if s.TransactionIDs != nil {
		db = db.Where(col("id")+" IN ?", s.TransactionIDs)
	}
	return db
}

// QueryCompositor turns a requester and a TransactionFilter into a Scope.
type QueryCompositor struct {
	db       *gorm.DB
	resolver *VisibilityResolver
	loc      *time.Location
}

// NewQueryCompositor creates a compositor. loc is the calendar used to
// extend end dates to the end of their day.
func NewQueryCompositor(db *gorm.DB, resolver *VisibilityResolver, loc *time.Location) *QueryCompositor {
	if loc == nil {
		loc = time.UTC
	}
	return &QueryCompositor{db: db, resolver: resolver, loc: loc}
}

// Location returns the compositor's calendar.
func (q *QueryCompositor) Location() *time.Location {
	return q.loc
}

// Compose resolves filter for requester.
func (q *QueryCompositor) Compose(ctx context.Context, requester string, filter TransactionFilter) (*Scope, error) {
	owners, err := q.resolver.ResolveOwnerSet(ctx, requester, filter.IncludeFamily)
	if err != nil {
		return nil, err
	}

	scope := &Scope{
		OwnerIDs:    owners,
		FamilyScope: filter.IncludeFamily && len(owners) > 1,
	}

	if filter.MemberID != nil && *filter.MemberID != "" {
		member := *filter.MemberID
		ok, err := q.isFamilyMember(ctx, requester, member)
		if err != nil {
			return nil, err
		}
		// Members outside the requester's family are ignored, not rejected.
		if ok {
			scope.OwnerIDs = []string{member}
		}
	}

	if filter.StartDate != nil {
		start := filter.StartDate.UTC()
		scope.Start = &start
	}
	if filter.EndDate != nil {
		end := EndOfDay(*filter.EndDate, q.loc).UTC()
		scope.End = &end
	}

	itemName := strings.TrimSpace(filter.ItemName)
	hasCategory := filter.CategoryID != nil && *filter.CategoryID != ""
	if itemName == "" && !hasCategory {
		return scope, nil
	}

	stage := q.db.WithContext(ctx).
		Model(&models.TransactionItem{}).
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.user_id IN ?", scope.OwnerIDs)
	if itemName != "" {
		stage = stage.Where("LOWER(transaction_items.name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(itemName))+"%")
	}
	if hasCategory {
		stage = stage.Where("transaction_items.category_id = ?", *filter.CategoryID)
	}

	var ids []string
	if err := stage.Distinct().Pluck("transaction_items.transaction_id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(ids) == 0 {
		scope.Empty = true
		return scope, nil
	}
	scope.TransactionIDs = ids
	return scope, nil
}

func (q *QueryCompositor) isFamilyMember(ctx context.Context, requester, member string) (bool, error) {
	if member == requester {
		return true, nil
	}
	familyID, err := q.resolver.FamilyOf(ctx, requester)
	if err != nil || familyID == nil {
		return false, err
	}
	memberFamilyID, err := q.resolver.FamilyOf(ctx, member)
	if err != nil {
		return false, err
	}
	return memberFamilyID != nil && *memberFamilyID == *familyID, nil
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// MonthWindow returns the first and last instant of t's calendar month in loc.
func MonthWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, _ := t.In(loc).Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	end := EndOfDay(start.AddDate(0, 1, -1), loc)
	return start, end
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s safe to embed in a LIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
