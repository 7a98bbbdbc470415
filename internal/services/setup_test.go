package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"dompet/internal/events"
	"dompet/internal/logger"
	"dompet/internal/testutil"
)

func init() {
	logger.Init("test")
}

// fixedNow is the clock used by ledger tests: mid-month, mid-day in Jakarta.
var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, jakarta)

var jakarta = time.FixedZone("WIB", 7*60*60)

type testEnv struct {
	db           *gorm.DB
	families     FamilyServicer
	categories   CategoryServicer
	resolver     *VisibilityResolver
	compositor   *QueryCompositor
	transactions *transactionService
	stats        *statsService
	recorder     *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	families := NewFamilyService(db)
	resolver := NewVisibilityResolver(families)
	compositor := NewQueryCompositor(db, resolver, jakarta)
	recorder := &events.Recorder{}

	txSvc := NewTransactionService(db, compositor, recorder).(*transactionService)
	txSvc.now = func() time.Time { return fixedNow }
	stats := NewStatsService(db, compositor).(*statsService)
	stats.now = func() time.Time { return fixedNow }

	return &testEnv{
		db:           db,
		families:     families,
		categories:   NewCategoryService(db),
		resolver:     resolver,
		compositor:   compositor,
		transactions: txSvc,
		stats:        stats,
		recorder:     recorder,
	}
}
