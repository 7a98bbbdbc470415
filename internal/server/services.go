// Package server assembles services, handlers and middleware into the HTTP API.
package server

import (
	"time"

	"gorm.io/gorm"

	"dompet/internal/events"
	"dompet/internal/receipt"
	"dompet/internal/services"
)

// Services holds every business service the router depends on.
type Services struct {
	Users        services.UserServicer
	Families     services.FamilyServicer
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Stats        services.StatsServicer
	Receipts     services.ReceiptServicer
	Audit        services.AuditServicer
}

// ServiceOptions configures NewServices.
type ServiceOptions struct {
	Location         *time.Location
	Publisher        events.Publisher
	Receipt          receipt.Config
	ReceiptMaxImages int
}

// NewServices wires the services over one database handle. Receipt scanning
// is left unconfigured when no extraction API key is set.
func NewServices(db *gorm.DB, opts ServiceOptions) *Services {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}

	families := services.NewFamilyService(db)
	categories := services.NewCategoryService(db)
	compositor := services.NewQueryCompositor(db, services.NewVisibilityResolver(families), opts.Location)

	var extractor receipt.Extractor
	if opts.Receipt.APIKey != "" {
		extractor = receipt.NewOpenAIExtractor(opts.Receipt, categories)
	}

	return &Services{
		Users:        services.NewUserService(db),
		Families:     families,
		Categories:   categories,
		Transactions: services.NewTransactionService(db, compositor, opts.Publisher),
		Stats:        services.NewStatsService(db, compositor),
		Receipts:     services.NewReceiptService(extractor, categories, opts.ReceiptMaxImages, opts.Location),
		Audit:        services.NewAuditService(db),
	}
}
