package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "dompet/internal/errors"
	"dompet/internal/events"
	"dompet/internal/finance"
	"dompet/internal/logger"
	"dompet/internal/models"
	"dompet/internal/pagination"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50
)

// transactionService is the ledger store. Every write runs in a single
// database transaction; events are published only after commit.
type transactionService struct {
	db         *gorm.DB
	resolver   *VisibilityResolver
	compositor *QueryCompositor
	publisher  events.Publisher
	now        func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, compositor *QueryCompositor, publisher events.Publisher) TransactionServicer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &transactionService{
		db:         db,
		resolver:   compositor.resolver,
		compositor: compositor,
		publisher:  publisher,
		now:        time.Now,
	}
}

// CreateTransaction validates input and persists it with all sub-rows.
func (s *transactionService) CreateTransaction(ctx context.Context, ownerID string, input finance.TransactionInput) (*models.Transaction, error) {
	draft, err := finance.BuildDraft(input)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{UserID: ownerID}
	s.applyDraft(txn, draft)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategories(tx, draft.CategoryIDs()); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return insertSubRows(tx, txn.ID, draft)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	s.publish(ctx, events.TransactionCreated, txn)
	return s.load(ctx, txn.ID)
}

// UpdateTransaction replaces the transaction's header and every sub-row.
// Submitting the same input twice leaves the same state.
func (s *transactionService) UpdateTransaction(ctx context.Context, txID, ownerID string, input finance.TransactionInput) (*models.Transaction, error) {
	existing, err := s.authorizeMutation(ctx, txID, ownerID)
	if err != nil {
		return nil, err
	}

	draft, err := finance.BuildDraft(input)
	if err != nil {
		return nil, err
	}
	if draft.TransactionDate == nil {
		// Keep the original date when the update does not state one.
		date := existing.TransactionDate
		draft.TransactionDate = &date
	}

	txn := &models.Transaction{Base: existing.Base, UserID: existing.UserID}
	s.applyDraft(txn, draft)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategories(tx, draft.CategoryIDs()); err != nil {
			return err
		}
		if err := deleteSubRows(tx, txID); err != nil {
			return err
		}

		res := tx.Model(&models.Transaction{}).Where("id = ?", txID).Updates(map[string]interface{}{
			"total_amount":     txn.TotalAmount,
			"type":             txn.Type,
			"transaction_date": txn.TransactionDate,
			"merchant_name":    txn.MerchantName,
			"note":             txn.Note,
			"image_url":        txn.ImageURL,
			"raw_ocr_text":     txn.RawOCRText,
			"updated_at":       s.now().UTC(),
		})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrTransactionNotFound
		}

		return insertSubRows(tx, txID, draft)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	s.publish(ctx, events.TransactionUpdated, txn)
	return s.load(ctx, txID)
}

// DeleteTransaction removes sub-rows first, then the header, atomically.
func (s *transactionService) DeleteTransaction(ctx context.Context, txID, ownerID string) error {
	existing, err := s.authorizeMutation(ctx, txID, ownerID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteSubRows(tx, txID); err != nil {
			return err
		}
		res := tx.Delete(&models.Transaction{}, "id = ?", txID)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrTransactionNotFound
		}
		return nil
	})
	if err != nil {
		return asAppError(err)
	}

	s.publish(ctx, events.TransactionDeleted, existing)
	return nil
}

// GetTransaction returns a transaction the requester may read. Transactions
// outside the requester's visibility are reported as not found.
func (s *transactionService) GetTransaction(ctx context.Context, txID, requesterID string) (*models.Transaction, error) {
	txn, err := s.load(ctx, txID)
	if err != nil {
		return nil, err
	}

	ok, err := s.resolver.CanRead(ctx, txn.UserID, requesterID)
	if err != nil {
		return nil, asAppError(err)
	}
	if !ok {
		return nil, apperrors.ErrTransactionNotFound
	}
	return txn, nil
}

// ListTransactions returns a page of visible transactions, newest first.
func (s *transactionService) ListTransactions(ctx context.Context, requesterID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	scope, err := s.compositor.Compose(ctx, requesterID, filter)
	if err != nil {
		return nil, asAppError(err)
	}
	if scope.Empty {
		result := pagination.Empty[models.Transaction](page)
		return &result, nil
	}

	base := scope.Apply(s.db.WithContext(ctx).Model(&models.Transaction{}), "transactions")

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txns []models.Transaction
	if err := preloadDetails(base.Session(&gorm.Session{})).
		Order("transactions.transaction_date DESC").
		Order("transactions.created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&txns).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(txns, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// RecentTransactions returns the requester's own latest transactions.
func (s *transactionService) RecentTransactions(ctx context.Context, requesterID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	var txns []models.Transaction
	if err := preloadDetails(s.db.WithContext(ctx)).
		Where("user_id = ?", requesterID).
		Order("transaction_date DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txns, nil
}

// authorizeMutation loads the transaction and checks the requester owns it.
// Non-owners who can read it get FORBIDDEN; everyone else gets not found.
func (s *transactionService) authorizeMutation(ctx context.Context, txID, requesterID string) (*models.Transaction, error) {
	var existing models.Transaction
	if err := s.db.WithContext(ctx).First(&existing, "id = ?", txID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.resolver.CanMutate(existing.UserID, requesterID) {
		return &existing, nil
	}

	readable, err := s.resolver.CanRead(ctx, existing.UserID, requesterID)
	if err != nil {
		return nil, asAppError(err)
	}
	if readable {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "Only the owner can modify this transaction")
	}
	return nil, apperrors.ErrTransactionNotFound
}

func (s *transactionService) load(ctx context.Context, txID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := preloadDetails(s.db.WithContext(ctx)).First(&txn, "transactions.id = ?", txID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}

func (s *transactionService) applyDraft(txn *models.Transaction, d *finance.Draft) {
	date := s.now()
	if d.TransactionDate != nil {
		date = *d.TransactionDate
	}
	txn.TotalAmount = d.TotalAmount
	txn.Type = d.Type
	txn.TransactionDate = date.UTC()
	txn.MerchantName = d.MerchantName
	txn.Note = d.Note
	txn.ImageURL = d.ImageURL
	txn.RawOCRText = d.RawOCRText
}

func (s *transactionService) publish(ctx context.Context, eventType events.Type, txn *models.Transaction) {
	event := events.Event{
		Type:            eventType,
		TransactionID:   txn.ID,
		UserID:          txn.UserID,
		TotalAmount:     txn.TotalAmount,
		TransactionDate: txn.TransactionDate,
		OccurredAt:      s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Get().Errorw("failed to publish ledger event",
			"error", err,
			"type", eventType,
			"transaction_id", txn.ID,
		)
	}
}

func preloadDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Category").
		Preload("Fees", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Taxes", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Discounts", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// checkCategories verifies every referenced category exists.
func checkCategories(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var found int64
	if err := tx.Model(&models.Category{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if found != int64(len(ids)) {
		return apperrors.Validation("items.category_id", "one or more categories do not exist")
	}
	return nil
}

func deleteSubRows(tx *gorm.DB, txID string) error {
	for _, model := range []interface{}{
		&models.TransactionItem{},
		&models.TransactionFee{},
		&models.TransactionTax{},
		&models.TransactionDiscount{},
	} {
		if err := tx.Where("transaction_id = ?", txID).Delete(model).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

func insertSubRows(tx *gorm.DB, txID string, d *finance.Draft) error {
	for i := range d.Items {
		d.Items[i].TransactionID = txID
	}
	for i := range d.Fees {
		d.Fees[i].TransactionID = txID
	}
	for i := range d.Taxes {
		d.Taxes[i].TransactionID = txID
	}
	for i := range d.Discounts {
		d.Discounts[i].TransactionID = txID
	}

	if len(d.Items) > 0 {
		if err := tx.Omit(clause.Associations).Create(&d.Items).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if len(d.Fees) > 0 {
		if err := tx.Create(&d.Fees).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if len(d.Taxes) > 0 {
		if err := tx.Create(&d.Taxes).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if len(d.Discounts) > 0 {
		if err := tx.Create(&d.Discounts).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}
