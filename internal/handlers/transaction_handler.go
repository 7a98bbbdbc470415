package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "dompet/internal/errors"
	"dompet/internal/finance"
	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/pagination"
	"dompet/internal/services"
	"dompet/internal/uuid"
)

// TransactionHandler handles ledger requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
	loc                *time.Location
}

// NewTransactionHandler creates a new TransactionHandler. loc is used for
// dates sent without an offset.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer, loc *time.Location) *TransactionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionHandler{transactionService: transactionService, auditService: auditService, loc: loc}
}

// ItemRequest is one line of a transaction payload. Send either price, or
// base_price with discount_type and discount_value.
type ItemRequest struct {
	Name          string                 `json:"name" binding:"required,max=255"`
	Qty           *decimal.Decimal       `json:"qty"`
	Unit          string                 `json:"unit" binding:"max=16"`
	Price         *money.Amount          `json:"price"`
	BasePrice     *money.Amount          `json:"base_price"`
	DiscountType  *models.AdjustmentType `json:"discount_type" binding:"omitempty,adjustment_type"`
	DiscountValue *decimal.Decimal       `json:"discount_value"`
	CategoryID    *string                `json:"category_id" binding:"omitempty,uuid"`
}

// FeeRequest is a flat charge.
type FeeRequest struct {
	Name   string       `json:"name" binding:"required,max=100"`
	Amount money.Amount `json:"amount"`
}

// AdjustmentRequest is a tax or discount. amount, when sent, must match the
// value computed from type and value.
type AdjustmentRequest struct {
	Name       string                `json:"name" binding:"required,max=100"`
	Type       models.AdjustmentType `json:"type" binding:"required,adjustment_type"`
	Value      decimal.Decimal       `json:"value"`
	Amount     *money.Amount         `json:"amount"`
	BaseAmount *money.Amount         `json:"base_amount"`
}

// TransactionRequest is the create and update payload.
type TransactionRequest struct {
	TotalAmount     *money.Amount          `json:"total_amount"`
	Type            models.TransactionType `json:"type" binding:"required,transaction_type"`
	TransactionDate *string                `json:"transaction_date"`
	MerchantName    string                 `json:"merchant_name" binding:"max=255"`
	Note            string                 `json:"note" binding:"max=500"`
	ImageURL        *string                `json:"image_url" binding:"omitempty,max=2048"`
	RawOCRText      *string                `json:"raw_ocr_text"`
	Items           []ItemRequest          `json:"items" binding:"omitempty,max=200,dive"`
	Fees            []FeeRequest           `json:"fees" binding:"omitempty,max=20,dive"`
	Taxes           []AdjustmentRequest    `json:"taxes" binding:"omitempty,max=20,dive"`
	Discounts       []AdjustmentRequest    `json:"discounts" binding:"omitempty,max=20,dive"`
}

// toInput converts the wire payload into the strict engine input.
func (r *TransactionRequest) toInput(loc *time.Location) (finance.TransactionInput, error) {
	in := finance.TransactionInput{
		TotalAmount:  r.TotalAmount,
		Type:         r.Type,
		MerchantName: r.MerchantName,
		Note:         r.Note,
		ImageURL:     r.ImageURL,
		RawOCRText:   r.RawOCRText,
	}

	if r.TransactionDate != nil && strings.TrimSpace(*r.TransactionDate) != "" {
		t, err := parseFlexibleTime(*r.TransactionDate, loc)
		if err != nil {
			return in, apperrors.Validation("transaction_date", err.Error())
		}
		in.TransactionDate = &t
	}

	for i, it := range r.Items {
		item := finance.ItemInput{
			Name:       it.Name,
			Quantity:   it.Qty,
			Unit:       it.Unit,
			Price:      it.Price,
			BasePrice:  it.BasePrice,
			CategoryID: it.CategoryID,
		}
		switch {
		case it.DiscountType != nil && it.DiscountValue != nil:
			item.Discount = &finance.Adjustment{Type: *it.DiscountType, Value: *it.DiscountValue}
		case it.DiscountType != nil:
			return in, apperrors.Validation(fmt.Sprintf("items[%d].discount_value", i), "discount value is required with a discount type")
		case it.DiscountValue != nil:
			return in, apperrors.Validation(fmt.Sprintf("items[%d].discount_type", i), "discount type is required with a discount value")
		}
		in.Items = append(in.Items, item)
	}

	for _, f := range r.Fees {
		in.Fees = append(in.Fees, finance.FeeInput{Name: f.Name, Amount: f.Amount})
	}
	in.Taxes = toAdjustments(r.Taxes)
	in.Discounts = toAdjustments(r.Discounts)
	return in, nil
}

func toAdjustments(reqs []AdjustmentRequest) []finance.AdjustmentInput {
	var out []finance.AdjustmentInput
	for _, a := range reqs {
		out = append(out, finance.AdjustmentInput{
			Name:       a.Name,
			Adjustment: finance.Adjustment{Type: a.Type, Value: a.Value},
			Amount:     a.Amount,
			BaseAmount: a.BaseAmount,
		})
	}
	return out
}

// parseTransactionFilter reads the query parameters shared by listing and reports.
func parseTransactionFilter(c *gin.Context, loc *time.Location) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("start_date"); v != "" {
		t, err := parseFlexibleTime(v, loc)
		if err != nil {
			return filter, apperrors.Validation("start_date", err.Error())
		}
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := parseFlexibleTime(v, loc)
		if err != nil {
			return filter, apperrors.Validation("end_date", err.Error())
		}
		filter.EndDate = &t
	}
	// end_date covers its whole day, as it does when the query is composed.
	if filter.StartDate != nil && filter.EndDate != nil && services.EndOfDay(*filter.EndDate, loc).Before(*filter.StartDate) {
		return filter, apperrors.Validation("end_date", "end date must not be before start date")
	}

	if v := c.Query("category_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.Validation("category_id", "must be a valid id")
		}
		filter.CategoryID = &v
	}
	if v := c.Query("member_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.Validation("member_id", "must be a valid id")
		}
		filter.MemberID = &v
	}
	filter.ItemName = strings.TrimSpace(c.Query("item_name"))
	filter.IncludeFamily = parseBoolQuery(c, "family")

	return filter, nil
}

// CreateTransaction records a transaction with its items and adjustments
// @Summary     Create a transaction
// @Description Item prices, tax and discount amounts are recomputed and must match any values sent
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	input, err := req.toInput(h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.CreateTransaction(c.Request.Context(), userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditCreateTransaction, "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"type": txn.Type, "total_amount": txn.TotalAmount, "items": len(txn.Items)})

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

// ListTransactions returns visible transactions, newest first
// @Summary     List transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Param       start_date query string false "Inclusive start date"
// @Param       end_date query string false "Inclusive end date (whole day)"
// @Param       category_id query string false "Only transactions with an item in this category"
// @Param       item_name query string false "Only transactions with an item whose name contains this"
// @Param       member_id query string false "Only this family member's transactions"
// @Param       family query bool false "Include family members' transactions"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Page of transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	filter, err := parseTransactionFilter(c, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(c.Request.Context(), userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecentTransactions returns the caller's latest transactions
// @Summary     Recent transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "How many (default 5, max 50)"
// @Success     200 {array} models.Transaction "Transactions"
// @Router      /transactions/recent [get]
func (h *TransactionHandler) RecentTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 {
			respondWithError(c, apperrors.Validation("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	txns, err := h.transactionService.RecentTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// GetTransaction returns one transaction with all its rows
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.GetTransaction(c.Request.Context(), id, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// UpdateTransaction replaces a transaction and all its rows
// @Summary     Update a transaction
// @Description Only the owner may update. Every item, fee, tax and discount is replaced
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body TransactionRequest true "Transaction details"
// @Success     200 {object} models.Transaction "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	input, err := req.toInput(h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.UpdateTransaction(c.Request.Context(), id, userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditUpdateTransaction, "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"type": txn.Type, "total_amount": txn.TotalAmount, "items": len(txn.Items)})

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// DeleteTransaction removes a transaction and all its rows
// @Summary     Delete a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), id, userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditDeleteTransaction, "transaction", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted"})
}
