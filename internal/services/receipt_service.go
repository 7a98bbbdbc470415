package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
	"dompet/internal/models"
	"dompet/internal/money"
	"dompet/internal/receipt"
)

// ProposalItem is an extracted line shaped like a create payload item.
type ProposalItem struct {
	Name          string                 `json:"name"`
	Qty           decimal.Decimal        `json:"qty"`
	Unit          string                 `json:"unit"`
	Price         *money.Amount          `json:"price,omitempty"`
	BasePrice     *money.Amount          `json:"base_price,omitempty"`
	DiscountType  *models.AdjustmentType `json:"discount_type,omitempty"`
	DiscountValue *decimal.Decimal       `json:"discount_value,omitempty"`
	CategoryID    *string                `json:"category_id"`
	CategoryName  string                 `json:"category_name,omitempty"`
}

// ProposalFee is an extracted flat charge.
type ProposalFee struct {
	Name   string       `json:"name"`
	Amount money.Amount `json:"amount"`
}

// ProposalAdjustment is an extracted tax or discount.
type ProposalAdjustment struct {
	Name   string                `json:"name"`
	Type   models.AdjustmentType `json:"type"`
	Value  decimal.Decimal       `json:"value"`
	Amount *money.Amount         `json:"amount,omitempty"`
}

// ReceiptProposal is a suggested transaction for the client to review and
// submit through the regular create endpoint.
type ReceiptProposal struct {
	Type            models.TransactionType `json:"type"`
	MerchantName    string                 `json:"merchant_name"`
	TransactionDate *time.Time             `json:"transaction_date,omitempty"`
	TotalAmount     *money.Amount          `json:"total_amount,omitempty"`
	Items           []ProposalItem         `json:"items"`
	Fees            []ProposalFee          `json:"fees"`
	Taxes           []ProposalAdjustment   `json:"taxes"`
	Discounts       []ProposalAdjustment   `json:"discounts"`
}

// receiptService wraps an Extractor with limits and catalog resolution.
type receiptService struct {
	extractor  receipt.Extractor
	categories CategoryServicer
	maxImages  int
	loc        *time.Location
}

// NewReceiptService creates a ReceiptServicer. A nil extractor makes Scan
// report the feature as unavailable.
func NewReceiptService(extractor receipt.Extractor, categories CategoryServicer, maxImages int, loc *time.Location) ReceiptServicer {
	if maxImages <= 0 {
		maxImages = 5
	}
	if loc == nil {
		loc = time.UTC
	}
	return &receiptService{extractor: extractor, categories: categories, maxImages: maxImages, loc: loc}
}

// Scan extracts a proposal from images and maps category names to catalog ids.
func (s *receiptService) Scan(ctx context.Context, images []receipt.Image) (*ReceiptProposal, error) {
	if s.extractor == nil {
		return nil, apperrors.WithMessage(apperrors.ErrUnavailable, "Receipt scanning is not configured")
	}
	if len(images) == 0 {
		return nil, apperrors.Validation("images", "at least one image is required")
	}
	if len(images) > s.maxImages {
		return nil, apperrors.Validation("images", fmt.Sprintf("at most %d images are allowed", s.maxImages))
	}

	extracted, err := s.extractor.Extract(ctx, images)
	if err != nil {
		logger.Get().Errorw("receipt extraction failed", "error", err, "images", len(images))
		return nil, apperrors.Wrap(apperrors.ErrExtractionFailed, err)
	}
	if extracted == nil {
		return nil, apperrors.ErrNotAReceipt
	}

	catalog, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.Category, len(catalog))
	for _, c := range catalog {
		byName[strings.ToLower(c.Name)] = c
	}
	fallback, hasFallback := byName[strings.ToLower(models.FallbackCategoryName)]

	proposal := &ReceiptProposal{
		Type:         models.TransactionTypeReceipt,
		MerchantName: strings.TrimSpace(extracted.MerchantName),
		TotalAmount:  extracted.TotalAmount,
		Items:        []ProposalItem{},
		Fees:         []ProposalFee{},
		Taxes:        []ProposalAdjustment{},
		Discounts:    []ProposalAdjustment{},
	}
	if extracted.IsPaymentProof() {
		proposal.Type = models.TransactionTypeQRIS
	}
	if d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(extracted.Date), s.loc); err == nil {
		proposal.TransactionDate = &d
	}

	for _, it := range extracted.Items {
		item := ProposalItem{
			Name:      strings.TrimSpace(it.Name),
			Qty:       decimal.NewFromInt(1),
			Unit:      strings.ToLower(strings.TrimSpace(it.Unit)),
			Price:     it.Price,
			BasePrice: it.BasePrice,
		}
		if it.Qty != nil && it.Qty.IsPositive() {
			item.Qty = *it.Qty
		}
		if item.Unit == "" {
			item.Unit = "pcs"
		}
		if t := models.AdjustmentType(strings.ToUpper(it.DiscountType)); t.Valid() && it.DiscountValue != nil {
			item.DiscountType = &t
			item.DiscountValue = it.DiscountValue
		} else {
			item.BasePrice = nil
		}

		if c, ok := byName[strings.ToLower(strings.TrimSpace(it.CategoryName))]; ok {
			item.CategoryID, item.CategoryName = &c.ID, c.Name
		} else if hasFallback {
			item.CategoryID, item.CategoryName = &fallback.ID, fallback.Name
		}
		proposal.Items = append(proposal.Items, item)
	}

	for _, f := range extracted.Fees {
		proposal.Fees = append(proposal.Fees, ProposalFee{Name: strings.TrimSpace(f.Name), Amount: f.Amount})
	}
	proposal.Taxes = appendAdjustments(proposal.Taxes, extracted.Taxes)
	proposal.Discounts = appendAdjustments(proposal.Discounts, extracted.Discounts)

	return proposal, nil
}

// appendAdjustments keeps extracted adjustments, treating an unknown type
// as a nominal amount.
func appendAdjustments(dst []ProposalAdjustment, src []receipt.Adjustment) []ProposalAdjustment {
	for _, a := range src {
		adj := ProposalAdjustment{
			Name:   strings.TrimSpace(a.Name),
			Type:   models.AdjustmentType(strings.ToUpper(a.Type)),
			Value:  a.Value,
			Amount: a.Amount,
		}
		if !adj.Type.Valid() {
			adj.Type = models.AdjustmentNominal
			if a.Amount != nil {
				adj.Value = a.Amount.Decimal()
			}
		}
		dst = append(dst, adj)
	}
	return dst
}
