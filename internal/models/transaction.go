package models

import (
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/money"
)

// TransactionType represents how a transaction was captured.
type TransactionType string

const (
	TransactionTypeReceipt TransactionType = "RECEIPT"
	TransactionTypeQRIS    TransactionType = "QRIS"
	TransactionTypeManual  TransactionType = "MANUAL"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeReceipt, TransactionTypeQRIS, TransactionTypeManual:
		return true
	}
	return false
}

// AdjustmentType says how an adjustment value is applied.
type AdjustmentType string

const (
	AdjustmentPercent AdjustmentType = "PERCENT"
	AdjustmentNominal AdjustmentType = "NOMINAL"
)

// Valid reports whether t is a known adjustment type.
func (t AdjustmentType) Valid() bool {
	return t == AdjustmentPercent || t == AdjustmentNominal
}

// Transaction is one purchase or payment event, owned by the user who
// created it. TotalAmount is the user-declared total and is authoritative.
type Transaction struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	TotalAmount     money.Amount    `gorm:"type:bigint;not null" json:"total_amount"`
	Type            TransactionType `gorm:"size:16;not null" json:"type"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	MerchantName    string          `gorm:"size:255" json:"merchant_name,omitempty"`
	Note            string          `gorm:"size:500" json:"note,omitempty"`
	ImageURL        *string         `json:"image_url,omitempty"`
	RawOCRText      *string         `gorm:"column:raw_ocr_text" json:"raw_ocr_text,omitempty"`

	User      *User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items     []TransactionItem     `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items"`
	Fees      []TransactionFee      `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"fees"`
	Taxes     []TransactionTax      `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"taxes"`
	Discounts []TransactionDiscount `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"discounts"`
}

// TransactionItem is a line of a transaction. Price is the final unit price,
// net of any item discount; BasePrice and the discount descriptor are only
// set when a discount applies. LineTotal is Price x Quantity rounded to
// minor units and is what category breakdowns add up.
type TransactionItem struct {
	Base
	TransactionID string              `gorm:"type:uuid;not null;index" json:"transaction_id"`
	CategoryID    *string             `gorm:"type:uuid;index" json:"category_id"`
	Name          string              `gorm:"size:255;not null" json:"name"`
	Quantity      decimal.Decimal     `gorm:"type:decimal(12,3);not null" json:"qty"`
	Unit          string              `gorm:"size:16;not null;default:'pcs'" json:"unit"`
	Price         money.Amount        `gorm:"type:bigint;not null" json:"price"`
	BasePrice     *money.Amount       `gorm:"type:bigint" json:"base_price,omitempty"`
	DiscountType  *AdjustmentType     `gorm:"size:16" json:"discount_type,omitempty"`
	DiscountValue decimal.NullDecimal `gorm:"type:decimal(15,4)" json:"discount_value,omitempty"`
	LineTotal     money.Amount        `gorm:"type:bigint;not null" json:"line_total"`
	Position      int                 `gorm:"not null;default:0" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
}

// TransactionFee is a flat transaction-level charge (delivery, service, packaging).
type TransactionFee struct {
	Base
	TransactionID string       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Name          string       `gorm:"size:100;not null" json:"name"`
	Amount        money.Amount `gorm:"type:bigint;not null" json:"amount"`
	Position      int          `gorm:"not null;default:0" json:"-"`
}

// TransactionTax is a transaction-level tax whose Amount is derived from Type and Value.
type TransactionTax struct {
	Base
	TransactionID string          `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Type          AdjustmentType  `gorm:"size:16;not null" json:"type"`
	Value         decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"value"`
	Amount        money.Amount    `gorm:"type:bigint;not null" json:"amount"`
	Position      int             `gorm:"not null;default:0" json:"-"`
}

// TransactionDiscount is a transaction-level discount whose Amount is derived from Type and Value.
type TransactionDiscount struct {
	Base
	TransactionID string          `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Type          AdjustmentType  `gorm:"size:16;not null" json:"type"`
	Value         decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"value"`
	Amount        money.Amount    `gorm:"type:bigint;not null" json:"amount"`
	Position      int             `gorm:"not null;default:0" json:"-"`
}
