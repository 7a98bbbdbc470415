// Package receipt extracts a proposed transaction from receipt or payment
// proof images. A proposal is only a suggestion: it is never persisted
// without going through the same validation as manual entry.
package receipt

import (
	"context"

	"github.com/shopspring/decimal"

	"dompet/internal/money"
)

// QRISItemName is the single item proposed for payment proofs that carry no line items.
const QRISItemName = "Pembayaran dengan QRIS"

// Image is one uploaded page of a receipt.
type Image struct {
	Data     []byte
	MIMEType string
}

// Item is an extracted line. Prices are final unit prices; BasePrice and the
// discount fields are present only for discounted lines.
type Item struct {
	Name          string           `json:"name"`
	Qty           *decimal.Decimal `json:"qty"`
	Unit          string           `json:"unit"`
	Price         *money.Amount    `json:"price"`
	BasePrice     *money.Amount    `json:"basePrice"`
	DiscountType  string           `json:"discountType"`
	DiscountValue *decimal.Decimal `json:"discountValue"`
	CategoryName  string           `json:"categoryName"`
}

// Fee is an extracted flat charge.
type Fee struct {
	Name   string       `json:"name"`
	Amount money.Amount `json:"amount"`
}

// Adjustment is an extracted transaction-level tax or discount.
type Adjustment struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Value  decimal.Decimal `json:"value"`
	Amount *money.Amount   `json:"amount"`
}

// Proposal is what the extractor read off the images.
type Proposal struct {
	MerchantName string        `json:"merchantName"`
	Date         string        `json:"date"`
	TotalAmount  *money.Amount `json:"totalAmount"`
	Items        []Item        `json:"items"`
	Fees         []Fee         `json:"fees"`
	Taxes        []Adjustment  `json:"taxes"`
	Discounts    []Adjustment  `json:"discounts"`
}

// IsPaymentProof reports whether the proposal is a bare payment proof
// (QRIS or transfer) rather than an itemised receipt.
func (p *Proposal) IsPaymentProof() bool {
	return len(p.Items) == 1 && p.Items[0].Name == QRISItemName
}

// Extractor reads receipt images. A nil proposal with a nil error means the
// images are not a receipt or payment proof.
type Extractor interface {
	Extract(ctx context.Context, images []Image) (*Proposal, error)
}

// CategoryLister supplies the category names offered to the extractor.
type CategoryLister interface {
	CategoryNames(ctx context.Context) ([]string, error)
}
