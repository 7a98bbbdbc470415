package receipt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"dompet/internal/logger"
)

// ErrEmptyResponse is returned when the model produces no content.
var ErrEmptyResponse = errors.New("receipt: empty model response")

// Config configures an OpenAI-compatible vision endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIExtractor sends receipt images to a chat completion endpoint and
// parses the JSON answer.
type OpenAIExtractor struct {
	client     *openai.Client
	model      string
	categories CategoryLister
}

// NewOpenAIExtractor builds an extractor. categories may be nil.
func NewOpenAIExtractor(cfg Config, categories CategoryLister) *OpenAIExtractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAIExtractor{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		categories: categories,
	}
}

// Extract implements Extractor.
func (e *OpenAIExtractor) Extract(ctx context.Context, images []Image) (*Proposal, error) {
	var names []string
	if e.categories != nil {
		var err error
		names, err = e.categories.CategoryNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: "Extract the transaction from these images."},
	}
	for _, img := range images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildPrompt(names)},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	logger.Get().Debugw("receipt extraction finished",
		"model", e.model,
		"images", len(images),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return ParseProposal(resp.Choices[0].Message.Content)
}

// ParseProposal decodes a model answer, tolerating markdown code fences.
// A literal null (or {"receipt": null}) yields a nil proposal.
func ParseProposal(content string) (*Proposal, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return nil, ErrEmptyResponse
	}
	if text == "null" {
		return nil, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &envelope); err == nil && len(envelope) == 1 {
		if inner, ok := envelope["receipt"]; ok {
			if strings.TrimSpace(string(inner)) == "null" {
				return nil, nil
			}
			text = string(inner)
		}
	}

	var p Proposal
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("decode proposal: %w", err)
	}
	if p.TotalAmount == nil && len(p.Items) == 0 {
		return nil, nil
	}
	return &p, nil
}

// BuildPrompt renders the extraction instructions for the given category names.
func BuildPrompt(categories []string) string {
	var b strings.Builder
	b.WriteString(`You read receipts and payment proofs. The images may be several pages of one long receipt; merge their items.
Answer with a single JSON object and nothing else, with these keys:
- merchantName: store, merchant or transfer receiver.
- date: transaction date as YYYY-MM-DD.
- totalAmount: total paid, a plain number.
- items: array of {name, qty, unit, price, basePrice, discountType, discountValue, categoryName}.
- fees: array of {name, amount} for delivery, service, packaging and similar charges.
- taxes: array of {name, type, value, amount}, type is PERCENT or NOMINAL.
- discounts: array of {name, type, value, amount} for vouchers, promos and total discounts.

Rules:
1. A QRIS payment proof or transfer receipt that shows only a total and a receiver becomes one item named "`)
	b.WriteString(QRISItemName)
	b.WriteString(`" (or "Transfer to <receiver>") with qty 1 and price equal to the total.
2. Keep item names short: drop sides, options and anything in parentheses.
3. qty defaults to 1 and unit defaults to "pcs".
4. For a discounted line, basePrice is the price before discount, price is the final unit price, discountType is PERCENT or NOMINAL and discountValue is the raw figure (10 for 10%).
5. categoryName must be one of the available categories. Use "Lainnya" when unsure.
6. If the images are not a receipt or payment proof, answer {"receipt": null}.
`)
	if len(categories) > 0 {
		b.WriteString("\nAvailable categories: [")
		b.WriteString(strings.Join(categories, ", "))
		b.WriteString("]\n")
	}
	return b.String()
}
