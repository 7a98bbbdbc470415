package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/receipt"
	"dompet/internal/services"
)

const (
	// MaxReceiptImageBytes caps each uploaded page.
	MaxReceiptImageBytes = 5 << 20
	receiptFormField     = "images"
)

var allowedReceiptTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// ReceiptHandler handles receipt uploads.
type ReceiptHandler struct {
	receiptService services.ReceiptServicer
	maxImages      int
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(receiptService services.ReceiptServicer, maxImages int) *ReceiptHandler {
	if maxImages <= 0 {
		maxImages = 5
	}
	return &ReceiptHandler{receiptService: receiptService, maxImages: maxImages}
}

// ScanReceipt extracts a proposed transaction from receipt images
// @Summary     Scan a receipt
// @Description Returns a proposal for review. Nothing is saved until the client submits it as a transaction
// @Tags        receipts
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       images formData file true "Receipt pages (JPEG, PNG, WebP or HEIC, up to 5MB each)"
// @Success     200 {object} services.ReceiptProposal "Proposal"
// @Failure     400 {object} ErrorResponse "Invalid upload"
// @Failure     422 {object} ErrorResponse "Not a receipt"
// @Failure     502 {object} ErrorResponse "Extraction failed"
// @Failure     503 {object} ErrorResponse "Scanning not configured"
// @Router      /receipts/scan [post]
func (h *ReceiptHandler) ScanReceipt(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondWithError(c, apperrors.Validation(receiptFormField, "a multipart form with images is required"))
		return
	}

	files := form.File[receiptFormField]
	if len(files) == 0 {
		files = form.File[receiptFormField+"[]"]
	}
	if len(files) == 0 {
		respondWithError(c, apperrors.Validation(receiptFormField, "at least one image is required"))
		return
	}
	if len(files) > h.maxImages {
		respondWithError(c, apperrors.Validation(receiptFormField, fmt.Sprintf("at most %d images are allowed", h.maxImages)))
		return
	}

	images := make([]receipt.Image, 0, len(files))
	for i, fh := range files {
		img, err := readReceiptImage(fh)
		if err != nil {
			respondWithError(c, apperrors.Validation(fmt.Sprintf("%s[%d]", receiptFormField, i), err.Error()))
			return
		}
		images = append(images, img)
	}

	proposal, err := h.receiptService.Scan(c.Request.Context(), images)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

// readReceiptImage loads one upload, sniffing the type when the client sent none.
func readReceiptImage(fh *multipart.FileHeader) (receipt.Image, error) {
	if fh.Size > MaxReceiptImageBytes {
		return receipt.Image{}, fmt.Errorf("%s is larger than 5MB", fh.Filename)
	}

	f, err := fh.Open()
	if err != nil {
		return receipt.Image{}, fmt.Errorf("could not read %s", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxReceiptImageBytes+1))
	if err != nil {
		return receipt.Image{}, fmt.Errorf("could not read %s", fh.Filename)
	}
	if len(data) > MaxReceiptImageBytes {
		return receipt.Image{}, fmt.Errorf("%s is larger than 5MB", fh.Filename)
	}

	mimeType := strings.ToLower(strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0]))
	if !allowedReceiptTypes[mimeType] {
		mimeType = http.DetectContentType(data)
	}
	if !allowedReceiptTypes[mimeType] {
		return receipt.Image{}, fmt.Errorf("%s is not a supported image type", fh.Filename)
	}
	return receipt.Image{Data: data, MIMEType: mimeType}, nil
}
