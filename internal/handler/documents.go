package handler

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/enum"
	mw "github.com/kiwari-pos/tablepos/internal/middleware"
	"github.com/kiwari-pos/tablepos/internal/receipt"
	"go.uber.org/zap"
)

// InvoiceMailer emails a rendered invoice.
// Satisfied by *receipt.Mailer.
type InvoiceMailer interface {
	SendInvoice(to string, doc receipt.Document, pdf []byte) error
}

// DocumentOptions configures printed output.
type DocumentOptions struct {
	RestaurantName string
	PrinterDots    int
	WidthMM        float64
}

// DocumentHandler renders invoices and kitchen order tickets.
type DocumentHandler struct {
	carts    CartProvider
	renderer receipt.Renderer
	mailer   InvoiceMailer
	opts     DocumentOptions
	now      func() time.Time
	logger   *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler. mailer may be nil, in
// which case the email endpoint answers 501.
func NewDocumentHandler(carts CartProvider, renderer receipt.Renderer, mailer InvoiceMailer, opts DocumentOptions, logger *zap.Logger) *DocumentHandler {
	if opts.PrinterDots <= 0 {
		opts.PrinterDots = receipt.DefaultPrinterDots
	}
	if opts.WidthMM <= 0 {
		opts.WidthMM = receipt.DefaultWidthMM
	}
	return &DocumentHandler{
		carts:    carts,
		renderer: renderer,
		mailer:   mailer,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// RegisterRoutes registers document endpoints on the given Chi router.
// Expected to be mounted inside a table-scoped subrouter: /restaurants/{rid}/tables/{tid}
func (h *DocumentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/documents/{kind}", h.Render)
	r.Post("/documents/invoice/email", h.EmailInvoice)
}

type emailInvoiceRequest struct {
	Email       string `json:"email"`
	PaymentType string `json:"payment_type"`
}

// Render returns the document as PNG or PDF.
//
// view=print scales the bitmap to the printer head and serves it as an
// attachment; view=preview serves the unscaled bitmap inline.
func (h *DocumentHandler) Render(w http.ResponseWriter, r *http.Request) {
	kind, err := receipt.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	q := r.URL.Query()
	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = enum.DocumentFormatPNG
	}
	if format != enum.DocumentFormatPNG && format != enum.DocumentFormatPDF {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be png or pdf"})
		return
	}
	view := strings.ToLower(q.Get("view"))
	if view == "" {
		view = "preview"
	}
	if view != "preview" && view != "print" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "view must be print or preview"})
		return
	}
	paymentType, ok := parseDocumentPaymentType(q.Get("payment_type"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_type"})
		return
	}

	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}
	doc, ok := h.document(w, store, kind)
	if !ok {
		return
	}
	doc.PaymentType = paymentType

	img, err := h.renderer.RenderDocument(r.Context(), doc)
	if err != nil {
		h.renderError(w, doc, err)
		return
	}
	if view == "print" {
		img = receipt.ScaleToWidth(img, h.opts.PrinterDots)
	}

	body, contentType, err := h.encode(img, format)
	if err != nil {
		h.renderError(w, doc, err)
		return
	}
	mw.DocumentsRendered.WithLabelValues(kind, format).Inc()

	disposition := "inline"
	if view == "print" {
		disposition = "attachment"
	}
	filename := fmt.Sprintf("%s-%s.%s", strings.ToLower(kind), doc.TableID, format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// EmailInvoice renders the invoice as PDF and mails it.
func (h *DocumentHandler) EmailInvoice(w http.ResponseWriter, r *http.Request) {
	if h.mailer == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "email is not configured"})
		return
	}

	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}

	var req emailInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}
	paymentType, ok := parseDocumentPaymentType(req.PaymentType)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_type"})
		return
	}

	doc, ok := h.document(w, store, enum.DocumentInvoice)
	if !ok {
		return
	}
	doc.PaymentType = paymentType

	img, err := h.renderer.RenderDocument(r.Context(), doc)
	if err != nil {
		h.renderError(w, doc, err)
		return
	}
	pdf, err := receipt.ExportPDF(receipt.ScaleToWidth(img, h.opts.PrinterDots), h.opts.WidthMM)
	if err != nil {
		h.renderError(w, doc, err)
		return
	}
	mw.DocumentsRendered.WithLabelValues(doc.Kind, enum.DocumentFormatPDF).Inc()

	if err := h.mailer.SendInvoice(req.Email, doc, pdf); err != nil {
		if errors.Is(err, receipt.ErrInvalidEmail) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Error("send invoice email", zap.String("table", store.Key().String()), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to send invoice email"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// --- Helpers ---

func (h *DocumentHandler) document(w http.ResponseWriter, store *cart.Store, kind string) (receipt.Document, bool) {
	snap := store.Snapshot()
	if snap.IsEmpty() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
		return receipt.Document{}, false
	}
	return receipt.FromSnapshot(kind, h.opts.RestaurantName, snap, h.now()), true
}

func (h *DocumentHandler) encode(img image.Image, format string) ([]byte, string, error) {
	if format == enum.DocumentFormatPDF {
		b, err := receipt.ExportPDF(img, h.opts.WidthMM)
		return b, "application/pdf", err
	}
	b, err := receipt.EncodePNG(img)
	return b, "image/png", err
}

func (h *DocumentHandler) renderError(w http.ResponseWriter, doc receipt.Document, err error) {
	h.logger.Error("render document",
		zap.String("kind", doc.Kind),
		zap.String("table", doc.TableID),
		zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to render document"})
}

// parseDocumentPaymentType accepts an empty value or a single payment type.
func parseDocumentPaymentType(s string) (string, bool) {
	switch pt := strings.ToUpper(s); pt {
	case "", enum.PaymentTypeCash, enum.PaymentTypeCard, enum.PaymentTypeUPI, enum.PaymentTypeDue, enum.PaymentTypeSplit:
		return pt, true
	}
	return "", false
}
