package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"
	"sync"
	"sync/atomic"
	"text/template"

	"github.com/kiwari-pos/tablepos/internal/enum"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultColumns fits a 2-inch roll.
const DefaultColumns = 32

const margin = 8

var (
	ErrTemplateNotMounted = errors.New("no layout mounted for document kind")
	ErrRenderFailed       = errors.New("render document")
)

// Renderer turns a Document into a bitmap.
type Renderer interface {
	RenderDocument(ctx context.Context, doc Document) (image.Image, error)
}

// BitmapRenderer executes the layout mounted for a document kind and
// rasterizes the text with a fixed-width bitmap font.
//
// Layouts live on an off-screen stage. The stage is visible only while a
// capture is running and is hidden again on every exit path.
type BitmapRenderer struct {
	columns int
	logger  *zap.Logger

	layoutsMu sync.RWMutex
	layouts   map[string]*template.Template

	capture sync.Mutex
	visible atomic.Bool
}

// NewBitmapRenderer creates a renderer with the invoice and KOT layouts
// mounted.
func NewBitmapRenderer(columns int, logger *zap.Logger) *BitmapRenderer {
	if columns <= 0 {
		columns = DefaultColumns
	}
	r := &BitmapRenderer{
		columns: columns,
		logger:  logger,
		layouts: make(map[string]*template.Template),
	}
	r.layouts[enum.DocumentInvoice] = template.Must(r.parse(enum.DocumentInvoice, invoiceLayout))
	r.layouts[enum.DocumentKOT] = template.Must(r.parse(enum.DocumentKOT, kotLayout))
	return r
}

func (r *BitmapRenderer) parse(kind, text string) (*template.Template, error) {
	return template.New(kind).Funcs(layoutFuncs(r.columns)).Parse(text)
}

// MountText parses text as the layout for kind, replacing any existing one.
func (r *BitmapRenderer) MountText(kind, text string) error {
	t, err := r.parse(kind, text)
	if err != nil {
		return fmt.Errorf("parse %s layout: %w", kind, err)
	}
	r.Mount(kind, t)
	return nil
}

// Mount installs a prepared template as the layout for kind.
func (r *BitmapRenderer) Mount(kind string, t *template.Template) {
	r.layoutsMu.Lock()
	r.layouts[kind] = t
	r.layoutsMu.Unlock()
}

// Unmount removes the layout for kind.
func (r *BitmapRenderer) Unmount(kind string) {
	r.layoutsMu.Lock()
	delete(r.layouts, kind)
	r.layoutsMu.Unlock()
}

// Visible reports whether a capture is in progress.
func (r *BitmapRenderer) Visible() bool {
	return r.visible.Load()
}

// Columns is the character width of the layouts.
func (r *BitmapRenderer) Columns() int {
	return r.columns
}

// RenderDocument captures the layout for doc.Kind as a grayscale bitmap.
func (r *BitmapRenderer) RenderDocument(ctx context.Context, doc Document) (img image.Image, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.layoutsMu.RLock()
	t, ok := r.layouts[doc.Kind]
	r.layoutsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotMounted, doc.Kind)
	}

	r.capture.Lock()
	defer r.capture.Unlock()

	r.visible.Store(true)
	defer func() {
		r.visible.Store(false)
		if rec := recover(); rec != nil {
			r.logger.Error("render panic",
				zap.String("kind", doc.Kind),
				zap.Any("panic", rec))
			img = nil
			err = fmt.Errorf("%w: %v", ErrRenderFailed, rec)
		}
	}()

	var buf bytes.Buffer
	if err := t.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return r.rasterize(buf.String()), nil
}

func (r *BitmapRenderer) rasterize(text string) *image.Gray {
	face := basicfont.Face7x13
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	width := r.columns*face.Advance + 2*margin
	height := len(lines)*face.Height + 2*margin
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.Black, Face: face}
	for i, ln := range lines {
		d.Dot = fixed.P(margin, margin+i*face.Height+face.Ascent)
		d.DrawString(clip(ln, r.columns))
	}
	return img
}
