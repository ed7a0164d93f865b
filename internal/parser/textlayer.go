package parser

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"exam-extract/internal/models"
)

const (
	defaultXTolerance = 3.0
	defaultFontSize   = 10.0
	// share of the font size hanging below the baseline
	descentRatio = 0.2
	// advance per rune, as a share of the font size, for fonts without /Widths
	estimatedAdvanceRatio = 0.5
)

// PageHalves holds the words of one page split at the horizontal midpoint.
// Coordinates stay relative to the whole page.
type PageHalves struct {
	Width  float64
	Height float64
	Left   []models.WordToken
	Right  []models.WordToken
}

// Document is the text layer of an open PDF.
type Document struct {
	file       *os.File
	reader     *pdf.Reader
	xTolerance float64
	yTolerance float64
}

// OpenDocument opens the PDF at path for text extraction. The tolerances
// decide when consecutive glyphs belong to the same word.
func OpenDocument(path string, xTolerance, yTolerance float64) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if xTolerance <= 0 {
		xTolerance = defaultXTolerance
	}
	if yTolerance <= 0 {
		yTolerance = defaultYTolerance
	}
	return &Document{file: f, reader: r, xTolerance: xTolerance, yTolerance: yTolerance}, nil
}

func (d *Document) Close() error {
	return d.file.Close()
}

func (d *Document) NumPage() int {
	return d.reader.NumPage()
}

// PageHalves extracts the words of the 1-based page pageNum.
func (d *Document) PageHalves(pageNum int) (halves PageHalves, err error) {
	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return halves, fmt.Errorf("page %d: %w", pageNum, models.ErrNoTextLayer)
	}

	// the pdf package panics on malformed content streams
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: reading content: %v", pageNum, r)
		}
	}()

	box := mediaBox(page.V)
	halves.Width = box.Width()
	halves.Height = box.Height()
	if halves.Width <= 0 || halves.Height <= 0 {
		return halves, fmt.Errorf("page %d: invalid media box %v", pageNum, box)
	}

	left, right := SplitGlyphs(page.Content().Text, box.llx+halves.Width/2)
	halves.Left = AssembleWords(left, box, d.xTolerance, d.yTolerance)
	halves.Right = AssembleWords(right, box, d.xTolerance, d.yTolerance)
	return halves, nil
}

// PageBoxes returns the media box and the visible crop box of the 1-based
// page pageNum. The crop box is clipped to the media box and falls back to
// it when missing or empty.
func (d *Document) PageBoxes(pageNum int) (media, crop MediaBox, err error) {
	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return media, crop, fmt.Errorf("page %d: %w", pageNum, models.ErrNoTextLayer)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: reading page boxes: %v", pageNum, r)
		}
	}()

	media = mediaBox(page.V)
	crop = media
	if cb, ok := inheritedBox(page.V, "CropBox"); ok {
		clipped := cb.intersect(media)
		if clipped.Width() > 0 && clipped.Height() > 0 {
			crop = clipped
		}
	}
	return media, crop, nil
}

// MediaBox is a page rectangle in PDF user space.
type MediaBox struct {
	llx, lly, urx, ury float64
}

// NewMediaBox builds a media box from its corners.
func NewMediaBox(llx, lly, urx, ury float64) MediaBox {
	return MediaBox{llx: llx, lly: lly, urx: urx, ury: ury}
}

func (m MediaBox) Width() float64 {
	return m.urx - m.llx
}

func (m MediaBox) Height() float64 {
	return m.ury - m.lly
}

// Offset returns the top-left corner of inner in the top-left origin
// coordinates of m.
func (m MediaBox) Offset(inner MediaBox) (dx, dy float64) {
	return inner.llx - m.llx, m.ury - inner.ury
}

func (m MediaBox) intersect(o MediaBox) MediaBox {
	return MediaBox{
		llx: math.Max(m.llx, o.llx),
		lly: math.Max(m.lly, o.lly),
		urx: math.Min(m.urx, o.urx),
		ury: math.Min(m.ury, o.ury),
	}
}

// mediaBox reads /MediaBox, following /Parent for inherited values. US
// Letter is assumed when the page has none.
func mediaBox(v pdf.Value) MediaBox {
	if mb, ok := inheritedBox(v, "MediaBox"); ok {
		return mb
	}
	return MediaBox{urx: 612, ury: 792}
}

func inheritedBox(v pdf.Value, key string) (MediaBox, bool) {
	for node := v; !node.IsNull(); node = node.Key("Parent") {
		b := node.Key(key)
		if b.Len() == 4 {
			return MediaBox{
				llx: math.Min(b.Index(0).Float64(), b.Index(2).Float64()),
				lly: math.Min(b.Index(1).Float64(), b.Index(3).Float64()),
				urx: math.Max(b.Index(0).Float64(), b.Index(2).Float64()),
				ury: math.Max(b.Index(1).Float64(), b.Index(3).Float64()),
			}, true
		}
	}
	return MediaBox{}, false
}

// advance is the horizontal extent of g. The text layer reports zero widths
// for fonts that carry no /Widths array, so those glyphs get an estimate.
func advance(g pdf.Text) (float64, bool) {
	if g.W > 0 || strings.IndexFunc(g.S, unicode.IsControl) >= 0 {
		return g.W, false
	}
	size := g.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	return size * estimatedAdvanceRatio * float64(utf8.RuneCountInString(g.S)), true
}

// SplitGlyphs assigns each glyph to the left or right column by its
// horizontal centre. Stream order is kept.
func SplitGlyphs(glyphs []pdf.Text, midX float64) (left, right []pdf.Text) {
	for _, g := range glyphs {
		w, _ := advance(g)
		if g.X+w/2 < midX {
			left = append(left, g)
		} else {
			right = append(right, g)
		}
	}
	return left, right
}

type wordBuilder struct {
	text     strings.Builder
	x0, x1   float64 // extent of the non-blank glyphs
	lastX    float64 // origin of the latest glyph as reported
	end      float64 // right edge of the latest glyph, blanks included
	baseline float64
	size     float64
	started  bool
}

func (w *wordBuilder) add(g pdf.Text, blank bool) {
	x := g.X
	adv, estimated := advance(g)
	// without widths the glyph origins do not move along the run
	if estimated && w.started && g.X <= w.lastX {
		x = w.end
	}
	if !w.started {
		w.started = true
		w.x0 = x
		w.x1 = x
		w.baseline = g.Y
	}
	w.text.WriteString(g.S)
	w.lastX = g.X
	w.end = x + adv
	if !blank {
		w.x1 = math.Max(w.x1, x+adv)
		w.size = math.Max(w.size, g.FontSize)
	}
}

// AssembleWords merges glyphs into words in content stream order. Blank
// glyphs are kept inside a word as long as the run stays horizontally
// contiguous, so a word token can span several space separated terms.
func AssembleWords(glyphs []pdf.Text, box MediaBox, xTolerance, yTolerance float64) []models.WordToken {
	var words []models.WordToken
	var cur wordBuilder

	flush := func() {
		if cur.started {
			if w, ok := cur.token(box); ok {
				words = append(words, w)
			}
		}
		cur = wordBuilder{}
	}

	for _, g := range glyphs {
		blank := strings.TrimFunc(g.S, unicode.IsSpace) == ""
		if cur.started {
			sameLine := math.Abs(g.Y-cur.baseline) <= yTolerance
			contiguous := g.X <= cur.end+xTolerance && g.X+xTolerance >= cur.lastX
			if !sameLine || !contiguous {
				flush()
			}
		}
		if blank && !cur.started {
			continue
		}
		cur.add(g, blank)
	}
	flush()
	return words
}

func (w *wordBuilder) token(box MediaBox) (models.WordToken, bool) {
	text := strings.TrimSpace(w.text.String())
	if text == "" {
		return models.WordToken{}, false
	}
	size := w.size
	if size <= 0 {
		size = defaultFontSize
	}
	return models.WordToken{
		Text:   text,
		Top:    box.ury - (w.baseline + size),
		Bottom: box.ury - w.baseline + size*descentRatio,
		X0:     w.x0 - box.llx,
		X1:     w.x1 - box.llx,
	}, true
}
