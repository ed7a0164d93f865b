package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"exam-extract/internal/models"
)

const (
	// PDF user space is 72 units per inch.
	pointsPerInch         = 72.0
	defaultDPI            = 300.0
	defaultBlankThreshold = 10.0
)

// PageFrame places a rendered page in the coordinates of the text layer, in
// PDF points with a top-left origin. Width and Height span the media box;
// OffsetX and OffsetY locate the top-left corner of the rendered area.
type PageFrame struct {
	Width   float64
	Height  float64
	OffsetX float64
	OffsetY float64
}

// toRaster moves box from page coordinates into rendered image coordinates.
func (f PageFrame) toRaster(box models.BoundingBox) models.BoundingBox {
	return models.BoundingBox{
		Top:    box.Top - f.OffsetY,
		Bottom: box.Bottom - f.OffsetY,
		Left:   box.Left - f.OffsetX,
		Right:  box.Right - f.OffsetX,
	}
}

// Rasterizer renders whole pages. Pages are 1-based.
type Rasterizer interface {
	PageFrame(page int) (PageFrame, error)
	RenderPage(page int, dpi float64) (image.Image, error)
}

type Options struct {
	ImageDir       string
	DPI            float64
	BlankThreshold float64
}

// Renderer crops question regions out of rendered pages and keeps the ones
// that are not blank.
type Renderer struct {
	raster Rasterizer
	opts   Options

	cachedPage  int
	cachedImage image.Image
}

func NewRenderer(raster Rasterizer, opts Options) *Renderer {
	if opts.DPI <= 0 {
		opts.DPI = defaultDPI
	}
	if opts.BlankThreshold <= 0 {
		opts.BlankThreshold = defaultBlankThreshold
	}
	return &Renderer{raster: raster, opts: opts}
}

// Render saves the region box of page as page{P}_q{Q}_diagram.png and returns
// the file name. Degenerate regions and blank renders give an empty name and
// a nil error.
func (r *Renderer) Render(page, question int, box models.BoundingBox) (name string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			name, err = "", fmt.Errorf("rendering page %d: %v", page, rec)
		}
	}()

	frame, err := r.raster.PageFrame(page)
	if err != nil {
		return "", fmt.Errorf("page frame: %w", err)
	}

	clip, ok := Clamp(box, frame.Width, frame.Height)
	if !ok {
		log.Warn().
			Int("page", page).
			Int("question", question).
			Interface("bbox", clip).
			Msg("Skipping invalid bbox")
		return "", nil
	}

	pageImg, err := r.pageImage(page)
	if err != nil {
		return "", err
	}

	region, err := Crop(pageImg, frame.toRaster(clip), r.opts.DPI/pointsPerInch)
	if err != nil {
		return "", err
	}

	if v := Variance(region); v < r.opts.BlankThreshold {
		log.Info().
			Int("page", page).
			Int("question", question).
			Float64("variance", v).
			Msg("Skipped blank diagram")
		return "", nil
	}

	name = fmt.Sprintf(models.DiagramFilenameFormat, page, question)
	if err := savePNG(filepath.Join(r.opts.ImageDir, name), region); err != nil {
		return "", err
	}
	log.Debug().Int("page", page).Int("question", question).Str("file", name).Msg("Saved diagram")
	return name, nil
}

// pageImage renders page, reusing the previous raster when the page repeats.
func (r *Renderer) pageImage(page int) (image.Image, error) {
	if r.cachedImage != nil && r.cachedPage == page {
		return r.cachedImage, nil
	}
	img, err := r.raster.RenderPage(page, r.opts.DPI)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	r.cachedPage, r.cachedImage = page, img
	return img, nil
}

// Clamp limits box to the page area. ok is false when nothing drawable is left.
func Clamp(box models.BoundingBox, width, height float64) (models.BoundingBox, bool) {
	c := models.BoundingBox{
		Left:   math.Max(0, box.Left),
		Top:    math.Max(0, box.Top),
		Right:  math.Min(width, box.Right),
		Bottom: math.Min(height, box.Bottom),
	}
	return c, !c.Empty()
}

// Crop copies the region box, given in points, out of a page rendered with the
// given pixels-per-point scale.
func Crop(page image.Image, box models.BoundingBox, scale float64) (*image.RGBA, error) {
	b := page.Bounds()
	rect := image.Rect(
		int(math.Floor(box.Left*scale)),
		int(math.Floor(box.Top*scale)),
		int(math.Ceil(box.Right*scale)),
		int(math.Ceil(box.Bottom*scale)),
	).Add(b.Min).Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("%w: %v outside raster %v", models.ErrDegenerateBox, box, b)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, page, rect, draw.Src, nil)
	return dst, nil
}

// Variance returns the population variance of the grayscale pixel values.
func Variance(img image.Image) float64 {
	b := img.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0
	}

	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := float64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			sum += g
			sumSq += g * g
		}
	}
	mean := sum / n
	return math.Max(0, sumSq/n-mean*mean)
}

func savePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
