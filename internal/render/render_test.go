package render

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-extract/internal/models"
	"exam-extract/internal/parser"
)

var _ parser.DiagramRenderer = (*Renderer)(nil)

type fakeRaster struct {
	width, height    float64
	offsetX, offsetY float64
	fill             func(x, y int) uint8
	renders          int
	err              error
	panics           bool
}

func (f *fakeRaster) PageFrame(page int) (PageFrame, error) {
	return PageFrame{Width: f.width, Height: f.height, OffsetX: f.offsetX, OffsetY: f.offsetY}, nil
}

func (f *fakeRaster) RenderPage(page int, dpi float64) (image.Image, error) {
	f.renders++
	if f.panics {
		panic("mupdf: corrupt page")
	}
	if f.err != nil {
		return nil, f.err
	}
	scale := dpi / 72
	// the rendered area starts at the frame offset
	img := image.NewGray(image.Rect(0, 0, int((f.width-f.offsetX)*scale), int((f.height-f.offsetY)*scale)))
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: f.fill(x, y)})
		}
	}
	return img, nil
}

func stripes(x, y int) uint8 {
	if x%4 < 2 {
		return 0
	}
	return 255
}

func newTestRenderer(t *testing.T, raster Rasterizer) (*Renderer, string) {
	dir := filepath.Join(t.TempDir(), "images", "paper")
	return NewRenderer(raster, Options{ImageDir: dir, DPI: 72, BlankThreshold: 10}), dir
}

func TestRenderSavesDiagram(t *testing.T) {
	raster := &fakeRaster{width: 100, height: 100, fill: stripes}
	r, dir := newTestRenderer(t, raster)

	name, err := r.Render(3, 14, models.BoundingBox{Top: 10, Bottom: 30, Left: 5, Right: 45})
	require.NoError(t, err)
	assert.Equal(t, "page3_q14_diagram.png", name)

	f, err := os.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestRenderDegenerateBox(t *testing.T) {
	raster := &fakeRaster{width: 100, height: 100, fill: stripes}
	r, dir := newTestRenderer(t, raster)

	name, err := r.Render(1, 1, models.BoundingBox{Left: 0, Top: 0, Right: 0, Bottom: 5})
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Zero(t, raster.renders)
	assert.NoDirExists(t, dir)
}

func TestRenderBoxOutsidePage(t *testing.T) {
	raster := &fakeRaster{width: 100, height: 100, fill: stripes}
	r, _ := newTestRenderer(t, raster)

	name, err := r.Render(1, 1, models.BoundingBox{Left: 150, Top: 10, Right: 200, Bottom: 20})
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestRenderBlankDiagram(t *testing.T) {
	// alternating 98 and 102: mean 100, variance 4
	raster := &fakeRaster{width: 10, height: 10, fill: func(x, y int) uint8 {
		if (x+y)%2 == 0 {
			return 98
		}
		return 102
	}}
	r, dir := newTestRenderer(t, raster)

	name, err := r.Render(1, 2, models.BoundingBox{Top: 0, Bottom: 10, Left: 0, Right: 10})
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.NoFileExists(t, filepath.Join(dir, "page1_q2_diagram.png"))
}

func TestRenderClampsToPage(t *testing.T) {
	raster := &fakeRaster{width: 50, height: 60, fill: stripes}
	r, dir := newTestRenderer(t, raster)

	name, err := r.Render(2, 5, models.BoundingBox{Top: -10, Bottom: 500, Left: -3, Right: 80})
	require.NoError(t, err)
	require.NotEmpty(t, name)

	f, err := os.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 60, cfg.Height)
}

func TestRenderCachesPageRaster(t *testing.T) {
	raster := &fakeRaster{width: 100, height: 100, fill: stripes}
	r, _ := newTestRenderer(t, raster)

	box := models.BoundingBox{Top: 0, Bottom: 20, Left: 0, Right: 20}
	_, err := r.Render(1, 1, box)
	require.NoError(t, err)
	_, err = r.Render(1, 2, box)
	require.NoError(t, err)
	assert.Equal(t, 1, raster.renders)

	_, err = r.Render(2, 3, box)
	require.NoError(t, err)
	assert.Equal(t, 2, raster.renders)
}

func TestRenderRasterFailure(t *testing.T) {
	raster := &fakeRaster{width: 100, height: 100, err: errors.New("no memory")}
	r, _ := newTestRenderer(t, raster)

	name, err := r.Render(1, 1, models.BoundingBox{Top: 0, Bottom: 20, Left: 0, Right: 20})
	assert.Error(t, err)
	assert.Empty(t, name)
}

func TestRenderRecoversPanic(t *testing.T) {
	raster := &fakeRaster{width: 100, height: 100, panics: true}
	r, _ := newTestRenderer(t, raster)

	name, err := r.Render(1, 1, models.BoundingBox{Top: 0, Bottom: 20, Left: 0, Right: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt page")
	assert.Empty(t, name)
}

func TestClamp(t *testing.T) {
	c, ok := Clamp(models.BoundingBox{Top: -1, Bottom: 900, Left: -2, Right: 700}, 595, 842)
	assert.True(t, ok)
	assert.Equal(t, models.BoundingBox{Top: 0, Bottom: 842, Left: 0, Right: 595}, c)

	_, ok = Clamp(models.BoundingBox{Left: 0, Top: 0, Right: 0, Bottom: 5}, 595, 842)
	assert.False(t, ok)
}

func TestVariance(t *testing.T) {
	uniform := image.NewGray(image.Rect(0, 0, 8, 8))
	assert.Equal(t, 0.0, Variance(uniform))

	// two pixels 0 and 255: variance 127.5^2
	two := image.NewGray(image.Rect(0, 0, 2, 1))
	two.SetGray(1, 0, color.Gray{Y: 255})
	assert.InDelta(t, 16256.25, Variance(two), 1e-9)

	assert.Equal(t, 0.0, Variance(image.NewGray(image.Rect(0, 0, 0, 0))))
}

func TestCropOffsetBounds(t *testing.T) {
	src := image.NewGray(image.Rect(100, 100, 200, 200))
	src.SetGray(110, 120, color.Gray{Y: 255})

	out, err := Crop(src, models.BoundingBox{Top: 10, Bottom: 30, Left: 5, Right: 25}, 1)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 20), out.Bounds())
	r, _, _, _ := out.At(5, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestRenderShiftsBoxIntoCroppedRaster(t *testing.T) {
	raster := &fakeRaster{
		width: 100, height: 100,
		offsetX: 20, offsetY: 10,
		fill: func(x, y int) uint8 { return uint8(x*3 + y) },
	}
	r, dir := newTestRenderer(t, raster)

	name, err := r.Render(2, 9, models.BoundingBox{Top: 10, Bottom: 30, Left: 20, Right: 60})
	require.NoError(t, err)
	require.Equal(t, "page2_q9_diagram.png", name)

	f, err := os.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	require.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())
	gray := func(x, y int) uint8 { return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y }
	assert.Equal(t, uint8(0), gray(0, 0))
	assert.Equal(t, uint8(39*3+19), gray(39, 19))
}

func TestRenderBoxOutsideCropArea(t *testing.T) {
	raster := &fakeRaster{width: 100, height: 100, offsetX: 50, fill: stripes}
	r, _ := newTestRenderer(t, raster)

	// inside the media box but left of the visible area
	_, err := r.Render(1, 3, models.BoundingBox{Top: 10, Bottom: 30, Left: 5, Right: 40})
	assert.ErrorIs(t, err, models.ErrDegenerateBox)
}
