package render

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FrameFunc reports the frame of a 1-based page.
type FrameFunc func(page int) (PageFrame, error)

// FitzRasterizer renders pages with MuPDF. MuPDF draws the crop box, so the
// frames should come from the same page boxes the text layer used.
type FitzRasterizer struct {
	doc    *fitz.Document
	frames FrameFunc
}

// OpenFitz opens path for rendering. Without frames the page bounds reported
// by MuPDF are used, which are whole points and start at the crop box.
func OpenFitz(path string, frames FrameFunc) (*FitzRasterizer, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	return &FitzRasterizer{doc: doc, frames: frames}, nil
}

func (f *FitzRasterizer) Close() error {
	return f.doc.Close()
}

func (f *FitzRasterizer) PageFrame(page int) (PageFrame, error) {
	if f.frames != nil {
		return f.frames(page)
	}
	rect, err := f.doc.Bound(page - 1)
	if err != nil {
		return PageFrame{}, err
	}
	return PageFrame{Width: float64(rect.Dx()), Height: float64(rect.Dy())}, nil
}

func (f *FitzRasterizer) RenderPage(page int, dpi float64) (image.Image, error) {
	return f.doc.ImageDPI(page-1, dpi)
}
