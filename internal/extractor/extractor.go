package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"exam-extract/internal/config"
	"exam-extract/internal/export"
	"exam-extract/internal/helper"
	"exam-extract/internal/models"
	"exam-extract/internal/parser"
	"exam-extract/internal/render"
)

// Paths are the files one input PDF maps to under the data root.
type Paths struct {
	Name      string
	PDF       string
	JSON      string
	ImageDir  string
	HTML      string
	AnswerKey string
}

// DocumentPaths derives the output locations for pdfPath: name.pdf gives
// images/name/, json/name.json, html/name.html and answers/name.xlsx.
func DocumentPaths(dataRoot, pdfPath string) Paths {
	base := filepath.Base(pdfPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return Paths{
		Name:      name,
		PDF:       pdfPath,
		JSON:      filepath.Join(dataRoot, "json", name+".json"),
		ImageDir:  filepath.Join(dataRoot, "images", name),
		HTML:      filepath.Join(dataRoot, "html", name+".html"),
		AnswerKey: filepath.Join(dataRoot, "answers", name+".xlsx"),
	}
}

type Extractor struct {
	cfg    *config.Config
	dryRun bool
}

// New returns an extractor. In dry-run mode nothing is written to disk and no
// diagrams are rendered.
func New(cfg *config.Config, dryRun bool) *Extractor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Extractor{cfg: cfg, dryRun: dryRun}
}

// DocumentResult describes one processed PDF.
type DocumentResult struct {
	Paths     Paths
	Questions []models.Question
	Diagrams  int
}

// ExtractDocument runs the whole pipeline for one PDF and writes its outputs.
func (e *Extractor) ExtractDocument(ctx context.Context, pdfPath string) (*DocumentResult, error) {
	paths := DocumentPaths(e.cfg.Paths.DataRoot, pdfPath)
	logger := log.With().Str("file", paths.Name).Logger()

	report, err := Preflight(pdfPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Preflight failed, trying extraction anyway")
	} else {
		if report.Validation != nil {
			logger.Warn().Err(report.Validation).Msg("PDF did not pass relaxed validation")
		}
		logger.Debug().Int("pages", report.PageCount).Bool("encrypted", report.Encrypted).Msg("Preflight done")
	}

	source := pdfPath
	if report != nil && report.Encrypted {
		plain, cleanup, err := decryptCopy(pdfPath)
		if err != nil {
			logger.Warn().Err(err).Msg("Reading encrypted file directly")
		} else {
			defer cleanup()
			source = plain
			logger.Debug().Msg("Reading decrypted copy")
		}
	}

	if !e.dryRun {
		if err := helper.CreateFolder(paths.ImageDir); err != nil {
			return nil, err
		}
	}

	questions, err := e.ExtractQuestions(ctx, source, paths.ImageDir, report)
	if err != nil {
		if report != nil && report.Encrypted && source == pdfPath {
			return nil, fmt.Errorf("%w: %v", models.ErrEncrypted, err)
		}
		return nil, err
	}

	result := &DocumentResult{Paths: paths, Questions: questions}
	for _, q := range questions {
		result.Diagrams += len(q.Images)
	}

	if e.dryRun {
		return result, nil
	}

	if err := export.WriteJSON(paths.JSON, questions); err != nil {
		return nil, err
	}
	logger.Info().Str("path", paths.JSON).Int("questions", len(questions)).Msg("Saved extracted questions")

	if e.cfg.Exports.HTML {
		imageBase := filepath.ToSlash(filepath.Join("..", "images", paths.Name))
		if err := export.WriteHTML(paths.HTML, paths.Name, imageBase, questions); err != nil {
			logger.Error().Err(err).Msg("Error writing review sheet")
		}
	}
	if e.cfg.Exports.AnswerKey {
		if err := export.WriteAnswerKey(paths.AnswerKey, questions); err != nil {
			logger.Error().Err(err).Msg("Error writing answer key")
		}
	}
	return result, nil
}

// ExtractQuestions walks the pages of the PDF at pdfPath, left half then right
// half, and returns every question in emission order. Diagrams go to
// imageDir. A preflight report, when given, bounds the pages visited.
func (e *Extractor) ExtractQuestions(ctx context.Context, pdfPath, imageDir string, report *PreflightReport) ([]models.Question, error) {
	doc, err := parser.OpenDocument(pdfPath, e.cfg.Layout.XTolerance, e.cfg.Layout.YTolerance)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	renderer := e.openRenderer(pdfPath, imageDir, doc)
	if c, ok := renderer.(interface{ Close() error }); ok {
		defer c.Close()
	}

	pages := report.PageLimit(doc.NumPage(), log.With().Str("file", filepath.Base(pdfPath)).Logger())

	questions := []models.Question{}
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return questions, err
		}
		halves, err := doc.PageHalves(page)
		if err != nil {
			log.Error().Err(err).Str("file", filepath.Base(pdfPath)).Int("page", page).Msg("Skipping page")
			continue
		}
		questions = append(questions, ExtractPage(page, halves, e.cfg.Layout.YTolerance, renderer)...)
	}
	return questions, nil
}

// ExtractPage segments both halves of one page. A half that fails keeps the
// questions closed before the failure.
func ExtractPage(page int, halves parser.PageHalves, yTolerance float64, renderer parser.DiagramRenderer) []models.Question {
	var questions []models.Question
	for _, half := range []struct {
		side  string
		words []models.WordToken
	}{
		{models.SideLeft, halves.Left},
		{models.SideRight, halves.Right},
	} {
		lines := parser.GroupWordsByLine(half.words, yTolerance)
		qs, err := parser.ParseLines(page, half.side, lines, renderer)
		questions = append(questions, qs...)
		if err != nil {
			log.Error().Err(err).Int("page", page).Str("side", half.side).Msg("Abandoning page half")
		}
	}
	return questions
}

// documentRenderer owns the MuPDF document behind a renderer.
type documentRenderer struct {
	*render.Renderer
	raster *render.FitzRasterizer
}

func (d documentRenderer) Close() error {
	return d.raster.Close()
}

// pageFrames places rendered pages using the boxes of the text layer.
func pageFrames(doc *parser.Document) render.FrameFunc {
	return func(page int) (render.PageFrame, error) {
		media, crop, err := doc.PageBoxes(page)
		if err != nil {
			return render.PageFrame{}, err
		}
		dx, dy := media.Offset(crop)
		return render.PageFrame{Width: media.Width(), Height: media.Height(), OffsetX: dx, OffsetY: dy}, nil
	}
}

// openRenderer returns nil when rendering is off or the rendering engine cannot
// open the file; extraction then goes on without diagrams.
func (e *Extractor) openRenderer(pdfPath, imageDir string, doc *parser.Document) parser.DiagramRenderer {
	if e.dryRun || e.cfg.Render.Disabled {
		return nil
	}
	raster, err := render.OpenFitz(pdfPath, pageFrames(doc))
	if err != nil {
		log.Warn().Err(err).Str("file", filepath.Base(pdfPath)).Msg("Diagrams disabled for document")
		return nil
	}
	r := render.NewRenderer(raster, render.Options{
		ImageDir:       imageDir,
		DPI:            e.cfg.Render.DPI,
		BlankThreshold: e.cfg.Render.BlankThreshold,
	})
	return documentRenderer{Renderer: r, raster: raster}
}
