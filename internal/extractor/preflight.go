package extractor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
)

// PreflightReport summarises what pdfcpu found in a file before extraction.
type PreflightReport struct {
	PageCount int
	Encrypted bool
	// Validation holds the relaxed validation error, if any.
	Validation error
}

// Preflight reads the cross reference table of the PDF at path and runs a
// relaxed validation. Only a file pdfcpu cannot read at all is an error.
func Preflight(path string) (*PreflightReport, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	report := &PreflightReport{
		PageCount: ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	report.Validation = api.ValidateFile(path, conf)
	return report, nil
}

// PageLimit bounds the page loop. The text layer trusts the /Count of the
// page tree, so the smaller of the two counts wins when they disagree.
func (r *PreflightReport) PageLimit(textPages int, logger zerolog.Logger) int {
	if r == nil || r.PageCount <= 0 || r.PageCount == textPages {
		return textPages
	}
	logger.Warn().Int("text_pages", textPages).Int("preflight_pages", r.PageCount).Msg("Page counts disagree")
	return min(textPages, r.PageCount)
}

// decryptCopy writes a decrypted copy of the PDF at path into a temporary
// directory using the empty user password. cleanup removes the copy.
func decryptCopy(path string) (plain string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "exam-extract-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup = func() { os.RemoveAll(dir) }

	plain = filepath.Join(dir, filepath.Base(path))
	if err := api.DecryptFile(path, plain, model.NewDefaultConfiguration()); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to decrypt %s: %w", filepath.Base(path), err)
	}
	return plain, cleanup, nil
}
