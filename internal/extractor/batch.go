package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Summary is the outcome of a batch run.
type Summary struct {
	Documents int
	Questions int
	Diagrams  int
	Failed    []string
}

// ListPDFs returns the .pdf files directly inside dir in lexical order.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// RunDir extracts every PDF in dir. A failing document is logged and counted;
// the run moves on to the next one.
func (e *Extractor) RunDir(ctx context.Context, dir string) (*Summary, error) {
	files, err := ListPDFs(dir)
	if err != nil {
		return nil, err
	}
	log.Info().Str("dir", dir).Int("files", len(files)).Msg("Starting extraction")
	return e.RunFiles(ctx, files)
}

// RunFiles extracts the given PDFs one after another.
func (e *Extractor) RunFiles(ctx context.Context, files []string) (*Summary, error) {
	summary := &Summary{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Documents++

		res, err := e.ExtractDocument(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			log.Error().Err(err).Str("file", f).Msg("Error extracting document")
			summary.Failed = append(summary.Failed, f)
			continue
		}
		summary.Questions += len(res.Questions)
		summary.Diagrams += res.Diagrams
	}
	return summary, nil
}
