package export

import (
	"encoding/json"
	"fmt"
	"io"

	"exam-extract/internal/models"
)

// EncodeJSON writes questions as an indented JSON array. A nil slice is
// written as [].
func EncodeJSON(w io.Writer, questions []models.Question) error {
	if questions == nil {
		questions = []models.Question{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(questions)
}

// WriteJSON stores questions at path, creating parent directories.
func WriteJSON(path string, questions []models.Question) error {
	err := writeFileAtomic(path, func(w io.Writer) error {
		return EncodeJSON(w, questions)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
