package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"exam-extract/internal/models"
)

const answerSheet = "Answers"

var answerHeader = []interface{}{"Question", "Page", "Side", "Answer", "Options", "Diagram"}

// BuildAnswerKey lays out one row per question. The caller closes the file.
func BuildAnswerKey(questions []models.Question) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", answerSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(answerSheet, "A1", &answerHeader); err != nil {
		f.Close()
		return nil, err
	}

	for i, q := range questions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		answer := ""
		if q.Answer != nil {
			answer = *q.Answer
		}
		row := []interface{}{
			q.QuestionNumber,
			q.Page,
			q.Side,
			answer,
			len(q.Options),
			strings.Join(q.Images, ", "),
		}
		if err := f.SetSheetRow(answerSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// WriteAnswerKey stores the answer key workbook at dest.
func WriteAnswerKey(dest string, questions []models.Question) error {
	f, err := BuildAnswerKey(questions)
	if err != nil {
		return fmt.Errorf("failed to build answer key: %w", err)
	}
	defer f.Close()

	err = writeFileAtomic(dest, func(w io.Writer) error {
		return f.Write(w)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}
