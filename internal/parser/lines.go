package parser

import (
	"math"
	"sort"
	"strings"

	"exam-extract/internal/models"
)

const defaultYTolerance = 3.0

// GroupWordsByLine bins words on their top coordinate rounded to a multiple of
// yTolerance. Each bin becomes one line; lines come back in reading order.
func GroupWordsByLine(words []models.WordToken, yTolerance float64) []models.Line {
	if yTolerance <= 0 {
		yTolerance = defaultYTolerance
	}

	buckets := make(map[float64][]models.WordToken)
	for _, w := range words {
		key := math.RoundToEven(w.Top/yTolerance) * yTolerance
		buckets[key] = append(buckets[key], w)
	}

	lines := make([]models.Line, 0, len(buckets))
	for _, ws := range buckets {
		lines = append(lines, buildLine(ws))
	}

	// map order is random, sort explicitly
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Box.Top != lines[j].Box.Top {
			return lines[i].Box.Top < lines[j].Box.Top
		}
		return lines[i].Box.Left < lines[j].Box.Left
	})
	return lines
}

// buildLine sorts words left to right and derives the text and box.
func buildLine(words []models.WordToken) models.Line {
	sorted := make([]models.WordToken, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X0 < sorted[j].X0 })

	texts := make([]string, len(sorted))
	box := models.EmptyBox()
	for i, w := range sorted {
		texts[i] = w.Text
		box = box.Extend(models.BoundingBox{Top: w.Top, Bottom: w.Bottom, Left: w.X0, Right: w.X1})
	}

	return models.Line{
		Words: sorted,
		Text:  strings.TrimSpace(strings.Join(texts, " ")),
		Box:   box,
	}
}
