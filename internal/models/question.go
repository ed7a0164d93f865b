package models

import "math"

// WordToken is a positioned fragment of the PDF text layer. Coordinates are
// page units with the origin at the top-left corner.
type WordToken struct {
	Text   string
	Top    float64
	Bottom float64
	X0     float64
	X1     float64
}

type Line struct {
	Words []WordToken
	Text  string
	Box   BoundingBox
}

type BoundingBox struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// EmptyBox is the identity for Extend.
func EmptyBox() BoundingBox {
	return BoundingBox{Top: math.Inf(1), Bottom: 0, Left: math.Inf(1), Right: 0}
}

// Extend returns the smallest box enclosing b and o.
func (b BoundingBox) Extend(o BoundingBox) BoundingBox {
	return BoundingBox{
		Top:    math.Min(b.Top, o.Top),
		Bottom: math.Max(b.Bottom, o.Bottom),
		Left:   math.Min(b.Left, o.Left),
		Right:  math.Max(b.Right, o.Right),
	}
}

// Contains reports whether o lies inside b.
func (b BoundingBox) Contains(o BoundingBox) bool {
	return b.Top <= o.Top && b.Bottom >= o.Bottom && b.Left <= o.Left && b.Right >= o.Right
}

func (b BoundingBox) Empty() bool {
	return b.Right <= b.Left || b.Bottom <= b.Top
}

// Question is one extracted exam question. Field order is the JSON order.
type Question struct {
	QuestionNumber int               `json:"question_number"`
	QuestionText   string            `json:"question_text"`
	Options        map[string]string `json:"options"`
	Answer         *string           `json:"answer"`
	Solution       string            `json:"solution"`
	Bounds         BoundingBox       `json:"bounds"`
	Page           int               `json:"page"`
	Side           string            `json:"side"`
	Images         []string          `json:"images"`
}
