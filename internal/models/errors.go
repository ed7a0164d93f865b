package models

import "errors"

var (
	ErrInvalidQuestionNumber = errors.New("invalid question number")
	ErrDegenerateBox         = errors.New("degenerate bounding box")
	ErrNoTextLayer           = errors.New("no text layer")
	ErrEncrypted             = errors.New("encrypted PDF")
)
