package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBoxExtend(t *testing.T) {
	b := EmptyBox()
	line1 := BoundingBox{Top: 10, Bottom: 20, Left: 30, Right: 200}
	line2 := BoundingBox{Top: 25, Bottom: 35, Left: 28, Right: 150}

	b = b.Extend(line1)
	assert.Equal(t, line1, b)

	b = b.Extend(line2)
	assert.Equal(t, BoundingBox{Top: 10, Bottom: 35, Left: 28, Right: 200}, b)
	assert.True(t, b.Contains(line1))
	assert.True(t, b.Contains(line2))
	assert.False(t, line1.Contains(b))
}

func TestBoundingBoxEmpty(t *testing.T) {
	assert.True(t, EmptyBox().Empty())
	assert.True(t, BoundingBox{Left: 0, Top: 0, Right: 0, Bottom: 5}.Empty())
	assert.False(t, BoundingBox{Left: 0, Top: 0, Right: 1, Bottom: 5}.Empty())
}

func TestQuestionJSONFieldOrder(t *testing.T) {
	q := Question{
		QuestionNumber: 3,
		QuestionText:   "3. Find x.",
		Options:        map[string]string{"(2)": "b", "(1)": "a"},
		Bounds:         BoundingBox{Top: 1, Bottom: 2, Left: 3, Right: 4},
		Page:           1,
		Side:           SideLeft,
		Images:         []string{},
	}
	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t,
		`{"question_number":3,"question_text":"3. Find x.","options":{"(1)":"a","(2)":"b"},"answer":null,"solution":"","bounds":{"top":1,"bottom":2,"left":3,"right":4},"page":1,"side":"Part 1","images":[]}`,
		string(b))
}
