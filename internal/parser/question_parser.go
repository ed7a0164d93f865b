package parser

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"exam-extract/internal/models"
)

// DiagramRenderer renders the region of a closed question. An empty filename
// with a nil error means there is no diagram to keep.
type DiagramRenderer interface {
	Render(page, question int, box models.BoundingBox) (string, error)
}

type parserState int

const (
	stateNoRecord parserState = iota
	stateInQuestion
	stateInSolution
)

// QuestionParser segments the line stream of one page-half into questions.
type QuestionParser struct {
	page     int
	side     string
	renderer DiagramRenderer

	state         parserState
	number        int
	questionLines []string
	solutionLines []string
	options       map[string]string
	answer        *string
	bounds        models.BoundingBox

	result []models.Question
}

// NewQuestionParser returns a parser for one half of a page. renderer may be
// nil, in which case no diagrams are produced.
func NewQuestionParser(page int, side string, renderer DiagramRenderer) *QuestionParser {
	return &QuestionParser{page: page, side: side, renderer: renderer}
}

// Feed classifies a line and advances the state machine.
func (p *QuestionParser) Feed(line models.Line) error {
	c, err := Classify(line.Text)
	if err != nil {
		return fmt.Errorf("page %d %s: %w", p.page, p.side, err)
	}

	if c.Kind == KindQuestionStart {
		p.closeQuestion()
		p.openQuestion(c.Number, line)
		return nil
	}

	// nothing to attach to before the first question of the half
	if p.state == stateNoRecord {
		log.Debug().Int("page", p.page).Str("side", p.side).Str("line", line.Text).Msg("Ignoring line outside a question")
		return nil
	}

	switch c.Kind {
	case KindAnswer:
		key := c.Key
		p.answer = &key
	case KindSolutionStart:
		p.state = stateInSolution
		if c.Text != "" {
			p.solutionLines = append(p.solutionLines, c.Text)
		}
	case KindOption:
		for _, o := range c.Options {
			p.options[o.Key] = o.Text
		}
	case KindContinuation:
		if p.state == stateInSolution {
			p.solutionLines = append(p.solutionLines, c.Text)
		} else {
			p.questionLines = append(p.questionLines, c.Text)
		}
	}
	p.bounds = p.bounds.Extend(line.Box)
	return nil
}

// Finish closes the open question, if any, and returns every question emitted
// for this half in order.
func (p *QuestionParser) Finish() []models.Question {
	p.closeQuestion()
	return p.result
}

// Questions returns the questions emitted so far.
func (p *QuestionParser) Questions() []models.Question {
	return p.result
}

func (p *QuestionParser) openQuestion(number int, line models.Line) {
	p.state = stateInQuestion
	p.number = number
	p.questionLines = []string{line.Text}
	p.solutionLines = nil
	p.options = make(map[string]string)
	p.answer = nil
	p.bounds = line.Box
}

// closeQuestion emits the open question and resets to stateNoRecord, so a
// question is never emitted twice.
func (p *QuestionParser) closeQuestion() {
	if p.state == stateNoRecord {
		return
	}
	p.state = stateNoRecord

	q := models.Question{
		QuestionNumber: p.number,
		QuestionText:   strings.Join(p.questionLines, " "),
		Options:        p.options,
		Answer:         p.answer,
		Solution:       strings.Join(p.solutionLines, " "),
		Bounds:         p.bounds,
		Page:           p.page,
		Side:           p.side,
		Images:         []string{},
	}
	q.Images = p.renderDiagram(q)
	p.result = append(p.result, q)
}

func (p *QuestionParser) renderDiagram(q models.Question) []string {
	if p.renderer == nil {
		return []string{}
	}
	name, err := p.renderer.Render(q.Page, q.QuestionNumber, q.Bounds)
	if err != nil {
		log.Warn().Err(err).
			Int("page", q.Page).
			Str("side", q.Side).
			Int("question", q.QuestionNumber).
			Msg("Error rendering diagram")
		return []string{}
	}
	if name == "" {
		return []string{}
	}
	return []string{name}
}

// ParseLines runs a fresh parser over lines. On an error the questions closed
// before the failing line are returned together with the error.
func ParseLines(page int, side string, lines []models.Line, renderer DiagramRenderer) ([]models.Question, error) {
	p := NewQuestionParser(page, side, renderer)
	for _, line := range lines {
		if err := p.Feed(line); err != nil {
			return p.Questions(), err
		}
	}
	return p.Finish(), nil
}
