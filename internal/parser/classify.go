package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"exam-extract/internal/models"
)

type LineKind int

const (
	KindContinuation LineKind = iota
	KindQuestionStart
	KindAnswer
	KindSolutionStart
	KindOption
)

func (k LineKind) String() string {
	switch k {
	case KindQuestionStart:
		return "question-start"
	case KindAnswer:
		return "answer"
	case KindSolutionStart:
		return "solution-start"
	case KindOption:
		return "option"
	default:
		return "continuation"
	}
}

type Option struct {
	Key  string
	Text string
}

// Classification is the result of classifying one line. Only the fields
// belonging to Kind are set.
type Classification struct {
	Kind    LineKind
	Number  int      // KindQuestionStart
	Key     string   // KindAnswer
	Options []Option // KindOption
	Text    string   // KindSolutionStart remainder, KindContinuation line
}

var (
	questionStartRe = regexp.MustCompile(models.QuestionStartRegex)
	answerRe        = regexp.MustCompile(models.AnswerRegex)
	optionMarkerRe  = regexp.MustCompile(models.OptionMarkerRegex)
	optionPairRe    = regexp.MustCompile(models.OptionPairRegex)
)

// Classify assigns a line to exactly one category. Rules are tried in order:
// question start, answer, solution start, options, continuation. A leading
// number too large to parse is an error; a zero one is not a question start.
func Classify(text string) (Classification, error) {
	text = strings.TrimSpace(text)

	if m := questionStartRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Classification{}, fmt.Errorf("%w: %q", models.ErrInvalidQuestionNumber, m[1])
		}
		// questions are numbered from 1, so "0.5 x 2 = 1" is running text
		if n > 0 {
			return Classification{Kind: KindQuestionStart, Number: n, Text: text}, nil
		}
	}
	if m := answerRe.FindStringSubmatch(text); m != nil {
		return Classification{Kind: KindAnswer, Key: "(" + m[1] + ")"}, nil
	}
	if strings.HasPrefix(text, models.SolutionPrefix) {
		rest := strings.TrimSpace(strings.TrimPrefix(text, models.SolutionPrefix))
		return Classification{Kind: KindSolutionStart, Text: rest}, nil
	}
	if optionMarkerRe.MatchString(text) {
		return Classification{Kind: KindOption, Options: extractOptions(text)}, nil
	}
	return Classification{Kind: KindContinuation, Text: text}, nil
}

func extractOptions(text string) []Option {
	var opts []Option
	for _, m := range optionPairRe.FindAllStringSubmatch(text, -1) {
		opts = append(opts, Option{
			Key:  "(" + m[1] + ")",
			Text: strings.TrimSpace(m[2]),
		})
	}
	return opts
}
