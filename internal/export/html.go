package export

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"

	"exam-extract/internal/models"
)

const markdownPunct = "\\`*_{}[]<>()#+-.!|~"

// escapeMarkdown backslash-escapes punctuation so extracted text is rendered
// literally ("12." must not turn into a list item).
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(markdownPunct, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ReviewMarkdown lays the questions out as a Markdown review sheet. imageBase
// is the path prefix used for diagram links.
func ReviewMarkdown(title, imageBase string, questions []models.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(title))

	for _, q := range questions {
		fmt.Fprintf(&b, "## Question %d\n\n", q.QuestionNumber)
		fmt.Fprintf(&b, "_Page %d, %s_\n\n", q.Page, q.Side)
		fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(q.QuestionText))

		if len(q.Options) > 0 {
			keys := make([]string, 0, len(q.Options))
			for k := range q.Options {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "- **%s** %s\n", escapeMarkdown(k), escapeMarkdown(q.Options[k]))
			}
			b.WriteString("\n")
		}

		for _, img := range q.Images {
			fmt.Fprintf(&b, "![diagram for question %d](%s)\n\n", q.QuestionNumber, path.Join(imageBase, img))
		}

		answer := "not found"
		if q.Answer != nil {
			answer = escapeMarkdown(*q.Answer)
		}
		fmt.Fprintf(&b, "**Answer:** %s\n\n", answer)

		if q.Solution != "" {
			fmt.Fprintf(&b, "**Solution:** %s\n\n", escapeMarkdown(q.Solution))
		}
	}
	return b.String()
}

// RenderHTML converts the review sheet to a standalone HTML page.
func RenderHTML(w io.Writer, title, imageBase string, questions []models.Question) error {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			goldhtml.WithHardWraps(),
		),
	)
	var body bytes.Buffer
	if err := md.Convert([]byte(ReviewMarkdown(title, imageBase, questions)), &body); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(title), body.String())
	return err
}

// WriteHTML stores the review sheet at dest.
func WriteHTML(dest, title, imageBase string, questions []models.Question) error {
	err := writeFileAtomic(dest, func(w io.Writer) error {
		return RenderHTML(w, title, imageBase, questions)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}
