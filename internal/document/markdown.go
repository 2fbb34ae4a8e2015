package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"

	"github.com/bull/rag-pipeline/internal/domain"
)

// Markdown loads markdown files by parsing them to an AST and extracting the
// plain text, so formatting syntax never reaches the embedding model. The
// document title is taken from the outline (first heading).
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a markdown loader with a configured goldmark parser.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Load parses the markdown source and returns a Document whose Text is the
// plain text content in original order.
func (m *Markdown) Load(sourceID string, data []byte) (domain.Document, error) {
	if !utf8.Valid(data) {
		return domain.Document{}, fmt.Errorf("%s: %w", sourceID, ErrUndecodable)
	}

	reader := text.NewReader(data)
	root := m.md.Parser().Parse(reader)

	return domain.Document{
		SourceID: sourceID,
		Title:    documentTitle(root, data),
		Text:     extractText(root, data),
	}, nil
}

// documentTitle returns the first heading in the outline, or "".
func documentTitle(root ast.Node, source []byte) string {
	tree, err := toc.Inspect(root, source,
		toc.MinDepth(1),
		toc.MaxDepth(6),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return ""
	}
	return string(tree.Items[0].Title)
}

// extractText walks the AST collecting text segments, with block boundaries
// rendered as newlines.
func extractText(root ast.Node, source []byte) string {
	var b strings.Builder

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case ast.KindHeading, ast.KindParagraph, ast.KindListItem, ast.KindBlockquote:
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindText:
			t := n.(*ast.Text)
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString("\n")
			}
		case ast.KindCodeBlock, ast.KindFencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
			}
			b.WriteString("\n")
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}
