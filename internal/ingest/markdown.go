package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownFlattener converts markdown sources to plain text before
// paragraph chunking, and extracts a display title from the first heading.
type MarkdownFlattener struct {
	parser goldmark.Markdown
}

// NewMarkdownFlattener creates a flattener with table support.
func NewMarkdownFlattener() *MarkdownFlattener {
	return &MarkdownFlattener{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Flatten parses markdown content and returns its plain text (block nodes
// separated by blank lines, so the paragraph chunker sees one chunk per
// block) plus the first level-1 or level-2 heading as title. Title is empty
// when the document has no headings.
func (f *MarkdownFlattener) Flatten(content []byte) (plain string, title string) {
	if len(content) == 0 {
		return "", ""
	}

	reader := text.NewReader(content)
	doc := f.parser.Parser().Parse(reader)

	var blocks []string
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			headingText := nodeText(node, content)
			if node.Level == 1 && firstH1 == "" {
				firstH1 = headingText
			} else if node.Level == 2 && firstH2 == "" {
				firstH2 = headingText
			}
			if headingText != "" {
				blocks = append(blocks, headingText)
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph:
			if t := nodeText(node, content); t != "" {
				blocks = append(blocks, t)
			}
			return ast.WalkSkipChildren, nil

		case *ast.List:
			var items []string
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if t := nodeText(item, content); t != "" {
					items = append(items, t)
				}
			}
			if len(items) > 0 {
				blocks = append(blocks, strings.Join(items, "\n"))
			}
			return ast.WalkSkipChildren, nil

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			var sb strings.Builder
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				sb.Write(line.Value(content))
			}
			if t := strings.TrimRight(sb.String(), "\n"); t != "" {
				blocks = append(blocks, t)
			}
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	title = firstH1
	if title == "" {
		title = firstH2
	}
	return strings.Join(blocks, "\n\n"), title
}

// nodeText extracts the text content of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
