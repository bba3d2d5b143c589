// Package post renders board post content, which arrives as an HTML
// fragment, into styled terminal lines of a fixed width. Markup the
// renderer does not understand degrades to its inline text.
package post

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"

	"github.com/OneVth/prj-board/internal/board"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)
var reHTTPURL = regexp.MustCompile(`https?://[^\s)]+`)

type htmlPostRenderer struct {
	width int
}

// Lines renders a post body for the detail view. A post with an attached
// image gets a trailing image label so the attachment stays visible in a
// text terminal.
func Lines(p board.Post, width int) []string {
	lines := fragmentLines(p.Content, width)
	if p.Image != "" {
		label := imageLabelLine("attachment", width)
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, label...)
	}
	return lines
}

// PlainLines wraps already-plain text, for comment bodies and previews.
func PlainLines(text string, width int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return wrapText(text, width)
}

func fragmentLines(raw string, width int) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	doc, err := nethtml.Parse(strings.NewReader("<html><body>" + raw + "</body></html>"))
	if err != nil {
		return wrapText(strings.TrimSpace(html.UnescapeString(raw)), width)
	}
	body := findBodyNode(doc)
	if body == nil {
		return wrapText(strings.TrimSpace(html.UnescapeString(raw)), width)
	}
	renderer := htmlPostRenderer{width: max(1, width)}
	lines := trimBlankLines(renderer.renderNodes(elementChildren(body), 0))
	return styleLinkTargets(lines)
}

// styleLinkTargets dims bare URLs so link text stays the focus.
func styleLinkTargets(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = reHTTPURL.ReplaceAllStringFunc(line, func(m string) string {
			return linkURLStyle.Render(m)
		})
	}
	return out
}

func trimBlankLines(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines) - 1
	for end >= start && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < start {
		return nil
	}
	out := make([]string, 0, end-start+1)
	prevBlank := false
	for i := start; i <= end; i++ {
		blank := strings.TrimSpace(lines[i]) == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, lines[i])
		prevBlank = blank
	}
	return out
}

func wrapText(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	paragraphs := strings.Split(text, "\n")
	out := make([]string, 0, len(paragraphs))

	for _, p := range paragraphs {
		words := strings.Fields(p)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, word := range words {
			for len(word) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				out = append(out, word[:width])
				word = word[width:]
			}

			if line == "" {
				line = word
				continue
			}
			if len(line)+1+len(word) <= width {
				line += " " + word
				continue
			}
			out = append(out, line)
			line = word
		}
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(stripANSI(s))
}

func stripANSI(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}

func findBodyNode(node *nethtml.Node) *nethtml.Node {
	if node == nil {
		return nil
	}
	if node.Type == nethtml.ElementNode && strings.EqualFold(node.Data, "body") {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findBodyNode(child); found != nil {
			return found
		}
	}
	return nil
}

func elementChildren(node *nethtml.Node) []*nethtml.Node {
	children := make([]*nethtml.Node, 0, 4)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == nethtml.TextNode && strings.TrimSpace(child.Data) == "" {
			continue
		}
		children = append(children, child)
	}
	return children
}

func nodeAttr(node *nethtml.Node, name string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func collectRawText(node *nethtml.Node) string {
	if node == nil {
		return ""
	}
	if node.Type == nethtml.TextNode {
		return node.Data
	}
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(collectRawText(child))
	}
	return b.String()
}
