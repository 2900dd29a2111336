// Package preview derives short textual descriptions of projects.
package preview

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
)

const (
	maxTitleRunes = 50
	untitled      = "Untitled"
)

// Title returns the text of the project's <title> element, falling back to
// the first text in the document body and then to "Untitled".
func Title(p domain.Project) string {
	doc, err := html.Parse(strings.NewReader(p.Sources.HTML))
	if err != nil {
		return untitled
	}

	if t := textOf(find(doc, "title")); t != "" {
		return truncate(t)
	}
	if t := firstText(find(doc, "body")); t != "" {
		return truncate(t)
	}
	return untitled
}

func find(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapse(b.String())
}

func firstText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return ""
	}
	if n.Type == html.TextNode {
		return collapse(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := firstText(c); t != "" {
			return t
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxTitleRunes {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:maxTitleRunes-1])) + "…"
}
