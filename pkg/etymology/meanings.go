package etymology

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// EtymologyLabel is the heading id of the etymology section on entry pages.
const EtymologyLabel = "Etymology"

var headingSel = cascadia.MustCompile("h1[id], h2[id], h3[id], h4[id], h5[id], h6[id]")

// ExtractMeanings returns, for every requested part of speech, the text of the
// first ordered list under its section. Parts whose section is missing map to "".
func ExtractMeanings(doc *html.Node, parts []PartOfSpeech) map[PartOfSpeech]string {
	out := make(map[PartOfSpeech]string, len(parts))
	for _, p := range parts {
		out[p] = ""
		h := findHeading(doc, p.Label())
		if h == nil {
			continue
		}
		walkSection(h, func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.Data == "ol" {
				out[p] = collapseSpace(textOf(n))
				return false
			}
			return true
		})
	}
	return out
}

// ExtractEtymology concatenates the paragraphs of the etymology section.
func ExtractEtymology(doc *html.Node) string {
	h := findHeading(doc, EtymologyLabel)
	if h == nil {
		return ""
	}
	var b strings.Builder
	walkSection(h, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "p" {
			b.WriteString(textOf(n))
			b.WriteByte(' ')
		}
		return true
	})
	return collapseSpace(b.String())
}

// findHeading returns the first heading whose id is label or label_N.
func findHeading(doc *html.Node, label string) *html.Node {
	for _, h := range cascadia.QueryAll(doc, headingSel) {
		id := attr(h, "id")
		if id == label || strings.HasPrefix(id, label+"_") {
			return h
		}
	}
	return nil
}

// walkSection visits the nodes following heading h in document order until a
// heading of the same or a higher level. visit returning false stops the walk.
// Children of a visited p or ol are skipped.
func walkSection(h *html.Node, visit func(*html.Node) bool) {
	level := headingLevel(h)
	n := nextSkipping(h)
	for n != nil {
		if l := headingLevel(n); l > 0 && l <= level {
			return
		}
		if !visit(n) {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "p" || n.Data == "ol") {
			n = nextSkipping(n)
			continue
		}
		n = next(n)
	}
}

func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	if c := n.Data[1]; c >= '1' && c <= '6' {
		return int(c - '0')
	}
	return 0
}

// next returns the node after n in document order.
func next(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	return nextSkipping(n)
}

// nextSkipping returns the node after n's subtree in document order.
func nextSkipping(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// TextOf returns the concatenated text content of n.
func TextOf(n *html.Node) string { return textOf(n) }

// Attr returns the value of attribute key on n, or "".
func Attr(n *html.Node, key string) string { return attr(n, key) }
