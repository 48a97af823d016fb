package page

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StaticDocument is an Accessor over a parsed HTML string. The live runner
// snapshots the browser DOM to HTML and parses it here, so carrier variants
// only ever deal with static documents.
type StaticDocument struct {
	doc *goquery.Document
}

// Parse builds a StaticDocument from raw HTML.
func Parse(html string) (*StaticDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &StaticDocument{doc: doc}, nil
}

// MustParse is a test helper for fixture HTML known to be well formed.
func MustParse(html string) *StaticDocument {
	doc, err := Parse(html)
	if err != nil {
		panic(err)
	}
	return doc
}

func (d *StaticDocument) First(selector string) (Element, bool) {
	return firstOf(d.doc.Find(selector))
}

func (d *StaticDocument) All(selector string) []Element {
	return allOf(d.doc.Find(selector))
}

type staticElement struct {
	sel *goquery.Selection
}

var innerSpace = regexp.MustCompile(`\s+`)

func (e *staticElement) Text() string {
	return strings.TrimSpace(innerSpace.ReplaceAllString(e.sel.Text(), " "))
}

func (e *staticElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *staticElement) First(selector string) (Element, bool) {
	return firstOf(e.sel.Find(selector))
}

func (e *staticElement) All(selector string) []Element {
	return allOf(e.sel.Find(selector))
}

func firstOf(sel *goquery.Selection) (Element, bool) {
	if sel.Length() == 0 {
		return nil, false
	}
	return &staticElement{sel: sel.First()}, true
}

func allOf(sel *goquery.Selection) []Element {
	var elements []Element
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &staticElement{sel: s})
	})
	return elements
}
