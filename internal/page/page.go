// Package page abstracts "find elements matching a selector in a subtree"
// behind a capability interface, so carrier variants and the readiness
// detector can run against a live browser snapshot, a parsed static
// document, or a test fixture alike.
package page

// Element is one matched node of a document.
type Element interface {
	// Text returns the node's text content with surrounding whitespace
	// trimmed.
	Text() string

	// Attr returns the named attribute and whether it is present.
	Attr(name string) (string, bool)

	// First finds the first descendant matching the selector.
	First(selector string) (Element, bool)

	// All finds every descendant matching the selector, in document order.
	All(selector string) []Element
}

// Accessor exposes selector queries over one document subtree.
type Accessor interface {
	// First finds the first element matching the selector.
	First(selector string) (Element, bool)

	// All finds every element matching the selector, in document order.
	All(selector string) []Element
}

// Text is a convenience lookup: the trimmed text of the first match, or ""
// when the selector matches nothing.
func Text(a Accessor, selector string) string {
	el, ok := a.First(selector)
	if !ok {
		return ""
	}
	return el.Text()
}

// Exists reports whether the selector matches anything in the subtree.
func Exists(a Accessor, selector string) bool {
	_, ok := a.First(selector)
	return ok
}
