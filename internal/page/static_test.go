package page

import "testing"

const fixtureHTML = `
<html><body>
  <div class="checkpoint" data-id="1">
    <span class="status">  Shipment   picked up </span>
    <span class="location">LISBOA - PORTUGAL</span>
  </div>
  <div class="checkpoint" data-id="2">
    <span class="status">Delivered</span>
  </div>
</body></html>`

func TestStaticDocument_First(t *testing.T) {
	doc := MustParse(fixtureHTML)

	el, ok := doc.First(".checkpoint")
	if !ok {
		t.Fatal("First(.checkpoint) found nothing")
	}
	if id, _ := el.Attr("data-id"); id != "1" {
		t.Errorf("data-id = %q, want %q", id, "1")
	}

	if _, ok := doc.First(".missing"); ok {
		t.Error("First matched a selector that is not in the document")
	}
}

func TestStaticDocument_All(t *testing.T) {
	doc := MustParse(fixtureHTML)

	checkpoints := doc.All(".checkpoint")
	if len(checkpoints) != 2 {
		t.Fatalf("All(.checkpoint) = %d elements, want 2", len(checkpoints))
	}
	if id, _ := checkpoints[1].Attr("data-id"); id != "2" {
		t.Errorf("document order broken: second element data-id = %q", id)
	}
	if all := doc.All(".missing"); len(all) != 0 {
		t.Errorf("All(.missing) = %d elements, want none", len(all))
	}
}

func TestElement_TextCollapsesWhitespace(t *testing.T) {
	doc := MustParse(fixtureHTML)

	el, _ := doc.First(`.checkpoint[data-id="1"] .status`)
	if got := el.Text(); got != "Shipment picked up" {
		t.Errorf("Text() = %q, want %q", got, "Shipment picked up")
	}
}

func TestElement_ScopedQueries(t *testing.T) {
	doc := MustParse(fixtureHTML)

	second, _ := doc.First(`.checkpoint[data-id="2"]`)
	if _, ok := second.First(".location"); ok {
		t.Error("scoped First leaked outside its subtree")
	}
	if got := Text(doc, `.checkpoint[data-id="2"] .status`); got != "Delivered" {
		t.Errorf("Text helper = %q", got)
	}
	if !Exists(doc, ".checkpoint") || Exists(doc, ".nope") {
		t.Error("Exists helper misreported")
	}
}
