package soundlist

import "testing"

func TestFindElementSelfClosing(t *testing.T) {
	text := `<Root>
  <Sound url="a.mp3" tag="A"/>
  <Sound url="b.mp3" tag="B"/>
</Root>`
	el, ok := findElement(text, "Sound", 0)
	if !ok {
		t.Fatal("expected first Sound element")
	}
	if !el.selfClosing {
		t.Fatal("expected self-closing form")
	}
	if got, _ := attrValue(el.attrText(text), "url"); got != "a.mp3" {
		t.Fatalf("url = %q, want a.mp3", got)
	}

	el2, ok := findElement(text, "Sound", el.outerEnd)
	if !ok {
		t.Fatal("expected second Sound element")
	}
	if got, _ := attrValue(el2.attrText(text), "tag"); got != "B" {
		t.Fatalf("tag = %q, want B", got)
	}
}

func TestFindElementNestedDepthCounting(t *testing.T) {
	text := `<Category name="outer">
  <Category name="middle">
    <Category name="inner"/>
  </Category>
</Category>`
	el, ok := findElement(text, "Category", 0)
	if !ok {
		t.Fatal("expected outer element")
	}
	if el.selfClosing {
		t.Fatal("outer element is block form")
	}
	if got, _ := attrValue(el.attrText(text), "name"); got != "outer" {
		t.Fatalf("name = %q, want outer", got)
	}
	// The close of "outer" must be the final close tag, not "middle"'s.
	if el.outerEnd != len(text) {
		t.Fatalf("outerEnd = %d, want %d", el.outerEnd, len(text))
	}
	inner := el.inner(text)
	mid, ok := findElement(inner, "Category", 0)
	if !ok {
		t.Fatal("expected middle element inside outer")
	}
	if got, _ := attrValue(mid.attrText(inner), "name"); got != "middle" {
		t.Fatalf("name = %q, want middle", got)
	}
}

func TestFindElementTagNamePrefix(t *testing.T) {
	// <Soundlist> must not match a search for <Sound>.
	text := `<Soundlist><Sound url="x"/></Soundlist>`
	el, ok := findElement(text, "Sound", 0)
	if !ok {
		t.Fatal("expected Sound element")
	}
	if got, _ := attrValue(el.attrText(text), "url"); got != "x" {
		t.Fatalf("url = %q, want x", got)
	}
}

func TestFindElementUnterminated(t *testing.T) {
	cases := []string{
		`<Category name="open">`,
		`<Category name="broken`,
		`<Category><Category/></Wrong>`,
	}
	for _, text := range cases {
		if _, ok := findElement(text, "Category", 0); ok {
			t.Fatalf("expected not-found for %q", text)
		}
	}
}

func TestSelfClosingOccurrencesAreDepthNeutral(t *testing.T) {
	text := `<Category name="a"><Category hidden="true"/><Category name="b"></Category></Category>tail`
	el, ok := findElement(text, "Category", 0)
	if !ok {
		t.Fatal("expected element")
	}
	if got := text[el.outerEnd:]; got != "tail" {
		t.Fatalf("outerEnd left %q, want tail", got)
	}
}

func TestAttrValueFirstMatchWins(t *testing.T) {
	text := `<Sound tag="first" tag="second"/>`
	el, ok := findElement(text, "Sound", 0)
	if !ok {
		t.Fatal("expected element")
	}
	if got, _ := attrValue(el.attrText(text), "tag"); got != "first" {
		t.Fatalf("tag = %q, want first", got)
	}
}

func TestAttrValueQuoting(t *testing.T) {
	text := `<Sound url="a>b.mp3" tag='sin"gle'/>`
	el, ok := findElement(text, "Sound", 0)
	if !ok {
		t.Fatal("expected element despite '>' inside quotes")
	}
	if got, _ := attrValue(el.attrText(text), "url"); got != "a>b.mp3" {
		t.Fatalf("url = %q", got)
	}
	if got, _ := attrValue(el.attrText(text), "tag"); got != `sin"gle` {
		t.Fatalf("tag = %q", got)
	}
}

func TestEntityRoundTrip(t *testing.T) {
	raw := `Fish &amp; Chips &lt;live&gt; &#233;`
	decoded := decodeEntities(raw)
	if decoded != `Fish & Chips <live> é` {
		t.Fatalf("decoded = %q", decoded)
	}
	if got := decodeEntities(encodeEntities(`a&b<c>"d"'e'`)); got != `a&b<c>"d"'e'` {
		t.Fatalf("round trip = %q", got)
	}
	// Unknown entities pass through.
	if got := decodeEntities("&unknown; ok"); got != "&unknown; ok" {
		t.Fatalf("unknown entity = %q", got)
	}
}

func TestTopLevelElements(t *testing.T) {
	text := `  <A x="1"/><B><A/></B><C/>`
	els := topLevelElements(text)
	if len(els) != 3 {
		t.Fatalf("got %d top-level elements, want 3", len(els))
	}
	if els[0].name != "A" || els[1].name != "B" || els[2].name != "C" {
		t.Fatalf("unexpected names: %s %s %s", els[0].name, els[1].name, els[2].name)
	}
}
