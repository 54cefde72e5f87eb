package soundlist

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Tag names used by the soundboard's document grammar.
const (
	rootTag     = "Soundlist"
	soundTag    = "Sound"
	categoryTag = "Categories"
	nodeTag     = "Category"
)

var (
	// ErrMalformed indicates the document's root or category structure could
	// not be located.
	ErrMalformed = errors.New("malformed soundlist document")
	// ErrCategoryNotFound indicates no category matched the requested name or
	// path.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryAmbiguous indicates a bare category name matched more than
	// one node; callers must disambiguate with a slash-separated path.
	ErrCategoryAmbiguous = errors.New("category name is ambiguous")
	// ErrDefinitionNotFound indicates the referenced definition id does not
	// exist in the flat list.
	ErrDefinitionNotFound = errors.New("sound definition not found")
	// ErrOrdinalOutOfRange indicates an element ordinal beyond the number of
	// matching elements in the document.
	ErrOrdinalOutOfRange = errors.New("element ordinal out of range")
)

// Definition is one entry of the flat sound list. Identity is positional:
// the id of a definition is its 0-based index in the list and exists nowhere
// in the document text.
type Definition struct {
	URL      string
	Tag      string
	Artist   string
	Title    string
	Duration string
}

// defNode is a parsed definition handle with its location in the raw text.
type defNode struct {
	el  element
	def Definition
}

// refNode is a reference leaf inside the category tree, holding the id of a
// definition by flat-list position.
type refNode struct {
	el      element
	id      int
	idStart int // absolute span of the id attribute value
	idEnd   int
	parent  *catNode
}

// catNode is one node of the category tree. Unnamed or hidden nodes are
// system-internal and excluded from user-visible ordering.
type catNode struct {
	el     element
	name   string
	hidden bool
	indent string
	parent *catNode

	children []child
}

// child is either a nested category node or a reference leaf.
type child struct {
	cat *catNode
	ref *refNode
}

func (c *catNode) refs() []*refNode {
	out := make([]*refNode, 0, len(c.children))
	for _, ch := range c.children {
		if ch.ref != nil {
			out = append(out, ch.ref)
		}
	}
	return out
}

func (c *catNode) path() string {
	if c.parent == nil {
		return c.name
	}
	return c.parent.path() + "/" + c.name
}

// Document is a parsed soundlist. It keeps the raw text and a tree of node
// handles whose spans index into it; rendering applies edits as localized
// splices so untouched regions survive byte-for-byte.
type Document struct {
	raw  string
	root element

	defs []*defNode

	// catSection is the <Categories> block; nil when the document has none.
	catSection       *element
	catSectionIndent string
	topCats          []*catNode
}

// Parse builds the node tree for a raw soundlist document.
func Parse(text string) (*Document, error) {
	root, ok := findElement(text, rootTag, 0)
	if !ok || root.selfClosing {
		return nil, fmt.Errorf("%w: missing <%s> root", ErrMalformed, rootTag)
	}
	doc := &Document{raw: text, root: root}

	catSection, haveCats := findElement(text, categoryTag, root.innerStart)
	if haveCats && catSection.start >= root.innerEnd {
		haveCats = false
	}

	// Flat definitions are the self-closing <Sound/> elements that sit at the
	// top level of the root, before the category section.
	i := root.innerStart
	for {
		el, ok := findElement(text, soundTag, i)
		if !ok || el.start >= root.innerEnd || !el.selfClosing {
			break
		}
		if haveCats && el.start > catSection.start {
			break
		}
		def := Definition{}
		attrText := el.attrText(text)
		def.URL, _ = attrValue(attrText, "url")
		def.Tag, _ = attrValue(attrText, "tag")
		def.Artist, _ = attrValue(attrText, "artist")
		def.Title, _ = attrValue(attrText, "title")
		def.Duration, _ = attrValue(attrText, "duration")
		doc.defs = append(doc.defs, &defNode{el: el, def: def})
		i = el.outerEnd
	}

	if haveCats {
		doc.catSection = &catSection
		doc.catSectionIndent = lineIndent(text, catSection.start)
		var err error
		doc.topCats, err = parseCatChildren(text, catSection.innerStart, catSection.innerEnd, nil)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// parseCatChildren walks one nesting level of the category tree.
func parseCatChildren(text string, from, to int, parent *catNode) ([]*catNode, error) {
	var nodes []*catNode
	i := from
	for {
		el, ok := findElement(text, nodeTag, i)
		if !ok || el.start >= to {
			break
		}
		node := &catNode{el: el, parent: parent, indent: lineIndent(text, el.start)}
		attrText := el.attrText(text)
		node.name, _ = attrValue(attrText, "name")
		if hidden, ok := attrValue(attrText, "hidden"); ok {
			node.hidden = hidden == "true" || hidden == "1"
		}
		if !el.selfClosing {
			if err := parseNodeChildren(text, node); err != nil {
				return nil, err
			}
		}
		nodes = append(nodes, node)
		i = el.outerEnd
	}
	return nodes, nil
}

// parseNodeChildren collects a node's direct children: nested category nodes
// and reference leaves, in document order.
func parseNodeChildren(text string, node *catNode) error {
	i := node.el.innerStart
	for i < node.el.innerEnd {
		lt := strings.IndexByte(text[i:node.el.innerEnd], '<')
		if lt < 0 {
			break
		}
		pos := i + lt
		switch tagNameAt(text, pos) {
		case nodeTag:
			el, ok := completeElement(text, nodeTag, pos)
			if !ok {
				return fmt.Errorf("%w: unterminated <%s>", ErrMalformed, nodeTag)
			}
			sub := &catNode{el: el, parent: node, indent: lineIndent(text, el.start)}
			attrText := el.attrText(text)
			sub.name, _ = attrValue(attrText, "name")
			if hidden, ok := attrValue(attrText, "hidden"); ok {
				sub.hidden = hidden == "true" || hidden == "1"
			}
			if !el.selfClosing {
				if err := parseNodeChildren(text, sub); err != nil {
					return err
				}
			}
			node.children = append(node.children, child{cat: sub})
			i = el.outerEnd
		case soundTag:
			el, ok := completeElement(text, soundTag, pos)
			if !ok {
				return fmt.Errorf("%w: unterminated <%s>", ErrMalformed, soundTag)
			}
			ref := &refNode{el: el, parent: node, id: -1}
			attrText := el.attrText(text)
			if vs, ve, ok := attrSpan(attrText, "id"); ok {
				ref.idStart = el.attrStart + vs
				ref.idEnd = el.attrStart + ve
				ref.id = parseInt(attrText[vs:ve], -1)
			}
			node.children = append(node.children, child{ref: ref})
			i = el.outerEnd
		default:
			i = pos + 1
		}
	}
	return nil
}

// walkRefs visits every reference leaf in the category tree in document
// order.
func (d *Document) walkRefs(fn func(*refNode)) {
	var walk func(*catNode)
	walk = func(n *catNode) {
		for _, ch := range n.children {
			if ch.ref != nil {
				fn(ch.ref)
			}
			if ch.cat != nil {
				walk(ch.cat)
			}
		}
	}
	for _, n := range d.topCats {
		walk(n)
	}
}

// walkCats visits every category node depth-first in document order.
func (d *Document) walkCats(fn func(*catNode)) {
	var walk func(*catNode)
	walk = func(n *catNode) {
		fn(n)
		for _, ch := range n.children {
			if ch.cat != nil {
				walk(ch.cat)
			}
		}
	}
	for _, n := range d.topCats {
		walk(n)
	}
}

// visibleTopCats returns the top-level nodes that participate in user-visible
// ordering: named and not hidden.
func (d *Document) visibleTopCats() []*catNode {
	var out []*catNode
	for _, n := range d.topCats {
		if n.name != "" && !n.hidden {
			out = append(out, n)
		}
	}
	return out
}

// resolveCategory finds the category addressed by a slash-separated path. A
// bare name is accepted when it matches exactly one node anywhere in the
// tree; multiple matches yield ErrCategoryAmbiguous rather than silently
// picking one.
func (d *Document) resolveCategory(path string) (*catNode, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: empty category path", ErrCategoryNotFound)
	}

	if len(segments) == 1 {
		var matches []*catNode
		d.walkCats(func(n *catNode) {
			if n.name == segments[0] {
				matches = append(matches, n)
			}
		})
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, path)
		case 1:
			return matches[0], nil
		default:
			paths := make([]string, 0, len(matches))
			for _, m := range matches {
				paths = append(paths, m.path())
			}
			sort.Strings(paths)
			return nil, fmt.Errorf("%w: %q matches %s", ErrCategoryAmbiguous, path, strings.Join(paths, ", "))
		}
	}

	level := d.topCats
	var current *catNode
	for _, segment := range segments {
		var matches []*catNode
		for _, n := range level {
			if n.name == segment {
				matches = append(matches, n)
			}
		}
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("%w: %q (segment %q)", ErrCategoryNotFound, path, segment)
		case 1:
			current = matches[0]
		default:
			return nil, fmt.Errorf("%w: %q (segment %q)", ErrCategoryAmbiguous, path, segment)
		}
		level = nil
		for _, ch := range current.children {
			if ch.cat != nil {
				level = append(level, ch.cat)
			}
		}
	}
	return current, nil
}

// edit is one splice against the raw text: replace [start,end) with text.
type edit struct {
	start int
	end   int
	text  string
}

// applyEdits splices all edits into the raw text in one pass. Edits must not
// overlap; they are applied in position order regardless of how they were
// collected.
func applyEdits(raw string, edits []edit) (string, error) {
	if len(edits) == 0 {
		return raw, nil
	}
	sorted := make([]edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end < sorted[j].end
	})
	var b strings.Builder
	b.Grow(len(raw) + 256)
	prev := 0
	for _, e := range sorted {
		if e.start < prev || e.end < e.start || e.end > len(raw) {
			return "", fmt.Errorf("%w: overlapping edits", ErrMalformed)
		}
		b.WriteString(raw[prev:e.start])
		b.WriteString(e.text)
		prev = e.end
	}
	b.WriteString(raw[prev:])
	return b.String(), nil
}

// removalSpan widens an element span to swallow the indentation run and the
// newline that precede it, so removing the element does not leave a blank
// line behind.
func removalSpan(raw string, el element) (int, int) {
	start := el.start
	for start > 0 && (raw[start-1] == ' ' || raw[start-1] == '\t') {
		start--
	}
	if start > 0 && raw[start-1] == '\n' {
		start--
		if start > 0 && raw[start-1] == '\r' {
			start--
		}
	}
	return start, el.outerEnd
}

// lineIndent returns the whitespace run between the previous newline and
// pos.
func lineIndent(raw string, pos int) string {
	start := pos
	for start > 0 && (raw[start-1] == ' ' || raw[start-1] == '\t') {
		start--
	}
	return raw[start:pos]
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseInt(s string, fallback int) int {
	n := 0
	if s == "" {
		return fallback
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}
