package soundlist

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"soundbridge/internal/textutil"
)

// childIndentUnit is appended to a category's own indentation when a new
// reference becomes its first child and there is no sibling to copy from.
const childIndentUnit = "  "

// Change describes one applied mutation for journaling and logging.
type Change struct {
	Operation   string
	Detail      string
	AssignedID  int
	RemovedRefs int
	Renumbered  int
}

// Result carries the updated document text alongside the change description.
// On failure the input text is returned byte-identical by every operation.
type Result struct {
	Text   string
	Change Change
}

// InsertDefinition appends a new flat entry immediately before the category
// section, or at the end of the root when the document has none. The assigned
// id is the current count of flat entries.
func InsertDefinition(text string, def Definition) (Result, error) {
	doc, err := Parse(text)
	if err != nil {
		return Result{Text: text}, err
	}

	id := len(doc.defs)
	defText := renderDefinition(def)
	var e edit
	switch {
	case len(doc.defs) > 0:
		last := doc.defs[len(doc.defs)-1]
		e = edit{start: last.el.outerEnd, end: last.el.outerEnd, text: "\n" + lineIndent(text, last.el.start) + defText}
	case doc.catSection != nil:
		at := doc.catSection.start - len(doc.catSectionIndent)
		e = edit{start: at, end: at, text: doc.catSectionIndent + defText + "\n"}
	default:
		closeIndent := lineIndent(text, doc.root.innerEnd)
		at := doc.root.innerEnd - len(closeIndent)
		e = edit{start: at, end: at, text: closeIndent + childIndentUnit + defText + "\n"}
	}

	updated, err := applyEdits(text, []edit{e})
	if err != nil {
		return Result{Text: text}, err
	}
	return Result{
		Text: updated,
		Change: Change{
			Operation:  "insert_definition",
			Detail:     fmt.Sprintf("added sound %q as id %d", def.Tag, id),
			AssignedID: id,
		},
	}, nil
}

// InsertReference places a reference to the definition id inside the category
// addressed by categoryPath, at the given position among that category's
// direct references. Any existing reference to id elsewhere in the tree is
// stripped first so a reference lives in exactly one category; position is
// clamped to [0, direct reference count] after stripping.
func InsertReference(text, categoryPath string, id, position int) (Result, error) {
	doc, err := Parse(text)
	if err != nil {
		return Result{Text: text}, err
	}
	if id < 0 || id >= len(doc.defs) {
		return Result{Text: text}, fmt.Errorf("%w: id %d (have %d definitions)", ErrDefinitionNotFound, id, len(doc.defs))
	}
	target, err := doc.resolveCategory(categoryPath)
	if err != nil {
		return Result{Text: text}, err
	}
	if target.el.selfClosing {
		return Result{Text: text}, fmt.Errorf("%w: %q cannot hold references", ErrCategoryNotFound, categoryPath)
	}

	var edits []edit
	stripped := 0
	doc.walkRefs(func(r *refNode) {
		if r.id != id {
			return
		}
		start, end := removalSpan(text, r.el)
		edits = append(edits, edit{start: start, end: end})
		stripped++
	})

	// Position counting happens after stripping: surviving direct references
	// of the target are the insertion anchors.
	var surviving []*refNode
	for _, r := range target.refs() {
		if r.id != id {
			surviving = append(surviving, r)
		}
	}
	if position < 0 {
		position = 0
	}
	if position > len(surviving) {
		position = len(surviving)
	}

	refText := fmt.Sprintf("<%s id=%q/>", soundTag, strconv.Itoa(id))
	switch {
	case position < len(surviving):
		at := surviving[position].el.start
		edits = append(edits, edit{start: at, end: at, text: refText + "\n" + lineIndent(text, at)})
	case len(surviving) > 0:
		last := surviving[len(surviving)-1]
		at := last.el.outerEnd
		edits = append(edits, edit{start: at, end: at, text: "\n" + lineIndent(text, last.el.start) + refText})
	default:
		at := target.el.end
		edits = append(edits, edit{start: at, end: at, text: "\n" + target.indent + childIndentUnit + refText})
	}

	updated, err := applyEdits(text, edits)
	if err != nil {
		return Result{Text: text}, err
	}
	return Result{
		Text: updated,
		Change: Change{
			Operation:   "insert_reference",
			Detail:      fmt.Sprintf("placed id %d in %q at position %d", id, target.path(), position),
			RemovedRefs: stripped,
		},
	}, nil
}

// RemoveReference removes every reference to id from the category tree
// without renumbering. Used when a reference moves or is detached while its
// definition survives.
func RemoveReference(text string, id int) (Result, error) {
	doc, err := Parse(text)
	if err != nil {
		return Result{Text: text}, err
	}
	var edits []edit
	removed := 0
	doc.walkRefs(func(r *refNode) {
		if r.id != id {
			return
		}
		start, end := removalSpan(text, r.el)
		edits = append(edits, edit{start: start, end: end})
		removed++
	})
	updated, err := applyEdits(text, edits)
	if err != nil {
		return Result{Text: text}, err
	}
	return Result{
		Text: updated,
		Change: Change{
			Operation:   "remove_reference",
			Detail:      fmt.Sprintf("detached id %d", id),
			RemovedRefs: removed,
		},
	}, nil
}

// RemoveAndRenumber deletes the definition at id, removes every reference to
// it, and decrements every reference with a greater id by one. All decisions
// are taken against the parsed snapshot before any splice is applied, so
// already-shifted references are never re-scanned.
func RemoveAndRenumber(text string, id int) (Result, error) {
	doc, err := Parse(text)
	if err != nil {
		return Result{Text: text}, err
	}
	if id < 0 || id >= len(doc.defs) {
		return Result{Text: text}, fmt.Errorf("%w: id %d (have %d definitions)", ErrDefinitionNotFound, id, len(doc.defs))
	}

	var edits []edit
	start, end := removalSpan(text, doc.defs[id].el)
	edits = append(edits, edit{start: start, end: end})

	removed := 0
	renumbered := 0
	doc.walkRefs(func(r *refNode) {
		switch {
		case r.id == id:
			s, e := removalSpan(text, r.el)
			edits = append(edits, edit{start: s, end: e})
			removed++
		case r.id > id:
			edits = append(edits, edit{start: r.idStart, end: r.idEnd, text: strconv.Itoa(r.id - 1)})
			renumbered++
		}
	})

	updated, err := applyEdits(text, edits)
	if err != nil {
		return Result{Text: text}, err
	}
	return Result{
		Text: updated,
		Change: Change{
			Operation:   "remove_and_renumber",
			Detail:      fmt.Sprintf("removed id %d", id),
			RemovedRefs: removed,
			Renumbered:  renumbered,
		},
	}, nil
}

// ReorderCategory moves the named top-level category to targetPosition among
// the visible (named, non-hidden) top-level categories. Hidden and unnamed
// nodes keep their slots. Reordering to the current position returns the
// input byte-identical.
func ReorderCategory(text, name string, targetPosition int) (Result, error) {
	doc, err := Parse(text)
	if err != nil {
		return Result{Text: text}, err
	}
	visible := doc.visibleTopCats()
	current := -1
	for i, n := range visible {
		if n.name == name {
			if current >= 0 {
				return Result{Text: text}, fmt.Errorf("%w: %q", ErrCategoryAmbiguous, name)
			}
			current = i
		}
	}
	if current < 0 {
		return Result{Text: text}, fmt.Errorf("%w: %q", ErrCategoryNotFound, name)
	}
	if targetPosition < 0 {
		targetPosition = 0
	}
	if targetPosition > len(visible)-1 {
		targetPosition = len(visible) - 1
	}
	if targetPosition == current {
		return Result{Text: text, Change: Change{
			Operation: "reorder_category",
			Detail:    fmt.Sprintf("%q already at position %d", name, current),
		}}, nil
	}

	// Permute the visible nodes, then write each one back into the original
	// slot sequence. Separator whitespace and hidden nodes stay where they
	// are; only slot contents change.
	order := make([]*catNode, 0, len(visible))
	order = append(order, visible...)
	moved := order[current]
	order = append(order[:current], order[current+1:]...)
	order = append(order[:targetPosition], append([]*catNode{moved}, order[targetPosition:]...)...)

	var edits []edit
	for i, slot := range visible {
		if order[i] == slot {
			continue
		}
		edits = append(edits, edit{start: slot.el.start, end: slot.el.outerEnd, text: order[i].el.outer(text)})
	}

	updated, err := applyEdits(text, edits)
	if err != nil {
		return Result{Text: text}, err
	}
	return Result{
		Text: updated,
		Change: Change{
			Operation: "reorder_category",
			Detail:    fmt.Sprintf("moved %q from position %d to %d", name, current, targetPosition),
		},
	}, nil
}

// UpdateAttributes rewrites attributes on the ordinal-th (1-based, document
// order, any depth) element with the given tag name. Attributes present on
// the element are replaced in place; missing ones are appended before the
// tag's closing delimiter. Values are entity-encoded on write.
func UpdateAttributes(text, tagName string, ordinal int, attrs map[string]string) (Result, error) {
	if ordinal < 1 {
		return Result{Text: text}, fmt.Errorf("%w: ordinal %d", ErrOrdinalOutOfRange, ordinal)
	}
	el, ok := nthElement(text, tagName, ordinal)
	if !ok {
		return Result{Text: text}, fmt.Errorf("%w: no %s element at ordinal %d", ErrOrdinalOutOfRange, tagName, ordinal)
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var edits []edit
	attrText := text[el.attrStart:el.attrEnd]
	for _, key := range keys {
		encoded := encodeEntities(textutil.NormalizeDisplay(attrs[key]))
		if vs, ve, found := attrSpan(attrText, key); found {
			edits = append(edits, edit{start: el.attrStart + vs, end: el.attrStart + ve, text: encoded})
			continue
		}
		at := el.attrEnd
		edits = append(edits, edit{start: at, end: at, text: fmt.Sprintf(" %s=%q", key, encoded)})
	}

	updated, err := applyEdits(text, edits)
	if err != nil {
		return Result{Text: text}, err
	}
	return Result{
		Text: updated,
		Change: Change{
			Operation: "update_attributes",
			Detail:    fmt.Sprintf("updated %s #%d (%s)", tagName, ordinal, strings.Join(keys, ", ")),
		},
	}, nil
}

// nthElement locates the ordinal-th occurrence of tagName anywhere in the
// document, counting in document order.
func nthElement(text, tagName string, ordinal int) (element, bool) {
	i := 0
	for n := 0; ; n++ {
		el, ok := findElement(text, tagName, i)
		if !ok {
			return element{}, false
		}
		if n == ordinal-1 {
			return el, true
		}
		// Nested same-name elements count too, so only step past the open
		// tag rather than the whole block.
		i = el.end
	}
}

// renderDefinition serializes a flat entry. Attribute order matches what the
// soundboard itself writes.
func renderDefinition(def Definition) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(soundTag)
	writeAttr(&b, "url", def.URL)
	writeAttr(&b, "tag", textutil.NormalizeDisplay(def.Tag))
	writeAttr(&b, "artist", textutil.NormalizeDisplay(def.Artist))
	writeAttr(&b, "title", textutil.NormalizeDisplay(def.Title))
	writeAttr(&b, "duration", def.Duration)
	b.WriteString("/>")
	return b.String()
}

func writeAttr(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(encodeEntities(value))
	b.WriteByte('"')
}
