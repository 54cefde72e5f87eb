package soundlist

import (
	"strconv"
	"strings"
)

// element describes one located tag occurrence. Offsets index into the text
// the element was found in. For self-closing elements the inner span is empty
// and outerEnd equals end; for block elements outerEnd points just past the
// matching close tag.
type element struct {
	name        string
	start       int // index of '<'
	end         int // just past '>' of the open tag
	attrStart   int // attribute substring span inside the open tag
	attrEnd     int
	selfClosing bool
	innerStart  int
	innerEnd    int
	outerEnd    int
}

func (e element) attrText(text string) string {
	return text[e.attrStart:e.attrEnd]
}

func (e element) inner(text string) string {
	return text[e.innerStart:e.innerEnd]
}

func (e element) outer(text string) string {
	return text[e.start:e.outerEnd]
}

// findElement locates the first occurrence of <name ...> at or after from.
// Malformed or unterminated elements yield ok=false rather than an error;
// callers treat that as an ordinary not-found condition.
func findElement(text, name string, from int) (element, bool) {
	for i := from; i < len(text); {
		idx := strings.Index(text[i:], "<"+name)
		if idx < 0 {
			return element{}, false
		}
		start := i + idx
		after := start + 1 + len(name)
		if after < len(text) && !isTagBoundary(text[after]) {
			// Prefix of a longer tag name, keep scanning.
			i = start + 1
			continue
		}
		el, ok := completeElement(text, name, start)
		if !ok {
			return element{}, false
		}
		return el, true
	}
	return element{}, false
}

// completeElement fills in the spans of an element whose open tag starts at
// start. Block elements are terminated by scanning forward while counting
// nested occurrences of the same tag name; self-closing occurrences are
// depth-neutral.
func completeElement(text, name string, start int) (element, bool) {
	attrStart := start + 1 + len(name)
	gt, selfClosing, ok := findTagEnd(text, attrStart)
	if !ok {
		return element{}, false
	}
	el := element{
		name:      name,
		start:     start,
		end:       gt + 1,
		attrStart: attrStart,
		attrEnd:   gt,
		selfClosing: selfClosing,
	}
	if selfClosing {
		el.attrEnd = gt - 1 // exclude the '/'
		el.innerStart = el.end
		el.innerEnd = el.end
		el.outerEnd = el.end
		return el, true
	}

	el.innerStart = el.end
	depth := 0
	openToken := "<" + name
	closeToken := "</" + name + ">"
	for i := el.end; i < len(text); {
		next := strings.IndexByte(text[i:], '<')
		if next < 0 {
			return element{}, false
		}
		pos := i + next
		if strings.HasPrefix(text[pos:], closeToken) {
			if depth == 0 {
				el.innerEnd = pos
				el.outerEnd = pos + len(closeToken)
				return el, true
			}
			depth--
			i = pos + len(closeToken)
			continue
		}
		if strings.HasPrefix(text[pos:], openToken) {
			after := pos + len(openToken)
			if after < len(text) && isTagBoundary(text[after]) {
				gt2, self, ok := findTagEnd(text, after)
				if !ok {
					return element{}, false
				}
				if !self {
					depth++
				}
				i = gt2 + 1
				continue
			}
		}
		i = pos + 1
	}
	return element{}, false
}

// findTagEnd scans from the end of a tag name to the closing '>' of the open
// tag, honoring quoted attribute values. Returns the index of '>' and whether
// the tag is self-closing.
func findTagEnd(text string, from int) (gt int, selfClosing bool, ok bool) {
	var quote byte
	for i := from; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '>':
			return i, i > from && text[i-1] == '/', true
		case '<':
			// A new tag opened before this one closed.
			return 0, false, false
		}
	}
	return 0, false, false
}

func isTagBoundary(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '>', '/':
		return true
	}
	return false
}

// topLevelElements returns the elements of any name found at depth 0 relative
// to the given slice of text. Scanning stops at the first malformed element.
func topLevelElements(text string) []element {
	var out []element
	i := 0
	for i < len(text) {
		lt := strings.IndexByte(text[i:], '<')
		if lt < 0 {
			break
		}
		pos := i + lt
		name := tagNameAt(text, pos)
		if name == "" {
			i = pos + 1
			continue
		}
		el, ok := completeElement(text, name, pos)
		if !ok {
			break
		}
		out = append(out, el)
		i = el.outerEnd
	}
	return out
}

// tagNameAt reads the tag name of an open tag starting at pos, or "" when pos
// does not start an open tag (close tags included).
func tagNameAt(text string, pos int) string {
	if pos >= len(text) || text[pos] != '<' {
		return ""
	}
	i := pos + 1
	if i < len(text) && text[i] == '/' {
		return ""
	}
	start := i
	for i < len(text) && !isTagBoundary(text[i]) && text[i] != '<' {
		i++
	}
	if i == start || i >= len(text) {
		return ""
	}
	return text[start:i]
}

// attrSpan locates the value span of the first occurrence of key inside the
// attribute substring. The returned offsets are relative to attrText and
// exclude the quotes. First match wins when an attribute is duplicated.
func attrSpan(attrText, key string) (valStart, valEnd int, ok bool) {
	i := 0
	for i < len(attrText) {
		idx := strings.Index(attrText[i:], key)
		if idx < 0 {
			return 0, 0, false
		}
		pos := i + idx
		// Must be preceded by whitespace and followed by '='.
		if pos > 0 && !isSpace(attrText[pos-1]) {
			i = pos + 1
			continue
		}
		j := pos + len(key)
		for j < len(attrText) && isSpace(attrText[j]) {
			j++
		}
		if j >= len(attrText) || attrText[j] != '=' {
			i = pos + 1
			continue
		}
		j++
		for j < len(attrText) && isSpace(attrText[j]) {
			j++
		}
		if j >= len(attrText) || (attrText[j] != '"' && attrText[j] != '\'') {
			i = pos + 1
			continue
		}
		quote := attrText[j]
		j++
		end := strings.IndexByte(attrText[j:], quote)
		if end < 0 {
			return 0, 0, false
		}
		return j, j + end, true
	}
	return 0, 0, false
}

// attrValue extracts and decodes the first instance of the named attribute.
func attrValue(attrText, key string) (string, bool) {
	start, end, ok := attrSpan(attrText, key)
	if !ok {
		return "", false
	}
	return decodeEntities(attrText[start:end]), true
}

var entityEncoder = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

// encodeEntities escapes an attribute value for writing back into the
// document.
func encodeEntities(s string) string {
	return entityEncoder.Replace(s)
}

// decodeEntities resolves the standard named entities plus numeric character
// references. Unknown entities pass through untouched, matching how the
// soundboard itself tolerates them.
func decodeEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 {
			b.WriteString(s[i:])
			break
		}
		entity := s[i+1 : i+semi]
		if decoded, ok := decodeEntity(entity); ok {
			b.WriteString(decoded)
		} else {
			b.WriteString(s[i : i+semi+1])
		}
		i += semi + 1
	}
	return b.String()
}

func decodeEntity(entity string) (string, bool) {
	switch entity {
	case "amp":
		return "&", true
	case "lt":
		return "<", true
	case "gt":
		return ">", true
	case "quot":
		return "\"", true
	case "apos":
		return "'", true
	}
	if strings.HasPrefix(entity, "#") {
		numeric := entity[1:]
		base := 10
		if strings.HasPrefix(numeric, "x") || strings.HasPrefix(numeric, "X") {
			numeric = numeric[1:]
			base = 16
		}
		code, err := strconv.ParseInt(numeric, base, 32)
		if err != nil || code < 0 {
			return "", false
		}
		return string(rune(code)), true
	}
	return "", false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
