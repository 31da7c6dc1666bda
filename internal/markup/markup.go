// Package markup assembles the inner-markup string for an element: its
// child nodes rendered back to XML text in document order.
package markup

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"
)

// defaultBufferSize floors the output buffer presize when the content
// estimate comes out small.
const defaultBufferSize = 4096

// SubtreeSerializer renders one element subtree as markup text.
// Implementations must be safe for concurrent use.
type SubtreeSerializer interface {
	Subtree(el *etree.Element) (string, error)
}

// Normalize coalesces text runs under el and its descendants: adjacent
// non-CDATA text nodes are merged and empty text nodes are dropped, so
// later serialization sees one node per text run. CDATA sections are left
// untouched and end any run in progress.
func Normalize(el *etree.Element) {
	var prev *etree.CharData
	var drop []etree.Token
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if t.IsCData() {
				prev = nil
				continue
			}
			if prev != nil {
				prev.Data += t.Data
				drop = append(drop, t)
				continue
			}
			if t.Data == "" {
				drop = append(drop, t)
				continue
			}
			prev = t
		case *etree.Element:
			prev = nil
			Normalize(t)
		default:
			prev = nil
		}
	}
	for _, tok := range drop {
		el.RemoveChild(tok)
	}
}

// Inner renders el's children in document order: text trimmed of leading
// and trailing whitespace (skipped entirely when empty after the trim),
// CDATA verbatim, and element children as full subtrees through ser.
// Comments, processing instructions, and directives are skipped. A child
// that fails to serialize is logged and skipped; the remaining children
// still emit, so one bad child never aborts the extraction.
func Inner(el *etree.Element, ser SubtreeSerializer) string {
	var b strings.Builder
	b.Grow(max(EstimateSize(el), defaultBufferSize))
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if t.IsCData() {
				b.WriteString(t.Data)
				continue
			}
			if text := strings.TrimSpace(t.Data); text != "" {
				b.WriteString(text)
			}
		case *etree.Element:
			s, err := ser.Subtree(t)
			if err != nil {
				log.Warn().Str("tag", t.Tag).Err(err).Msg("serializing child element failed, skipping")
				continue
			}
			b.WriteString(s)
		}
	}
	return b.String()
}

// EstimateSize approximates the rendered length of el's content: text and
// CDATA lengths plus a small per-element allowance for tag markup,
// recursively. Used only to presize the output buffer; never a
// correctness input.
func EstimateSize(el *etree.Element) int {
	n := 0
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			n += len(t.Data)
		case *etree.Element:
			n += len(t.Tag)*2 + 5
			n += EstimateSize(t)
		}
	}
	return n
}
