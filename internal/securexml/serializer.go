package securexml

import (
	"sync/atomic"

	"github.com/beevik/etree"
)

// Serializer converts one element subtree into markup text. Its write
// settings are fixed at construction and never mutated afterward, so a
// single instance is shared by all extraction calls.
type Serializer struct {
	settings etree.WriteSettings
}

var serializerCache atomic.Pointer[Serializer]

// SharedSerializer returns the process-wide Serializer, constructing it on
// first use with the same atomic publish discipline as SharedLoader.
func SharedSerializer() (*Serializer, error) {
	if s := serializerCache.Load(); s != nil {
		return s, nil
	}
	s, err := newSerializer()
	if err != nil {
		return nil, err
	}
	if !serializerCache.CompareAndSwap(nil, s) {
		return serializerCache.Load(), nil
	}
	return s, nil
}

func newSerializer() (*Serializer, error) {
	// Output carries no XML declaration and no added indentation: a subtree
	// document has no prolog, and indentation is only produced on request.
	// Strings are written out as UTF-8, matching the decoded tree.
	return &Serializer{settings: etree.WriteSettings{}}, nil
}

// Subtree serializes el and its entire subtree (opening tag, attributes,
// nested content, closing tag) to markup. The element is copied first so
// serialization never detaches or mutates the source tree.
func (s *Serializer) Subtree(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.WriteSettings = s.settings
	doc.SetRoot(el.Copy())
	return doc.WriteToString()
}
