// Package xmlextract reads the inner markup of a single element out of an
// XML document: the element's child nodes, serialized back to markup text
// in document order. Parsing uses a hardened configuration that resists
// XML External Entity (XXE) and DOCTYPE-based attacks, and serialization
// is byte-faithful to the source subtree (no declaration, no re-indenting).
package xmlextract

import (
	"fmt"
	"os"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goxmlextract/internal/markup"
	"github.com/hyperifyio/goxmlextract/internal/securexml"
)

// FromFile extracts the inner markup of the first element named tag from
// the XML file at path. Text children are whitespace-trimmed, CDATA children
// are kept verbatim, and element children are serialized with their full
// subtree. found is false when no element matches; that is a normal result,
// not an error, and is distinct from a matching element with no content
// (which returns an empty string with found true).
func FromFile(path, tag string) (markupText string, found bool, err error) {
	if path == "" || tag == "" {
		return "", false, newError(KindInvalidArgument, "file path and tag name must not be empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", false, wrapError(KindFileAccess, fmt.Sprintf("cannot access XML file %s", path), err)
	}
	if !info.Mode().IsRegular() {
		return "", false, newError(KindFileAccess, fmt.Sprintf("not a regular file: %s", path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, wrapError(KindFileAccess, fmt.Sprintf("cannot read XML file %s", path), err)
	}
	return extract(data, tag, path)
}

// FromBytes is FromFile over an in-memory document.
func FromBytes(data []byte, tag string) (markupText string, found bool, err error) {
	if len(data) == 0 || tag == "" {
		return "", false, newError(KindInvalidArgument, "document bytes and tag name must not be empty")
	}
	return extract(data, tag, "")
}

func extract(data []byte, tag, path string) (string, bool, error) {
	loader, err := securexml.SharedLoader()
	if err != nil {
		return "", false, wrapError(KindConfiguration, "secure XML loader unavailable", err)
	}
	doc, err := loader.Parse(data)
	if err != nil {
		return "", false, wrapError(KindParse, fmt.Sprintf("parse XML document %s tag %s", path, tag), err)
	}
	root := doc.Root()
	if root == nil {
		return "", false, newError(KindParse, "document has no root element")
	}
	markup.Normalize(root)

	el := findFirst(root, tag)
	if el == nil {
		log.Debug().Str("tag", tag).Str("path", path).Msg("tag not found in document")
		return "", false, nil
	}

	ser, err := securexml.SharedSerializer()
	if err != nil {
		return "", false, wrapError(KindConfiguration, "secure XML serializer unavailable", err)
	}
	return markup.Inner(el, ser), true, nil
}

// findFirst returns the first element in document order, el included, whose
// local tag name equals tag. Matching is case-sensitive and ignores any
// namespace prefix.
func findFirst(el *etree.Element, tag string) *etree.Element {
	if el.Tag == tag {
		return el
	}
	for _, child := range el.ChildElements() {
		if m := findFirst(child, tag); m != nil {
			return m
		}
	}
	return nil
}
