// Package securexml parses XML with a configuration hardened against
// entity-expansion and DOCTYPE-based attacks, and serializes element
// subtrees back to markup without re-indentation. The loader and the
// serializer are process-wide singletons, immutable once published and
// safe for concurrent use.
package securexml

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
)

// maxDocumentBytes caps parser input as a resource-exhaustion guard.
const maxDocumentBytes = 10 << 20

// Loader parses XML bytes into a fresh document tree per call. Its read
// settings are fixed at construction.
type Loader struct {
	settings      etree.ReadSettings
	rejectDoctype bool
}

var loaderCache atomic.Pointer[Loader]

// SharedLoader returns the process-wide Loader, constructing it on first
// use. Concurrent first calls may each build a candidate; exactly one wins
// the compare-and-swap and the losers are discarded unused. No lock is held
// during construction.
func SharedLoader() (*Loader, error) {
	if l := loaderCache.Load(); l != nil {
		return l, nil
	}
	l, err := newLoader()
	if err != nil {
		return nil, err
	}
	if !loaderCache.CompareAndSwap(nil, l) {
		return loaderCache.Load(), nil
	}
	return l, nil
}

func newLoader() (*Loader, error) {
	l := &Loader{
		settings: etree.ReadSettings{
			// Strict, validating decode. No Entity table: only the XML
			// predefined entities and character references resolve, so any
			// custom entity reference is a parse error and nothing is ever
			// fetched to satisfy one.
			Permissive:    false,
			ValidateInput: true,
			PreserveCData: true,
			CharsetReader: charset.NewReaderLabel,
		},
	}
	if err := verifyEntityLockdown(l.settings); err != nil {
		return nil, fmt.Errorf("configure secure XML loader: %w", err)
	}
	applyOptional("disallow-doctype-decl", func() error {
		probe := etree.NewDocument()
		probe.ReadSettings = l.settings
		if err := probe.ReadFromString(`<!DOCTYPE probe SYSTEM "probe.dtd"><probe/>`); err != nil {
			// An engine that refuses DOCTYPE outright is equally safe.
			return nil
		}
		if !hasDoctype(probe) {
			return errors.New("doctype directives are not observable after parse")
		}
		l.rejectDoctype = true
		return nil
	})
	applyOptional("external-general-entities", func() error {
		// The decode path has no fetch facility; nothing to switch off.
		return nil
	})
	applyOptional("external-parameter-entities", func() error {
		return nil
	})
	return l, nil
}

// verifyEntityLockdown confirms the configured decoder treats an undefined
// entity reference as a hard error rather than resolving it. This guard is
// mandatory; a loader that fails it is never published.
func verifyEntityLockdown(settings etree.ReadSettings) error {
	probe := etree.NewDocument()
	probe.ReadSettings = settings
	if err := probe.ReadFromString("<probe>&ext;</probe>"); err == nil {
		return errors.New("decoder resolved an undefined entity reference")
	}
	return nil
}

// applyOptional applies a best-effort hardening toggle. A toggle the engine
// cannot honor lowers the hardening level and is logged, but configuration
// continues.
func applyOptional(name string, apply func() error) {
	if err := apply(); err != nil {
		log.Warn().Str("feature", name).Err(err).Msg("XML hardening toggle unsupported, continuing without it")
	}
}

// Parse builds a document tree from data. Trees are single-use: each call
// returns a private tree that is never cached or shared.
func (l *Loader) Parse(data []byte) (*etree.Document, error) {
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("document size %d exceeds %d byte limit", len(data), maxDocumentBytes)
	}
	doc := etree.NewDocument()
	doc.ReadSettings = l.settings
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if l.rejectDoctype && hasDoctype(doc) {
		// External entity definitions ride in on the DTD, so the whole
		// prolog is refused.
		return nil, errors.New("DOCTYPE declarations are not allowed")
	}
	return doc, nil
}

func hasDoctype(doc *etree.Document) bool {
	for _, tok := range doc.Child {
		if d, ok := tok.(*etree.Directive); ok && strings.HasPrefix(strings.TrimSpace(d.Data), "DOCTYPE") {
			return true
		}
	}
	return false
}
