// Package registry implements forg's provider registry: a type-indexed
// table mapping a provider kind and a name to a factory, populated once
// at process bootstrap and read-only afterwards (spec.md §4.1).
package registry

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/forgcli/forg/internal/forgerr"
)

// Kind identifies one provider contract (scanner, content hasher,
// perceptual hasher, metadata reader, OCR, classifier).
type Kind string

const (
	KindScanner         Kind = "scanner"
	KindContentHasher    Kind = "content_hasher"
	KindPerceptualHasher Kind = "perceptual_hasher"
	KindMetadataReader   Kind = "metadata_reader"
	KindOCR              Kind = "ocr"
	KindClassifier       Kind = "classifier"
)

// Factory builds one provider instance. Factories are not expected to be
// pure; a factory that panics or errors surfaces to the caller unchanged.
type Factory func() (any, error)

// Registry is one logical registry for a single Kind. It is safe for
// concurrent Create/Names calls once Freeze has been called; Add after
// Freeze panics, matching the "no further add once bootstrap completes"
// contract of spec.md §4.1.
type Registry struct {
	kind     Kind
	mu       sync.RWMutex
	frozen   atomic.Bool
	factories map[string]Factory
}

// New creates an empty registry for kind.
func New(kind Kind) *Registry {
	return &Registry{kind: kind, factories: make(map[string]Factory)}
}

// Add registers factory under name, replacing any prior factory with the
// same name. Panics if called after Freeze.
func (r *Registry) Add(name string, factory Factory) {
	if r.frozen.Load() {
		panic(fmt.Sprintf("registry(%s): Add(%q) after Freeze", r.kind, name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Freeze marks the registry read-only. Idempotent.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

// Create builds a new instance of the named provider. Returns a NotFound
// forgerr if name is unregistered; otherwise returns whatever the factory
// returns, including its error unchanged.
func (r *Registry) Create(name string) (any, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, forgerr.Newf(forgerr.NotFound, "registry.Create", "%s provider %q not registered", r.kind, name)
	}
	return f()
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Set bundles the registries for every provider kind forg knows about. One
// Set is built during bootstrap and shared by every Engine constructed in
// the process.
type Set struct {
	Scanner         *Registry
	ContentHasher    *Registry
	PerceptualHasher *Registry
	MetadataReader   *Registry
	OCR              *Registry
	Classifier       *Registry
}

// NewSet builds an empty registry for each provider kind.
func NewSet() *Set {
	return &Set{
		Scanner:          New(KindScanner),
		ContentHasher:    New(KindContentHasher),
		PerceptualHasher: New(KindPerceptualHasher),
		MetadataReader:   New(KindMetadataReader),
		OCR:              New(KindOCR),
		Classifier:       New(KindClassifier),
	}
}

// Freeze freezes every registry in the set.
func (s *Set) Freeze() {
	s.Scanner.Freeze()
	s.ContentHasher.Freeze()
	s.PerceptualHasher.Freeze()
	s.MetadataReader.Freeze()
	s.OCR.Freeze()
	s.Classifier.Freeze()
}
