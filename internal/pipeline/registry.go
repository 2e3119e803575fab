package pipeline

import (
	"fmt"

	"github.com/annotext/batch-annotator/internal/annotator"
	"github.com/annotext/batch-annotator/internal/objstore"
)

// Descriptor is a named transformation stage: a pure function from an
// annotated document to an output file record.
type Descriptor interface {
	Name() string
	Transform(doc annotator.Document) (objstore.FileRecord, error)
}

type NotFoundError struct {
	error
}

func NewNotFoundError(name string) *NotFoundError {
	return &NotFoundError{fmt.Errorf("unknown analysis type %q", name)}
}

// Registry maps analysis-type names to transformation stages. It is built
// once at startup and read-only thereafter; lookup is exact and
// case-sensitive, with no default on miss.
type Registry struct {
	descriptors map[string]Descriptor
}

// NewRegistry builds the registry from the fixed set of built-in pipelines.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[string]Descriptor)}
	for _, d := range []Descriptor{
		sentencesDescriptor{},
		cluSentencesDescriptor{},
	} {
		r.descriptors[d.Name()] = d
	}
	return r
}

func (r *Registry) Resolve(name string) (Descriptor, error) {
	d, ok := r.descriptors[name]
	if !ok {
		return nil, NewNotFoundError(name)
	}
	return d, nil
}

// Names returns the registered analysis-type names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	return names
}
