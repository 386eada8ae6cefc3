// Package mapper converts raw provider records into domain reviews.
// Each provider ships its own field layout, so conversions are strategy
// implementations resolved by source name.
package mapper

import (
	"fmt"

	"reviewpulse/internal/domain"
)

// RecordMapper converts one raw dataset record from a given provider.
type RecordMapper interface {
	Source() domain.Source
	Map(record map[string]any, snapshot domain.Snapshot) (domain.Review, error)
}

// Registry keeps a mapping from source names to their mappers.
type Registry struct {
	mappers map[domain.Source]RecordMapper
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{mappers: map[domain.Source]RecordMapper{}}
}

// Register adds or replaces a mapper implementation.
func (r *Registry) Register(m RecordMapper) {
	if r.mappers == nil {
		r.mappers = map[domain.Source]RecordMapper{}
	}
	r.mappers[m.Source()] = m
}

// Resolve returns a mapper by source or an error if it is absent.
func (r *Registry) Resolve(source domain.Source) (RecordMapper, error) {
	if m, ok := r.mappers[source]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("no mapper registered for source %s", source)
}
