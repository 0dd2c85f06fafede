package encoding

import (
	"github.com/FocuswithJustin/sfimport/core/cache"
	"github.com/FocuswithJustin/sfimport/core/errors"
)

// Resolver finds the converter for a writing system and caches the answer for
// its lifetime. A Resolver belongs to one import session.
type Resolver struct {
	registry Registry
	mapping  func(ws string) string
	cache    *cache.Cache[string, Converter]
}

// NewResolver creates a resolver. legacyMapping returns the legacy mapping id
// of a writing system, or "" when the writing system needs no conversion.
func NewResolver(registry Registry, legacyMapping func(ws string) string) *Resolver {
	return &Resolver{
		registry: registry,
		mapping:  legacyMapping,
		cache:    cache.New[string, Converter](),
	}
}

// Resolve returns the converter for ws. A nil converter with a nil error
// means the writing system has no legacy mapping. A mapping id the registry
// does not know yields *errors.NotFoundError carrying that id.
func (r *Resolver) Resolve(ws string) (Converter, error) {
	return r.cache.GetOrLoad(ws, r.load)
}

func (r *Resolver) load(ws string) (Converter, error) {
	mappingID := ""
	if r.mapping != nil {
		mappingID = r.mapping(ws)
	}
	if mappingID == "" {
		return nil, nil
	}
	c, ok := r.registry.Lookup(mappingID)
	if !ok {
		return nil, errors.NewNotFound("encoding converter", mappingID)
	}
	return c, nil
}

// Stats exposes the converter cache statistics.
func (r *Resolver) Stats() cache.Stats {
	return r.cache.Stats()
}
