// Package registry provides lookup tables over asset-like objects
package registry

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Object is anything a Registry can index
type Object interface {
	GUID() uuid.UUID
	Name() string
}

// Registry maps GUIDs, names and enum values to objects of one kind
// Lookups are rebuilt wholesale on every Load
type Registry[T Object] struct {
	mu       sync.RWMutex
	log      zerolog.Logger
	objects  []T
	byGUID   map[uuid.UUID]T
	byName   map[string]T
	releases []func()

	// enum tables keyed by enum type; names are re-resolved on each Load
	enumNames map[reflect.Type]map[any]string
	enums     map[reflect.Type]map[any]T
}

// New creates an empty registry
func New[T Object](log zerolog.Logger) *Registry[T] {
	return &Registry[T]{
		log:       log.With().Str("component", "registry").Logger(),
		byGUID:    make(map[uuid.UUID]T),
		byName:    make(map[string]T),
		enumNames: make(map[reflect.Type]map[any]string),
		enums:     make(map[reflect.Type]map[any]T),
	}
}

// Load locates every asset labelled label and loads them concurrently
// Assets with no GUID or a failing load are logged and skipped. The previous
// contents are released and replaced once all loads finish
func (r *Registry[T]) Load(ctx context.Context, locator Locator[T], label string) error {
	located, err := locator.Locate(ctx, label)
	if err != nil {
		return eris.Wrapf(err, "locate %q", label)
	}

	loaded := make([]T, len(located))
	ok := make([]bool, len(located))

	g, gctx := errgroup.WithContext(ctx)
	for i, loc := range located {
		if loc.GUID == uuid.Nil {
			r.log.Warn().Str("label", label).Int("index", i).Msg("asset has no guid, skipping")
			continue
		}
		g.Go(func() error {
			obj, err := loc.Load(gctx)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.log.Error().Err(err).Str("guid", loc.GUID.String()).Msg("asset load failed, skipping")
				return nil
			}
			loaded[i] = obj
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.releaseLoaded(located, loaded, ok)
		return eris.Wrapf(err, "load %q", label)
	}

	objects := make([]T, 0, len(located))
	byGUID := make(map[uuid.UUID]T, len(located))
	byName := make(map[string]T, len(located))
	var releases []func()

	for i, loc := range located {
		if !ok[i] {
			continue
		}
		obj := loaded[i]
		if _, dup := byGUID[obj.GUID()]; dup {
			r.log.Warn().Str("guid", obj.GUID().String()).Str("name", obj.Name()).Msg("duplicate guid, keeping first")
			if loc.Release != nil {
				loc.Release(obj)
			}
			continue
		}
		objects = append(objects, obj)
		byGUID[obj.GUID()] = obj
		if _, dup := byName[obj.Name()]; !dup {
			byName[obj.Name()] = obj
		}
		if loc.Release != nil {
			release := loc.Release
			releases = append(releases, func() { release(obj) })
		}
	}

	r.mu.Lock()
	previous := r.releases
	r.objects = objects
	r.byGUID = byGUID
	r.byName = byName
	r.releases = releases
	for t := range r.enumNames {
		r.resolveEnumLocked(t)
	}
	r.mu.Unlock()

	for _, release := range previous {
		release()
	}

	r.log.Debug().Str("label", label).Int("count", len(objects)).Msg("registry loaded")
	return nil
}

// releaseLoaded undoes partial loads after a cancelled Load
func (r *Registry[T]) releaseLoaded(located []Located[T], loaded []T, ok []bool) {
	for i, loc := range located {
		if ok[i] && loc.Release != nil {
			loc.Release(loaded[i])
		}
	}
}

// GetByGUID returns the object with id or ErrNotFound
func (r *Registry[T]) GetByGUID(id uuid.UUID) (T, error) {
	obj, ok := r.TryGetByGUID(id)
	if !ok {
		return obj, eris.Wrapf(ErrNotFound, "guid %s", id)
	}
	return obj, nil
}

// TryGetByGUID returns the object with id if loaded
func (r *Registry[T]) TryGetByGUID(id uuid.UUID) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.byGUID[id]
	return obj, ok
}

// GetByName returns the first loaded object named name or ErrNotFound
func (r *Registry[T]) GetByName(name string) (T, error) {
	r.mu.RLock()
	obj, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return obj, eris.Wrapf(ErrNotFound, "name %q", name)
	}
	return obj, nil
}

// Objects returns loaded objects in locator order
func (r *Registry[T]) Objects() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]T(nil), r.objects...)
}

// Len returns the number of loaded objects
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// Dispose runs every release action and clears all lookups
func (r *Registry[T]) Dispose() {
	r.mu.Lock()
	releases := r.releases
	r.objects = nil
	r.byGUID = make(map[uuid.UUID]T)
	r.byName = make(map[string]T)
	r.releases = nil
	r.enumNames = make(map[reflect.Type]map[any]string)
	r.enums = make(map[reflect.Type]map[any]T)
	r.mu.Unlock()

	for _, release := range releases {
		release()
	}
}

// AddEnumLookup maps values of enum type E to objects by name
// Names that match no loaded object are logged; the table is re-resolved on
// every subsequent Load
func AddEnumLookup[T Object, E comparable](r *Registry[T], names map[E]string) {
	t := reflect.TypeFor[E]()
	table := make(map[any]string, len(names))
	for k, v := range names {
		table[k] = v
	}

	r.mu.Lock()
	r.enumNames[t] = table
	r.resolveEnumLocked(t)
	r.mu.Unlock()
}

// GetByEnum returns the object mapped to value
func GetByEnum[T Object, E comparable](r *Registry[T], value E) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.enums[reflect.TypeFor[E]()][value]
	return obj, ok
}

func (r *Registry[T]) resolveEnumLocked(t reflect.Type) {
	names := r.enumNames[t]
	resolved := make(map[any]T, len(names))
	for value, name := range names {
		obj, ok := r.byName[name]
		if !ok {
			if len(r.objects) > 0 {
				r.log.Warn().Str("enum", t.String()).Str("name", name).Msg("enum value has no object")
			}
			continue
		}
		resolved[value] = obj
	}
	r.enums[t] = resolved
}
