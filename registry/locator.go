package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Located is one asset found by a Locator, not yet loaded
type Located[T Object] struct {
	GUID uuid.UUID
	// Load produces the object; called concurrently with other assets
	Load func(ctx context.Context) (T, error)
	// Release undoes Load; optional
	Release func(T)
}

// Locator finds assets of kind T carrying a label
type Locator[T Object] interface {
	Locate(ctx context.Context, label string) ([]Located[T], error)
}

// StaticLocator serves objects registered in memory
type StaticLocator[T Object] struct {
	mu      sync.RWMutex
	byLabel map[string][]T
}

// NewStaticLocator creates an empty locator
func NewStaticLocator[T Object]() *StaticLocator[T] {
	return &StaticLocator[T]{byLabel: make(map[string][]T)}
}

// Add files objects under label
func (s *StaticLocator[T]) Add(label string, objs ...T) {
	s.mu.Lock()
	s.byLabel[label] = append(s.byLabel[label], objs...)
	s.mu.Unlock()
}

// Locate implements Locator
func (s *StaticLocator[T]) Locate(_ context.Context, label string) ([]Located[T], error) {
	s.mu.RLock()
	objs := append([]T(nil), s.byLabel[label]...)
	s.mu.RUnlock()

	located := make([]Located[T], len(objs))
	for i, obj := range objs {
		located[i] = Located[T]{
			GUID: obj.GUID(),
			Load: func(context.Context) (T, error) { return obj, nil },
		}
	}
	return located, nil
}
