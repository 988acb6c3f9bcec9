package event

import (
	"fmt"
	"reflect"
)

// Info is a read-only view of a reactor for debug tooling
type Info struct {
	Name   string
	Type   reflect.Type
	Raised uint64
	Rows   []PriorityRow
}

// PriorityRow lists the handlers sharing one priority
// Duplicate debug names are collapsed as "name (n)"
type PriorityRow struct {
	Priority int
	Handlers []string
}

// Handlers returns the total number of handlers across all rows
func (i Info) Handlers() int {
	n := 0
	for _, row := range i.Rows {
		n += len(row.Handlers)
	}
	return n
}

// Info builds a snapshot of the reactor's registrations grouped by priority
func (r *Reactor[T]) Info() Info {
	r.mu.Lock()
	snapshot := r.registrations
	r.mu.Unlock()

	info := Info{
		Name:   r.Name(),
		Type:   r.eventType,
		Raised: r.raised.Load(),
	}

	for i := 0; i < len(snapshot); {
		priority := snapshot[i].priority
		var (
			names  []string
			counts = make(map[string]int)
		)
		for ; i < len(snapshot) && snapshot[i].priority == priority; i++ {
			name := snapshot[i].debugName
			if counts[name] == 0 {
				names = append(names, name)
			}
			counts[name]++
		}

		row := PriorityRow{Priority: priority, Handlers: make([]string, 0, len(names))}
		for _, name := range names {
			if c := counts[name]; c > 1 {
				row.Handlers = append(row.Handlers, fmt.Sprintf("%s (%d)", name, c))
			} else {
				row.Handlers = append(row.Handlers, name)
			}
		}
		info.Rows = append(info.Rows, row)
	}

	return info
}
