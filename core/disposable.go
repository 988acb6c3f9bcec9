package core

// Disposable releases a resource it owns
// Implementations must tolerate repeated Dispose calls
type Disposable interface {
	Dispose()
}

// DisposeFunc adapts a plain function to Disposable
type DisposeFunc func()

// Dispose implements Disposable
func (f DisposeFunc) Dispose() {
	if f != nil {
		f()
	}
}

// DisposeAll disposes every non-nil entry in order
func DisposeAll(items []Disposable) {
	for _, d := range items {
		if d != nil {
			d.Dispose()
		}
	}
}
