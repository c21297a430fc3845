package hakoniwa

import (
	"fmt"
	"reflect"
)

// Resources manages a collection of process-scoped singletons, at most
// one value per type. It uses a slice for storage, a map for quick type
// to ID mapping, and a free list for ID reuse. All access goes through
// the owning World's lock.
type Resources struct {
	items   []any
	types   map[reflect.Type]int
	freeIDs []int
}

// set stores res under its dynamic type, replacing any previous value.
// The replaced value is simply dropped for the collector.
func (r *Resources) set(res any) {
	t := reflect.TypeOf(res)
	if r.types == nil {
		r.types = make(map[reflect.Type]int)
	}
	if id, ok := r.types[t]; ok {
		r.items[id] = res
		return
	}
	var id int
	if len(r.freeIDs) > 0 {
		id = r.freeIDs[len(r.freeIDs)-1]
		r.freeIDs = r.freeIDs[:len(r.freeIDs)-1]
		r.items[id] = res
	} else {
		r.items = append(r.items, res)
		id = len(r.items) - 1
	}
	r.types[t] = id
}

// get retrieves the resource stored under t, or nil.
func (r *Resources) get(t reflect.Type) any {
	if id, ok := r.types[t]; ok {
		return r.items[id]
	}
	return nil
}

// remove drops the resource stored under t, marking its ID free for
// reuse. Returns whether a value was present.
func (r *Resources) remove(t reflect.Type) bool {
	id, ok := r.types[t]
	if !ok {
		return false
	}
	delete(r.types, t)
	r.items[id] = nil
	r.freeIDs = append(r.freeIDs, id)
	return true
}

// SetResource stores a singleton value of type T in the world,
// replacing and dropping any previous value of the same type.
// Replacing a resource is a structural mutation and is forbidden while
// a parallel pass is in flight.
func SetResource[T any](w *World, value T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	w.resources.set(&value)
}

// GetResource returns the world's singleton of type T. Requesting a
// resource that was never set is a programming error and panics.
// The pointer stays valid until the resource is replaced or removed;
// callers holding it across lock boundaries are bound by the same
// structural-stability contract as parallel iteration.
func GetResource[T any](w *World) *T {
	w.mu.Lock()
	defer w.mu.Unlock()
	res := w.resources.get(reflect.TypeOf((*T)(nil)))
	if res == nil {
		panic(fmt.Sprintf("ecs: resource %s not found", reflect.TypeOf((*T)(nil)).Elem()))
	}
	return res.(*T)
}

// HasResource reports whether a resource of type T is set.
func HasResource[T any](w *World) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resources.get(reflect.TypeOf((*T)(nil))) != nil
}

// RemoveResource drops the resource of type T, reporting whether one
// was present. Like SetResource, it is forbidden while a parallel pass
// is in flight.
func RemoveResource[T any](w *World) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	return w.resources.remove(reflect.TypeOf((*T)(nil)))
}
