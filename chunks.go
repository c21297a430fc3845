package hakoniwa

import "unsafe"

// per-chunk delivery: one callback per matching non-empty archetype,
// handing out the component columns as slices. The slices alias the
// archetype's storage and are valid only for the duration of the
// callback.

// ForEachChunk invokes fn once per matching non-empty archetype with the
// contiguous run of T values. The pass runs under the world lock; fn
// must not mutate structure.
func ForEachChunk[T any](w *World, fn func([]T)) {
	id := RegisterComponent[T]()
	include := makeMask(id)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.archetypes {
		if len(a.entities) == 0 || !a.mask.contains(include) {
			continue
		}
		n := len(a.entities)
		col := a.columns[a.getSlot(id)]
		fn(unsafe.Slice((*T)(col.base()), n))
	}
}

// ForEachChunk2 invokes fn once per matching non-empty archetype with
// the parallel runs of A and B values.
func ForEachChunk2[A, B any](w *World, fn func([]A, []B)) {
	id1, id2 := RegisterComponent[A](), RegisterComponent[B]()
	include := makeMask(id1, id2)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.archetypes {
		if len(a.entities) == 0 || !a.mask.contains(include) {
			continue
		}
		n := len(a.entities)
		col1 := a.columns[a.getSlot(id1)]
		col2 := a.columns[a.getSlot(id2)]
		fn(unsafe.Slice((*A)(col1.base()), n), unsafe.Slice((*B)(col2.base()), n))
	}
}

// ForEachChunk3 invokes fn once per matching non-empty archetype with
// the parallel runs of A, B, and C values.
func ForEachChunk3[A, B, C any](w *World, fn func([]A, []B, []C)) {
	id1, id2, id3 := RegisterComponent[A](), RegisterComponent[B](), RegisterComponent[C]()
	include := makeMask(id1, id2, id3)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.archetypes {
		if len(a.entities) == 0 || !a.mask.contains(include) {
			continue
		}
		n := len(a.entities)
		col1 := a.columns[a.getSlot(id1)]
		col2 := a.columns[a.getSlot(id2)]
		col3 := a.columns[a.getSlot(id3)]
		fn(unsafe.Slice((*A)(col1.base()), n), unsafe.Slice((*B)(col2.base()), n), unsafe.Slice((*C)(col3.base()), n))
	}
}
