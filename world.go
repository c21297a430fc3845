package hakoniwa

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// World owns every archetype, column buffer, resource, and hook
// callback. A single mutex protects all of its state; every public
// operation acquires it for its duration, except the parallel iteration
// family, which snapshots under the lock and fans out after releasing
// it, and the pull-style Query iterators (CreateQuery, Next, Get,
// Entity, Reset), which do not take it.
//
// A World must not be copied. To transfer ownership, use Move.
type World struct {
	mu              sync.Mutex
	maskToArcIndex  map[bitmask64]int // lookup mask→archetype index
	archetypes      []*archetype      // all archetypes
	metas           []entityMeta      // indexed by entity ID
	freeIDs         []uint32          // stack of recycled entity IDs
	resources       Resources
	hooks           hookTable
	runner          Runner
	capacity        int
	initialCapacity int
	nextEntityVer   uint32
	iterating       atomic.Int32 // parallel passes in flight
}

// NewWorld creates and initializes a new World with a specified initial
// capacity for entities. Pre-allocating the entity metadata and free ID
// list avoids re-allocations during runtime; the world grows on demand
// past the initial capacity.
func NewWorld(initialCapacity int) *World {
	w := &World{
		maskToArcIndex:  make(map[bitmask64]int),
		archetypes:      make([]*archetype, 0, 16),
		metas:           make([]entityMeta, initialCapacity),
		freeIDs:         make([]uint32, initialCapacity),
		capacity:        initialCapacity,
		initialCapacity: initialCapacity,
		nextEntityVer:   1,
		runner:          defaultRunner(),
	}
	for i := range w.freeIDs {
		// fill freeIDs with [cap-1 .. 0]
		w.freeIDs[i] = uint32(initialCapacity - 1 - i)
	}
	for i := range w.metas {
		w.metas[i].archetypeIndex = -1
		w.metas[i].index = -1
	}
	// Pre-create the empty archetype; entities without components live here.
	w.getOrCreateArchetypeLocked(0, nil)
	return w
}

// IsValid checks if the entity is currently alive in the world. An
// entity is valid if its ID is within bounds and its version matches the
// world's current version for that ID, which rejects stale references
// after an entity has been deleted and its ID recycled.
func (w *World) IsValid(e Entity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isValidLocked(e)
}

func (w *World) isValidLocked(e Entity) bool {
	if int(e.ID) >= len(w.metas) {
		return false
	}
	meta := w.metas[e.ID]
	return meta.version != 0 && meta.version == e.Version
}

// CreateEntity creates a new entity with no components.
func (w *World) CreateEntity() Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	return w.createEntityLocked(w.archetypes[w.maskToArcIndex[0]])
}

// CreateEntities creates a batch of entities with no components, taking
// the lock once for the whole batch.
func (w *World) CreateEntities(count int) []Entity {
	if count == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	a := w.archetypes[w.maskToArcIndex[0]]
	ents := make([]Entity, count)
	for i := range ents {
		ents[i] = w.createEntityLocked(a)
	}
	return ents
}

// RemoveEntity removes a single entity, recycling its ID. A stale or
// unknown handle is a no-op.
func (w *World) RemoveEntity(e Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	w.removeEntityLocked(e)
}

// RemoveEntities removes a batch of entities, taking the lock once for
// the whole batch.
func (w *World) RemoveEntities(ents []Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	for _, e := range ents {
		w.removeEntityLocked(e)
	}
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.metas) - len(w.freeIDs)
}

// ArchetypeCount returns the number of archetypes currently holding
// entities.
func (w *World) ArchetypeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, a := range w.archetypes {
		if len(a.entities) > 0 {
			n++
		}
	}
	return n
}

// MemoryStats summarizes the world's storage footprint.
type MemoryStats struct {
	Entities       int // live entities across all archetypes
	Archetypes     int // archetypes currently holding entities
	ComponentBytes int // bytes occupied by live component values
	MetadataBytes  int // entity directory storage
}

// MemoryUsage reports the world's current storage footprint.
func (w *World) MemoryUsage() MemoryStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	var s MemoryStats
	for _, a := range w.archetypes {
		if len(a.entities) == 0 {
			continue
		}
		s.Entities += len(a.entities)
		s.Archetypes++
		for _, c := range a.columns {
			s.ComponentBytes += c.liveBytes()
		}
	}
	s.MetadataBytes = len(w.metas)*int(unsafe.Sizeof(entityMeta{})) + len(w.freeIDs)*4
	return s
}

// ClearEntities removes all entities from the world, recycling their IDs
// and resetting archetypes. This resets the world state without
// deallocating memory. Resources and hooks are kept.
func (w *World) ClearEntities() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	for i := range w.metas {
		w.metas[i].archetypeIndex = -1
		w.metas[i].index = -1
		w.metas[i].version = 0
	}
	w.freeIDs = w.freeIDs[:0]
	for i := uint32(0); i < uint32(w.capacity); i++ {
		w.freeIDs = append(w.freeIDs, uint32(w.capacity)-1-i)
	}
	for _, a := range w.archetypes {
		a.reset()
	}
}

// Move transfers the whole world state into a newly returned World and
// leaves the receiver empty and usable, with no entities, archetypes, or
// resources. This is the only sanctioned way to hand a World off.
func (w *World) Move() *World {
	w.mu.Lock()
	defer w.mu.Unlock()
	nw := &World{
		maskToArcIndex:  w.maskToArcIndex,
		archetypes:      w.archetypes,
		metas:           w.metas,
		freeIDs:         w.freeIDs,
		resources:       w.resources,
		hooks:           w.hooks,
		runner:          w.runner,
		capacity:        w.capacity,
		initialCapacity: w.initialCapacity,
		nextEntityVer:   w.nextEntityVer,
	}
	n := w.initialCapacity
	w.maskToArcIndex = make(map[bitmask64]int)
	w.archetypes = make([]*archetype, 0, 16)
	w.metas = make([]entityMeta, n)
	w.freeIDs = make([]uint32, n)
	w.resources = Resources{}
	w.hooks = hookTable{}
	w.capacity = n
	w.nextEntityVer = 1
	for i := range w.freeIDs {
		w.freeIDs[i] = uint32(n - 1 - i)
	}
	for i := range w.metas {
		w.metas[i].archetypeIndex = -1
		w.metas[i].index = -1
	}
	w.getOrCreateArchetypeLocked(0, nil)
	return nw
}

// SetRunner replaces the worker pool used by the parallel iteration
// family. The runner must invoke the task for every index in [0, n) and
// return only after all invocations completed.
func (w *World) SetRunner(r Runner) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runner = r
}

// guardMutationLocked asserts that no parallel iteration is in flight.
// Structural mutation during a parallel pass would reallocate memory
// under the workers; the contract forbids it, and this guard turns the
// breach into a loud failure instead of corruption.
func (w *World) guardMutationLocked() {
	if w.iterating.Load() != 0 {
		panic("ecs: structural mutation during parallel iteration")
	}
}

// getOrCreateArchetypeLocked returns the archetype for the given mask,
// creating it if missing. Columns for components the source archetype
// already stores are cloned empty from it to preserve their layout;
// columns for newly introduced components are allocated fresh from the
// registry.
func (w *World) getOrCreateArchetypeLocked(mask bitmask64, src *archetype) *archetype {
	if idx, ok := w.maskToArcIndex[mask]; ok {
		return w.archetypes[idx]
	}
	a := &archetype{
		index: len(w.archetypes),
		mask:  mask,
	}
	for i := range a.slots {
		a.slots[i] = -1
	}
	for id := ComponentID(0); int(id) < maxComponentTypes; id++ {
		if !mask.has(id) {
			continue
		}
		var col *column
		if src != nil {
			if s := src.getSlot(id); s >= 0 {
				col = src.columns[s].emptyLike()
			}
		}
		if col == nil {
			col = newColumn(id)
		}
		a.slots[id] = int8(len(a.columns))
		a.columns = append(a.columns, col)
		a.compOrder = append(a.compOrder, id)
	}
	w.archetypes = append(w.archetypes, a)
	w.maskToArcIndex[mask] = a.index
	return a
}

// expand grows the entity pools when the free list runs dry.
func (w *World) expand(additional int) {
	oldCap := w.capacity
	newCap := oldCap * 2
	if newCap == 0 {
		newCap = 1
	}
	if newCap < oldCap+additional {
		newCap = oldCap + additional
	}
	delta := newCap - oldCap
	newMetas := make([]entityMeta, delta)
	for i := range newMetas {
		newMetas[i].archetypeIndex = -1
		newMetas[i].index = -1
	}
	w.metas = append(w.metas, newMetas...)
	for i := 0; i < delta; i++ {
		w.freeIDs = append(w.freeIDs, uint32(newCap-1-i))
	}
	w.capacity = newCap
}

// createEntityLocked places a fresh entity into the given archetype,
// default-initializing a row in every component column.
func (w *World) createEntityLocked(a *archetype) Entity {
	if len(w.freeIDs) == 0 {
		w.expand(1)
	}
	// pop an ID
	last := len(w.freeIDs) - 1
	id := w.freeIDs[last]
	w.freeIDs = w.freeIDs[:last]
	meta := &w.metas[id]
	meta.archetypeIndex = a.index
	meta.version = w.nextEntityVer
	ent := Entity{ID: id, Version: meta.version}
	meta.index = a.pushEntity(ent)
	for _, c := range a.columns {
		c.pushDefault()
	}
	w.nextEntityVer++
	return ent
}

// removeEntityLocked evicts e from its archetype, invalidates the
// version, and recycles the ID.
func (w *World) removeEntityLocked(e Entity) {
	if !w.isValidLocked(e) {
		return
	}
	meta := &w.metas[e.ID]
	w.evictLocked(w.archetypes[meta.archetypeIndex], meta.index)
	meta.archetypeIndex = -1
	meta.index = -1
	meta.version = 0
	w.freeIDs = append(w.freeIDs, e.ID)
}

// evictLocked swap-removes a row and patches the directory entry of the
// entity that was moved into the vacated slot.
func (w *World) evictLocked(a *archetype, row int) {
	if moved, ok := a.swapRemoveRow(row); ok {
		w.metas[moved.ID].index = row
	}
}
