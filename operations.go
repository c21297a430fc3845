package hakoniwa

// migration engine: moving an entity between archetypes when its
// component set changes. The order is fixed: reserve the new row, copy
// old values / default-construct added ones, swap-remove the old row
// across every column in one step, update the directory, and only then
// fire hooks. Hooks observe a fully committed world.

// addIDsLocked migrates e into the archetype whose mask additionally
// includes ids. Components the entity already has are untouched.
// Returns the target archetype, the entity's row, and the mask of
// components that were actually added.
func (w *World) addIDsLocked(e Entity, ids ...ComponentID) (*archetype, int, bitmask64) {
	meta := &w.metas[e.ID]
	old := w.archetypes[meta.archetypeIndex]
	newMask := old.mask
	var added bitmask64
	for _, id := range ids {
		if !newMask.has(id) {
			added.set(id)
		}
		newMask.set(id)
	}
	if added == 0 {
		// already has everything, no structural change
		return old, meta.index, 0
	}
	target := w.getOrCreateArchetypeLocked(newMask, old)
	row := target.pushEntity(e)
	oldRow := meta.index
	for i, id := range target.compOrder {
		if s := old.getSlot(id); s >= 0 {
			target.columns[i].pushFrom(old.columns[s], oldRow)
		} else {
			target.columns[i].pushDefault()
		}
	}
	w.evictLocked(old, oldRow)
	meta.archetypeIndex = target.index
	meta.index = row
	return target, row, added
}

// removeIDsLocked migrates e out of the given component ids. Components
// the entity lacks are ignored. Returns the mask of components actually
// removed.
func (w *World) removeIDsLocked(e Entity, ids ...ComponentID) bitmask64 {
	meta := &w.metas[e.ID]
	old := w.archetypes[meta.archetypeIndex]
	newMask := old.mask
	var removed bitmask64
	for _, id := range ids {
		if newMask.has(id) {
			removed.set(id)
		}
		newMask.unset(id)
	}
	if removed == 0 {
		return 0
	}
	target := w.getOrCreateArchetypeLocked(newMask, old)
	row := target.pushEntity(e)
	oldRow := meta.index
	for i, id := range target.compOrder {
		target.columns[i].pushFrom(old.column(id), oldRow)
	}
	w.evictLocked(old, oldRow)
	meta.archetypeIndex = target.index
	meta.index = row
	return removed
}

// fireAddedLocked fires on-add hooks for every component in mask.
func (w *World) fireAddedLocked(mask bitmask64, e Entity) {
	for id := ComponentID(0); int(id) < maxComponentTypes; id++ {
		if mask.has(id) {
			w.hooks.fireAdded(id, e)
		}
	}
}

// fireRemovedLocked fires on-remove hooks for every component in mask.
func (w *World) fireRemovedLocked(mask bitmask64, e Entity) {
	for id := ComponentID(0); int(id) < maxComponentTypes; id++ {
		if mask.has(id) {
			w.hooks.fireRemoved(id, e)
		}
	}
}

// AddComponent adds a value-initialized component of type T to an
// entity. It returns a pointer to the component and a boolean indicating
// the entity was valid. If the entity already has the component, the
// existing value is returned untouched.
func AddComponent[T any](w *World, e Entity) (*T, bool) {
	id := RegisterComponent[T]()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	if !w.isValidLocked(e) {
		return nil, false
	}
	target, row, added := w.addIDsLocked(e, id)
	ptr := (*T)(target.column(id).ptr(row))
	if added != 0 {
		w.fireAddedLocked(added, e)
	}
	return ptr, true
}

// AddComponent2 adds value-initialized components of types A and B to an
// entity in one atomic migration. Returns false for a stale handle.
func AddComponent2[A, B any](w *World, e Entity) bool {
	ida, idb := RegisterComponent[A](), RegisterComponent[B]()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	if !w.isValidLocked(e) {
		return false
	}
	_, _, added := w.addIDsLocked(e, ida, idb)
	if added != 0 {
		w.fireAddedLocked(added, e)
	}
	return true
}

// AddComponent3 adds value-initialized components of types A, B, and C
// to an entity in one atomic migration. Returns false for a stale handle.
func AddComponent3[A, B, C any](w *World, e Entity) bool {
	ida, idb, idc := RegisterComponent[A](), RegisterComponent[B](), RegisterComponent[C]()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	if !w.isValidLocked(e) {
		return false
	}
	_, _, added := w.addIDsLocked(e, ida, idb, idc)
	if added != 0 {
		w.fireAddedLocked(added, e)
	}
	return true
}

// SetComponent sets the component of type T on the entity, adding it if
// not present. When the entity already has the component the existing
// value is overwritten. Returns false for a stale handle.
func SetComponent[T any](w *World, e Entity, val T) bool {
	id := RegisterComponent[T]()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	if !w.isValidLocked(e) {
		return false
	}
	target, row, added := w.addIDsLocked(e, id)
	*(*T)(target.column(id).ptr(row)) = val
	if added != 0 {
		w.fireAddedLocked(added, e)
	}
	return true
}

// RemoveComponent removes the component of type T from the entity if
// present. Removing an absent component is a no-op and fires no hook.
// Returns false for a stale handle.
func RemoveComponent[T any](w *World, e Entity) bool {
	id := RegisterComponent[T]()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	if !w.isValidLocked(e) {
		return false
	}
	if removed := w.removeIDsLocked(e, id); removed != 0 {
		w.fireRemovedLocked(removed, e)
	}
	return true
}

// RemoveComponent2 removes components of types A and B from the entity
// in one atomic migration. Returns false for a stale handle.
func RemoveComponent2[A, B any](w *World, e Entity) bool {
	ida, idb := RegisterComponent[A](), RegisterComponent[B]()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	if !w.isValidLocked(e) {
		return false
	}
	if removed := w.removeIDsLocked(e, ida, idb); removed != 0 {
		w.fireRemovedLocked(removed, e)
	}
	return true
}

// RemoveComponent3 removes components of types A, B, and C from the
// entity in one atomic migration. Returns false for a stale handle.
func RemoveComponent3[A, B, C any](w *World, e Entity) bool {
	ida, idb, idc := RegisterComponent[A](), RegisterComponent[B](), RegisterComponent[C]()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.guardMutationLocked()
	if !w.isValidLocked(e) {
		return false
	}
	if removed := w.removeIDsLocked(e, ida, idb, idc); removed != 0 {
		w.fireRemovedLocked(removed, e)
	}
	return true
}

// GetComponent retrieves a pointer to the component of type T for the
// given entity. It returns nil and false if the entity is invalid or
// does not have the component. The pointer stays valid until the next
// structural mutation of the world.
func GetComponent[T any](w *World, e Entity) (*T, bool) {
	id := RegisterComponent[T]()
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.isValidLocked(e) {
		return nil, false
	}
	meta := w.metas[e.ID]
	a := w.archetypes[meta.archetypeIndex]
	col := a.column(id)
	if col == nil {
		return nil, false
	}
	return (*T)(col.ptr(meta.index)), true
}

// HasComponent reports whether the entity is valid and has a component
// of type T.
func HasComponent[T any](w *World, e Entity) bool {
	id := RegisterComponent[T]()
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.isValidLocked(e) {
		return false
	}
	meta := w.metas[e.ID]
	return w.archetypes[meta.archetypeIndex].mask.has(id)
}
