package hakoniwa

// Entity represents a unique identifier for an object in the World. It
// combines a 32-bit ID with a 32-bit version so that recycled IDs are
// not confused with new entities. Entities are plain handles; only
// equality, assignment, and passing to World operations are meaningful.
type Entity struct {
	// ID is the unique, recyclable identifier for the entity.
	ID uint32
	// Version is a generation counter to protect against stale entity
	// references. A handle whose version no longer matches the world's
	// record for that ID is dead.
	Version uint32
}

// entityMeta holds where an entity lives.
type entityMeta struct {
	archetypeIndex int    // index in World.archetypes
	index          int    // position inside the archetype
	version        uint32 // current version, 0 if the entity is dead
}
