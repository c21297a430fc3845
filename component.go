package hakoniwa

import (
	"fmt"
	"reflect"
	"sync"
)

// ComponentID is a unique identifier for a component type.
type ComponentID uint8

const (
	bitsPerWord       = 64
	maskWords         = 1
	maxComponentTypes = maskWords * bitsPerWord
)

var (
	registryMu      sync.Mutex
	nextComponentID uint16
	typeToID        = make(map[reflect.Type]ComponentID, maxComponentTypes)
	idToType        [maxComponentTypes]reflect.Type
	componentSizes  [maxComponentTypes]uintptr
)

// ResetGlobalRegistry resets the global component registry.
// This is useful for tests or applications that need to re-initialize
// the ECS state.
func ResetGlobalRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	nextComponentID = 0
	typeToID = make(map[reflect.Type]ComponentID, maxComponentTypes)
	idToType = [maxComponentTypes]reflect.Type{}
	componentSizes = [maxComponentTypes]uintptr{}
}

// RegisterComponent registers a component type and returns its unique ID.
// If the component type is already registered, it returns the existing ID.
// Registration is idempotent and safe for concurrent first use. It panics
// if the maximum number of component types is exceeded.
func RegisterComponent[T any]() ComponentID {
	compType := reflect.TypeOf((*T)(nil)).Elem()
	registryMu.Lock()
	defer registryMu.Unlock()
	if id, ok := typeToID[compType]; ok {
		return id
	}
	if int(nextComponentID) >= maxComponentTypes {
		panic(fmt.Sprintf("ecs: cannot register component %s: maximum number of component types (%d) reached", compType.Name(), maxComponentTypes))
	}
	id := ComponentID(nextComponentID)
	typeToID[compType] = id
	idToType[id] = compType
	componentSizes[id] = compType.Size()
	nextComponentID++
	return id
}

// GetID returns the ComponentID for a given component type.
// It panics if the component type has not been registered.
func GetID[T any]() ComponentID {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	registryMu.Lock()
	defer registryMu.Unlock()
	id, ok := typeToID[typ]
	if !ok {
		panic(fmt.Sprintf("ecs: component type %s not registered", typ))
	}
	return id
}

// TryGetID returns the ComponentID for a given component type and a
// boolean indicating if it was found. It does not panic if the component
// type is not registered.
func TryGetID[T any]() (ComponentID, bool) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	registryMu.Lock()
	defer registryMu.Unlock()
	id, ok := typeToID[typ]
	return id, ok
}

// componentSize returns the byte size registered for id.
func componentSize(id ComponentID) uintptr {
	registryMu.Lock()
	defer registryMu.Unlock()
	return componentSizes[id]
}
