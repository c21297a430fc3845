package hakoniwa_test

import (
	"testing"

	"github.com/edwinsyarief/hakoniwa"
	"github.com/stretchr/testify/require"
)

func TestHookFiringOrder(t *testing.T) {
	world := setupWorld(t)

	var events []string
	hakoniwa.OnComponentAdded[Position](world, func(e hakoniwa.Entity) {
		events = append(events, "add")
	})
	hakoniwa.OnComponentRemoved[Position](world, func(e hakoniwa.Entity) {
		events = append(events, "remove")
	})

	e := world.CreateEntity()
	hakoniwa.AddComponent[Position](world, e)
	hakoniwa.RemoveComponent[Position](world, e)

	require.Equal(t, []string{"add", "remove"}, events)
}

func TestHookReceivesEntity(t *testing.T) {
	world := setupWorld(t)

	var got []hakoniwa.Entity
	hakoniwa.OnComponentAdded[Position](world, func(e hakoniwa.Entity) {
		got = append(got, e)
	})

	e := world.CreateEntity()
	hakoniwa.SetComponent(world, e, Position{X: 1})

	require.Equal(t, []hakoniwa.Entity{e}, got)
}

func TestHooksRegistrationOrder(t *testing.T) {
	world := setupWorld(t)

	var order []int
	hakoniwa.OnComponentAdded[Position](world, func(hakoniwa.Entity) { order = append(order, 1) })
	hakoniwa.OnComponentAdded[Position](world, func(hakoniwa.Entity) { order = append(order, 2) })
	hakoniwa.OnComponentAdded[Position](world, func(hakoniwa.Entity) { order = append(order, 3) })

	e := world.CreateEntity()
	hakoniwa.AddComponent[Position](world, e)

	require.Equal(t, []int{1, 2, 3}, order)
}

func TestMultiAddFiresEachHookOnce(t *testing.T) {
	world := setupWorld(t)

	addsP, addsV := 0, 0
	hakoniwa.OnComponentAdded[Position](world, func(hakoniwa.Entity) { addsP++ })
	hakoniwa.OnComponentAdded[Velocity](world, func(hakoniwa.Entity) { addsV++ })

	e := world.CreateEntity()
	hakoniwa.AddComponent2[Position, Velocity](world, e)

	require.Equal(t, 1, addsP)
	require.Equal(t, 1, addsV)

	// Re-adding present components is a structural no-op and stays silent.
	hakoniwa.AddComponent2[Position, Velocity](world, e)
	require.Equal(t, 1, addsP)
	require.Equal(t, 1, addsV)
}

func TestNoHookOnAbsentRemove(t *testing.T) {
	world := setupWorld(t)

	removes := 0
	hakoniwa.OnComponentRemoved[Position](world, func(hakoniwa.Entity) { removes++ })

	e := world.CreateEntity()
	hakoniwa.RemoveComponent[Position](world, e)

	require.Zero(t, removes)
}

func TestOverwriteFiresNoAddHook(t *testing.T) {
	world := setupWorld(t)

	adds := 0
	hakoniwa.OnComponentAdded[Position](world, func(hakoniwa.Entity) { adds++ })

	e := world.CreateEntity()
	hakoniwa.SetComponent(world, e, Position{X: 1})
	hakoniwa.SetComponent(world, e, Position{X: 2})

	require.Equal(t, 1, adds)
}

func TestBuilderFiresAddHooks(t *testing.T) {
	world := setupWorld(t)

	var got []hakoniwa.Entity
	hakoniwa.OnComponentAdded[Position](world, func(e hakoniwa.Entity) { got = append(got, e) })

	ents := hakoniwa.NewBuilder[Position](world).NewEntities(5)
	require.Equal(t, ents, got)
}

func TestDestroyFiresNoHooks(t *testing.T) {
	world := setupWorld(t)

	removes := 0
	hakoniwa.OnComponentRemoved[Position](world, func(hakoniwa.Entity) { removes++ })

	e := world.CreateEntity()
	hakoniwa.SetComponent(world, e, Position{X: 1})
	world.RemoveEntity(e)

	// Entity destruction recycles storage without firing component hooks.
	require.Zero(t, removes)
}
