package hakoniwa_test

import (
	"sync/atomic"
	"testing"

	"github.com/edwinsyarief/hakoniwa"
	"github.com/stretchr/testify/require"
)

type counter struct{ N int64 }

func TestParallelForEach(t *testing.T) {
	world := setupWorld(t)
	hakoniwa.NewBuilder[counter](world).NewEntities(10000)

	hakoniwa.ParallelForEach(world, func(c *counter) {
		c.N++
	})

	// Every row was visited exactly once.
	hakoniwa.ForEach(world, func(c *counter) {
		require.Equal(t, int64(1), c.N)
	})
}

func TestParallelForEach2(t *testing.T) {
	world := setupWorld(t)
	hakoniwa.NewBuilder2[Position, Velocity](world).
		NewEntitiesWithValues(5000, Position{}, Velocity{VX: 2, VY: 3})

	hakoniwa.ParallelForEach2(world, func(p *Position, v *Velocity) {
		p.X += v.VX
		p.Y += v.VY
	})

	hakoniwa.ForEach(world, func(p *Position) {
		require.Equal(t, float32(2), p.X)
		require.Equal(t, float32(3), p.Y)
	})
}

func TestParallelForEachChunk(t *testing.T) {
	world := setupWorld(t)
	// Enough rows to force subdivision past one 4096-row span, spread
	// over two archetypes.
	hakoniwa.NewBuilder[counter](world).NewEntities(9000)
	hakoniwa.NewBuilder2[counter, Position](world).NewEntities(500)

	var rows atomic.Int64
	var chunks atomic.Int64
	hakoniwa.ParallelForEachChunk(world, func(cs []counter) {
		require.LessOrEqual(t, len(cs), 4096)
		rows.Add(int64(len(cs)))
		chunks.Add(1)
		for i := range cs {
			cs[i].N++
		}
	})

	require.Equal(t, int64(9500), rows.Load())
	require.Equal(t, int64(4), chunks.Load())

	// Spans were disjoint: every row incremented exactly once.
	hakoniwa.ForEach(world, func(c *counter) {
		require.Equal(t, int64(1), c.N)
	})
}

func TestParallelForEachChunk2(t *testing.T) {
	world := setupWorld(t)
	hakoniwa.NewBuilder2[counter, Position](world).NewEntities(6000)

	var rows atomic.Int64
	hakoniwa.ParallelForEachChunk2(world, func(cs []counter, ps []Position) {
		require.Equal(t, len(cs), len(ps))
		rows.Add(int64(len(cs)))
	})
	require.Equal(t, int64(6000), rows.Load())
}

// serialRunner records dispatches while running everything inline.
type serialRunner struct{ calls int }

func (r *serialRunner) Run(n int, task func(int)) {
	r.calls++
	for i := 0; i < n; i++ {
		task(i)
	}
}

func TestSetRunner(t *testing.T) {
	world := setupWorld(t)
	hakoniwa.NewBuilder[counter](world).NewEntities(100)

	r := &serialRunner{}
	world.SetRunner(r)

	hakoniwa.ParallelForEach(world, func(c *counter) { c.N++ })
	require.Equal(t, 1, r.calls)

	hakoniwa.ForEach(world, func(c *counter) {
		require.Equal(t, int64(1), c.N)
	})
}

func TestParallelForEach3(t *testing.T) {
	world := setupWorld(t)
	hakoniwa.NewBuilder3[counter, Position, Velocity](world).
		NewEntitiesWithValues(3000, counter{}, Position{}, Velocity{VX: 1, VY: 2})

	hakoniwa.ParallelForEach3(world, func(c *counter, p *Position, v *Velocity) {
		c.N++
		p.X += v.VX
		p.Y += v.VY
	})

	hakoniwa.ForEach2(world, func(c *counter, p *Position) {
		require.Equal(t, int64(1), c.N)
		require.Equal(t, float32(1), p.X)
		require.Equal(t, float32(2), p.Y)
	})
}

func TestParallelForEachChunk3(t *testing.T) {
	world := setupWorld(t)
	hakoniwa.NewBuilder3[counter, Position, Velocity](world).NewEntities(5000)

	var rows atomic.Int64
	hakoniwa.ParallelForEachChunk3(world, func(cs []counter, ps []Position, vs []Velocity) {
		require.Equal(t, len(cs), len(ps))
		require.Equal(t, len(cs), len(vs))
		rows.Add(int64(len(cs)))
	})
	require.Equal(t, int64(5000), rows.Load())
}

// runnerFunc adapts a function to the Runner interface.
type runnerFunc func(n int, task func(int))

func (r runnerFunc) Run(n int, task func(int)) { r(n, task) }

func TestMutationDuringParallelPanics(t *testing.T) {
	world := setupWorld(t)
	hakoniwa.NewBuilder[counter](world).NewEntities(100)

	victim := world.CreateEntity()

	const want = "ecs: structural mutation during parallel iteration"
	dispatched := false
	// The pass is in flight while the runner dispatches: the world lock
	// is released, but every structural mutation must trip the guard.
	world.SetRunner(runnerFunc(func(n int, task func(int)) {
		dispatched = true
		require.PanicsWithValue(t, want, func() { world.CreateEntity() })
		require.PanicsWithValue(t, want, func() { world.RemoveEntity(victim) })
		require.PanicsWithValue(t, want, func() { hakoniwa.SetComponent(world, victim, Position{X: 1}) })
		require.PanicsWithValue(t, want, func() { hakoniwa.SetResource(world, gravity{G: 1}) })
		require.PanicsWithValue(t, want, func() { hakoniwa.RemoveResource[gravity](world) })
		for i := 0; i < n; i++ {
			task(i)
		}
	}))

	hakoniwa.ParallelForEach(world, func(c *counter) { c.N++ })
	require.True(t, dispatched)

	// The guard clears once the pass drains; mutation works again.
	world.SetRunner(&serialRunner{})
	e := world.CreateEntity()
	require.True(t, world.IsValid(e))
	hakoniwa.SetResource(world, gravity{G: 9.81})
	require.True(t, hakoniwa.HasResource[gravity](world))
}

func TestParallelMatchesSerial(t *testing.T) {
	world := setupWorld(t)
	ents := world.CreateEntities(2000)
	for i, e := range ents {
		hakoniwa.SetComponent(world, e, counter{N: int64(i)})
	}

	var serialSum int64
	hakoniwa.ForEach(world, func(c *counter) { serialSum += c.N })

	var parallelSum atomic.Int64
	hakoniwa.ParallelForEach(world, func(c *counter) { parallelSum.Add(c.N) })

	require.Equal(t, serialSum, parallelSum.Load())
}
