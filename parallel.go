package hakoniwa

import (
	"runtime"
	"unsafe"

	"golang.org/x/sync/errgroup"
)

// parallelChunkSize is the row span handed to one worker by the chunked
// parallel family. Large archetypes are subdivided into spans of this
// many rows.
const parallelChunkSize = 4096

// Runner is the worker pool contract the parallel iteration family
// dispatches to. Run must invoke task(i) for every i in [0, n), possibly
// concurrently, and return only after every invocation has completed.
// Distinct invocations receive distinct indices, so a task that only
// touches its own work item needs no further synchronization.
type Runner interface {
	Run(n int, task func(i int))
}

// groupRunner is the default Runner: a fork-join parallel-for that
// splits the index range into contiguous spans across an errgroup.
type groupRunner struct {
	workers int
}

func defaultRunner() Runner {
	return groupRunner{workers: runtime.GOMAXPROCS(0)}
}

func (r groupRunner) Run(n int, task func(i int)) {
	if n <= 0 {
		return
	}
	workers := min(r.workers, n)
	if workers <= 1 {
		for i := 0; i < n; i++ {
			task(i)
		}
		return
	}
	span := (n + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < n; start += span {
		start := start
		end := min(start+span, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				task(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// entitySpan is one archetype's worth of per-entity parallel work.
type entitySpan struct {
	cols [3]*column
	n    int
}

// chunkSpan is a fixed-size row range of one archetype.
type chunkSpan struct {
	cols  [3]*column
	start int
	count int
}

// beginIterationLocked snapshots the runner and marks a parallel pass in
// flight. The caller must already hold the lock and must call
// endIteration once dispatch has drained.
func (w *World) beginIterationLocked() Runner {
	w.iterating.Add(1)
	return w.runner
}

func (w *World) endIteration() {
	w.iterating.Add(-1)
}

// collectEntitySpansLocked gathers (columns, row count) work items for
// every non-empty archetype matching the include mask.
func (w *World) collectEntitySpansLocked(include bitmask64, ids ...ComponentID) []entitySpan {
	var work []entitySpan
	for _, a := range w.archetypes {
		if len(a.entities) == 0 || !a.mask.contains(include) {
			continue
		}
		s := entitySpan{n: len(a.entities)}
		for k, id := range ids {
			s.cols[k] = a.columns[a.getSlot(id)]
		}
		work = append(work, s)
	}
	return work
}

// collectChunkSpansLocked gathers fixed-size row ranges for every
// non-empty archetype matching the include mask.
func (w *World) collectChunkSpansLocked(include bitmask64, ids ...ComponentID) []chunkSpan {
	var work []chunkSpan
	for _, a := range w.archetypes {
		if len(a.entities) == 0 || !a.mask.contains(include) {
			continue
		}
		total := len(a.entities)
		var cols [3]*column
		for k, id := range ids {
			cols[k] = a.columns[a.getSlot(id)]
		}
		for start := 0; start < total; start += parallelChunkSize {
			work = append(work, chunkSpan{
				cols:  cols,
				start: start,
				count: min(parallelChunkSize, total-start),
			})
		}
	}
	return work
}

// ParallelForEach invokes fn with the component of type T for every
// entity that has it, fanning the rows of each matching archetype out to
// the world's runner.
//
// The world lock is held only while the matching archetypes are
// snapshotted. While the pass is in flight, no goroutine may mutate
// structure (create/destroy entities, add/remove components, replace
// resources); the world panics on a detected breach. Distinct callback
// invocations receive disjoint rows, so a callback that only writes its
// own row needs no synchronization.
func ParallelForEach[T any](w *World, fn func(*T)) {
	id := RegisterComponent[T]()
	w.mu.Lock()
	work := w.collectEntitySpansLocked(makeMask(id), id)
	runner := w.beginIterationLocked()
	w.mu.Unlock()
	defer w.endIteration()
	for _, s := range work {
		col := s.cols[0]
		runner.Run(s.n, func(i int) {
			fn((*T)(col.ptr(i)))
		})
	}
}

// ParallelForEach2 invokes fn with the components of types A and B for
// every entity that has both, fanning out to the world's runner under
// the same contract as ParallelForEach.
func ParallelForEach2[A, B any](w *World, fn func(*A, *B)) {
	id1, id2 := RegisterComponent[A](), RegisterComponent[B]()
	w.mu.Lock()
	work := w.collectEntitySpansLocked(makeMask(id1, id2), id1, id2)
	runner := w.beginIterationLocked()
	w.mu.Unlock()
	defer w.endIteration()
	for _, s := range work {
		col1, col2 := s.cols[0], s.cols[1]
		runner.Run(s.n, func(i int) {
			fn((*A)(col1.ptr(i)), (*B)(col2.ptr(i)))
		})
	}
}

// ParallelForEach3 invokes fn with the components of types A, B, and C
// for every entity that has all three, fanning out to the world's
// runner under the same contract as ParallelForEach.
func ParallelForEach3[A, B, C any](w *World, fn func(*A, *B, *C)) {
	id1, id2, id3 := RegisterComponent[A](), RegisterComponent[B](), RegisterComponent[C]()
	w.mu.Lock()
	work := w.collectEntitySpansLocked(makeMask(id1, id2, id3), id1, id2, id3)
	runner := w.beginIterationLocked()
	w.mu.Unlock()
	defer w.endIteration()
	for _, s := range work {
		col1, col2, col3 := s.cols[0], s.cols[1], s.cols[2]
		runner.Run(s.n, func(i int) {
			fn((*A)(col1.ptr(i)), (*B)(col2.ptr(i)), (*C)(col3.ptr(i)))
		})
	}
}

// ParallelForEachChunk invokes fn with contiguous runs of T values,
// subdividing each matching archetype into spans of at most 4096 rows
// and dispatching the spans to the world's runner. The slice handed to
// fn is valid only for the duration of the callback. The structural
// stability contract of ParallelForEach applies.
func ParallelForEachChunk[T any](w *World, fn func([]T)) {
	id := RegisterComponent[T]()
	w.mu.Lock()
	work := w.collectChunkSpansLocked(makeMask(id), id)
	runner := w.beginIterationLocked()
	w.mu.Unlock()
	defer w.endIteration()
	runner.Run(len(work), func(ci int) {
		c := work[ci]
		head := (*T)(c.cols[0].ptr(c.start))
		fn(unsafe.Slice(head, c.count))
	})
}

// ParallelForEachChunk2 invokes fn with parallel runs of A and B values
// under the same subdivision and contract as ParallelForEachChunk.
func ParallelForEachChunk2[A, B any](w *World, fn func([]A, []B)) {
	id1, id2 := RegisterComponent[A](), RegisterComponent[B]()
	w.mu.Lock()
	work := w.collectChunkSpansLocked(makeMask(id1, id2), id1, id2)
	runner := w.beginIterationLocked()
	w.mu.Unlock()
	defer w.endIteration()
	runner.Run(len(work), func(ci int) {
		c := work[ci]
		headA := (*A)(c.cols[0].ptr(c.start))
		headB := (*B)(c.cols[1].ptr(c.start))
		fn(unsafe.Slice(headA, c.count), unsafe.Slice(headB, c.count))
	})
}

// ParallelForEachChunk3 invokes fn with parallel runs of A, B, and C
// values under the same subdivision and contract as
// ParallelForEachChunk.
func ParallelForEachChunk3[A, B, C any](w *World, fn func([]A, []B, []C)) {
	id1, id2, id3 := RegisterComponent[A](), RegisterComponent[B](), RegisterComponent[C]()
	w.mu.Lock()
	work := w.collectChunkSpansLocked(makeMask(id1, id2, id3), id1, id2, id3)
	runner := w.beginIterationLocked()
	w.mu.Unlock()
	defer w.endIteration()
	runner.Run(len(work), func(ci int) {
		c := work[ci]
		headA := (*A)(c.cols[0].ptr(c.start))
		headB := (*B)(c.cols[1].ptr(c.start))
		headC := (*C)(c.cols[2].ptr(c.start))
		fn(unsafe.Slice(headA, c.count), unsafe.Slice(headB, c.count), unsafe.Slice(headC, c.count))
	})
}
