package operator

import (
	"sort"
	"sync"

	"github.com/zerfoo/zerfoo/hook"
)

// tier holds the attach-order list, time-scale buckets, dependency graph,
// and derived invocation ordering for one hook tier (local or global). It
// implements the scheduler algorithms of §4.3: Attach, Detach, Invocation
// ordering rebuild, and Time-scale event ejection.
type tier struct {
	mu sync.Mutex

	hooks       []hook.Hook
	byTimeScale map[hook.TimeScale][]hook.Hook
	dependents  map[hook.Hook][]hook.Hook
	explicit    map[hook.Hook]bool

	invocationIndex  map[hook.Hook]int
	invocationTarget map[hook.Hook]uint64

	// localTimeSteps tracks each hook's live TimeStep copy. Local hooks
	// key by (hook, worker index) since each worker ticks its own
	// schedule independently; global hooks always use worker index -1.
	localTimeSteps map[localTimeStepKey]*hook.LocalTimeStep
}

type localTimeStepKey struct {
	h      hook.Hook
	worker int
}

func newTier() *tier {
	return &tier{
		byTimeScale:      make(map[hook.TimeScale][]hook.Hook),
		dependents:       make(map[hook.Hook][]hook.Hook),
		explicit:         make(map[hook.Hook]bool),
		invocationIndex:  make(map[hook.Hook]int),
		invocationTarget: make(map[hook.Hook]uint64),
		localTimeSteps:   make(map[localTimeStepKey]*hook.LocalTimeStep),
	}
}

// findAttached returns the hook already attached to this tier that either
// is h (by identity) or is functionally equal to it, or nil if neither.
func (t *tier) findAttached(h hook.Hook) hook.Hook {
	for _, e := range t.hooks {
		if e == h {
			return e
		}
	}

	for _, e := range t.hooks {
		if e.FunctionallyEquals(h) {
			return e
		}
	}

	return nil
}

// attach implements §4.3 Attach. explicit marks a top-level
// AttachLocalHook/AttachGlobalHook call as opposed to an internal
// required-hook resolution, so that cascade-detach (§4.3 Detach step 3)
// never removes a hook the caller attached on purpose (S3).
func (t *tier) attach(h hook.Hook, explicit bool) (hook.Hook, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.attachLocked(h, explicit)
}

func (t *tier) attachLocked(h hook.Hook, explicit bool) (hook.Hook, bool, error) {
	if err := hook.Validate(h); err != nil {
		return nil, false, &ValidationError{Err: err}
	}

	if existing := t.findAttached(h); existing != nil {
		if explicit {
			t.explicit[existing] = true
		}

		return existing, false, nil
	}

	t.hooks = append(t.hooks, h)
	scale := h.TimeStep().Scale
	t.byTimeScale[scale] = append(t.byTimeScale[scale], h)

	if explicit {
		t.explicit[h] = true
	}

	for _, r := range h.RequiredHooks() {
		resolved, _, err := t.attachLocked(r, false)
		if err != nil {
			return nil, false, err
		}

		t.dependents[resolved] = append(t.dependents[resolved], h)
	}

	t.rebuildInvocationOrderLocked()

	return h, true, nil
}

// detach implements §4.3 Detach.
func (t *tier) detach(h hook.Hook) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.detachLocked(h)
}

func (t *tier) detachLocked(h hook.Hook) error {
	if t.findAttached(h) != h {
		return &UnknownHookError{Hook: h}
	}

	if deps := t.dependents[h]; len(deps) > 0 {
		return &RequiredByDependentsError{Hook: h, Dependents: append([]hook.Hook{}, deps...)}
	}

	t.removeHookLocked(h)

	var cascadeCandidates []hook.Hook

	for r, deps := range t.dependents {
		kept := deps[:0]
		removed := false

		for _, d := range deps {
			if d == h {
				removed = true

				continue
			}

			kept = append(kept, d)
		}

		if removed {
			t.dependents[r] = kept

			cascadeCandidates = append(cascadeCandidates, r)
		}
	}

	for _, r := range cascadeCandidates {
		if len(t.dependents[r]) == 0 && !t.explicit[r] {
			_ = t.detachLocked(r)
		}
	}

	t.rebuildInvocationOrderLocked()

	return nil
}

func (t *tier) removeHookLocked(h hook.Hook) {
	for i, e := range t.hooks {
		if e == h {
			t.hooks = append(t.hooks[:i], t.hooks[i+1:]...)

			break
		}
	}

	scale := h.TimeStep().Scale

	bucket := t.byTimeScale[scale]
	for i, e := range bucket {
		if e == h {
			t.byTimeScale[scale] = append(bucket[:i], bucket[i+1:]...)

			break
		}
	}

	delete(t.dependents, h)
	delete(t.explicit, h)
	delete(t.invocationIndex, h)
	delete(t.invocationTarget, h)

	for k := range t.localTimeSteps {
		if k.h == h {
			delete(t.localTimeSteps, k)
		}
	}
}

// rebuildInvocationOrderLocked implements §4.3's invocation ordering
// rebuild. It assigns each hook an invocation index (its position in a
// DFS-post-order traversal rooted at attach-order hooks) and an invocation
// target (0 for foreground hooks; for background hooks, a fresh target
// per independent DFS root, unless the hook is reached as a required
// dependency of an already-targeted background hook, in which case it
// inherits that target — this is how B3 requiring B1 ends up sharing B1's
// bucket in the background-isolation scenario, rather than each DFS root
// always minting a brand new target).
func (t *tier) rebuildInvocationOrderLocked() {
	order := make([]hook.Hook, 0, len(t.hooks))
	visited := make(map[hook.Hook]bool, len(t.hooks))
	target := make(map[hook.Hook]uint64, len(t.hooks))
	nextTarget := uint64(1)

	var visit func(h hook.Hook) uint64

	visit = func(h hook.Hook) uint64 {
		if visited[h] {
			return target[h]
		}

		visited[h] = true

		var inherited uint64

		haveInherited := false

		for _, r := range h.RequiredHooks() {
			resolved := t.findAttached(r)
			if resolved == nil {
				continue
			}

			rt := visit(resolved)
			if resolved.InvokeInBackground() && !haveInherited {
				inherited = rt
				haveInherited = true
			}
		}

		var tgt uint64

		switch {
		case !h.InvokeInBackground():
			tgt = 0
		case haveInherited:
			tgt = inherited
		default:
			tgt = nextTarget
			nextTarget++
		}

		target[h] = tgt
		order = append(order, h)

		return tgt
	}

	for _, h := range t.hooks {
		if !visited[h] {
			visit(h)
		}
	}

	index := make(map[hook.Hook]int, len(order))
	for i, h := range order {
		index[h] = i
	}

	t.invocationIndex = index
	t.invocationTarget = target
}

func (t *tier) invocationIndexOf(h hook.Hook) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.invocationIndex[h]

	return idx, ok
}

func (t *tier) invocationTargetOf(h hook.Hook) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tgt, ok := t.invocationTarget[h]

	return tgt, ok
}

// eject implements §4.3's Time-scale event ejection for scale ts. worker
// is the reporting worker's index for a local tier, or -1 for the global
// tier (where there is exactly one shared schedule per hook). liveness,
// if non-nil, is consulted to skip hooks this worker has been marked dead
// for.
func (t *tier) eject(ts hook.TimeScale, worker int, liveness *localLiveness) []hook.Hook {
	t.mu.Lock()
	defer t.mu.Unlock()

	var due []hook.Hook

	for _, h := range t.byTimeScale[ts] {
		if liveness != nil && !liveness.isAliveFor(h, worker) {
			continue
		}

		key := localTimeStepKey{h: h, worker: worker}

		lts, ok := t.localTimeSteps[key]
		if !ok {
			lts = hook.NewLocalTimeStep(h.TimeStep())
			t.localTimeSteps[key] = lts
		}

		if fire, _ := lts.Tick(); fire {
			due = append(due, h)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return t.invocationIndex[due[i]] < t.invocationIndex[due[j]]
	})

	return due
}

func (t *tier) snapshot() []hook.Hook {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]hook.Hook, len(t.hooks))
	copy(out, t.hooks)

	return out
}

// localLiveness tracks per-worker aliveness for local hooks
// (alive_hooks_by_in_worker_states). Entries are created lazily on the
// first MarkHookDead call for a hook, not on attach: attaching a local
// hook never requires a pre-existing entry, and a hook with no entry is
// treated as alive in every worker (§8's testable-properties note; this
// resolves the §9 open question on lazy initialization by auto-creating
// the per-worker vector on first use rather than requiring workers to
// register aliveness up front).
type localLiveness struct {
	mu    sync.Mutex
	alive map[hook.Hook][]bool
}

func newLocalLiveness() *localLiveness {
	return &localLiveness{alive: make(map[hook.Hook][]bool)}
}

func (l *localLiveness) isAliveFor(h hook.Hook, worker int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	arr, ok := l.alive[h]
	if !ok || worker < 0 || worker >= len(arr) {
		return true
	}

	return arr[worker]
}

// markDead records worker as no longer wanting h invoked, lazily
// allocating the per-worker vector (initialized all-alive) on first use.
// It reports whether every worker has now marked h dead.
func (l *localLiveness) markDead(h hook.Hook, worker, workerCount int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	arr, ok := l.alive[h]
	if !ok {
		arr = make([]bool, workerCount)
		for i := range arr {
			arr[i] = true
		}

		l.alive[h] = arr
	}

	if worker >= 0 && worker < len(arr) {
		arr[worker] = false
	}

	for _, alive := range arr {
		if alive {
			return false
		}
	}

	return true
}

func (l *localLiveness) forget(h hook.Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.alive, h)
}
