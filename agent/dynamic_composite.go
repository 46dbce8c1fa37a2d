package agent

import (
	"fmt"
	"sync"
)

// DynamicStatus is the lifecycle state of a DynamicComposite.
type DynamicStatus int

const (
	// DynamicInit is the status before OnStart has run.
	DynamicInit DynamicStatus = iota
	// DynamicActive is the status between OnStart and OnClose; TryAdd
	// and TryRemove are only legal in this status.
	DynamicActive
	// DynamicClosed is the status after OnClose has run.
	DynamicClosed
)

func (s DynamicStatus) String() string {
	switch s {
	case DynamicInit:
		return "INIT"
	case DynamicActive:
		return "ACTIVE"
	case DynamicClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DynamicComposite is an Agent whose sub-agent membership can change at
// runtime. Membership changes are requested from any goroutine via
// TryAdd/TryRemove but are only ever applied inside DoWork, on the
// goroutine that owns the composite, so the sub-agent slice itself needs
// no synchronization.
//
// TryRemove identifies the sub-agent to erase by interface equality
// (Agrona's reference-equality semantics), so every Agent passed to
// TryAdd must have a comparable underlying type — in practice, a pointer
// receiver, which every Agent in this module uses.
type DynamicComposite struct {
	name   string
	agents []Agent

	mu            sync.Mutex
	status        DynamicStatus
	pendingAdd    Agent
	pendingRemove Agent
	lastAddErr    error
	lastRemoveErr error
}

// NewDynamicComposite creates a dynamic composite starting with the given
// sub-agents (zero or more — unlike Composite, an empty starting set is
// legal since membership is expected to grow at runtime).
func NewDynamicComposite(name string, agents ...Agent) *DynamicComposite {
	return &DynamicComposite{
		name:   name,
		agents: append([]Agent(nil), agents...),
	}
}

// Name returns the composite's own configured name (not derived from its
// sub-agents, since membership changes at runtime).
func (d *DynamicComposite) Name() string { return d.name }

// Status returns the current lifecycle status.
func (d *DynamicComposite) Status() DynamicStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// TryAdd requests that a be started and appended on the next DoWork. It
// returns false, without error, if a pending add is already queued — the
// caller should back off and retry. It returns false and records an
// ErrPrecondition error (see TryAddErr) if the composite is not Active or
// a is nil.
func (d *DynamicComposite) TryAdd(a Agent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastAddErr = nil
	if d.status != DynamicActive {
		d.lastAddErr = fmt.Errorf("%w: try-add outside ACTIVE status (got %s)", ErrPrecondition, d.status)
		return false
	}
	if a == nil {
		d.lastAddErr = fmt.Errorf("%w: try-add with nil agent", ErrPrecondition)
		return false
	}
	if d.pendingAdd != nil {
		return false
	}
	d.pendingAdd = a
	return true
}

// TryAddErr returns the precondition error, if any, from the most recent
// TryAdd call that returned false because of misuse (not because a slot
// was already occupied).
func (d *DynamicComposite) TryAddErr() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastAddErr
}

// TryRemove requests that a be closed and erased on the next DoWork.
// Same slot/precondition semantics as TryAdd.
func (d *DynamicComposite) TryRemove(a Agent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastRemoveErr = nil
	if d.status != DynamicActive {
		d.lastRemoveErr = fmt.Errorf("%w: try-remove outside ACTIVE status (got %s)", ErrPrecondition, d.status)
		return false
	}
	if a == nil {
		d.lastRemoveErr = fmt.Errorf("%w: try-remove with nil agent", ErrPrecondition)
		return false
	}
	if d.pendingRemove != nil {
		return false
	}
	d.pendingRemove = a
	return true
}

// TryRemoveErr mirrors TryAddErr for TryRemove.
func (d *DynamicComposite) TryRemoveErr() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRemoveErr
}

// HasAddCompleted reports whether the pending-add slot is empty — either
// because nothing was queued or because DoWork has already applied it.
func (d *DynamicComposite) HasAddCompleted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pendingAdd == nil
}

// HasRemoveCompleted mirrors HasAddCompleted for the pending-remove slot.
func (d *DynamicComposite) HasRemoveCompleted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pendingRemove == nil
}

// OnStart starts every sub-agent present at construction time, in order,
// then transitions INIT -> ACTIVE.
func (d *DynamicComposite) OnStart() error {
	errs := make([]error, len(d.agents))
	for i, a := range d.agents {
		errs[i] = a.OnStart()
	}
	d.mu.Lock()
	d.status = DynamicActive
	d.mu.Unlock()
	return newAggregateError(errs)
}

// DoWork drains the pending add/remove slots, applies them, then runs
// every remaining sub-agent's DoWork in order and returns the sum.
func (d *DynamicComposite) DoWork() (int, error) {
	d.mu.Lock()
	add := d.pendingAdd
	remove := d.pendingRemove
	d.pendingAdd = nil
	d.pendingRemove = nil
	d.mu.Unlock()

	// Both a pending add and a pending remove are applied on this tick
	// regardless of whether the other one failed — a failed add must not
	// cause an already-queued remove to be silently dropped (its slot was
	// already cleared above, so HasRemoveCompleted would otherwise lie).
	var addErr error
	if add != nil {
		if err := add.OnStart(); err != nil {
			closeErr := add.OnClose()
			addErr = newAggregateError([]error{err, closeErr})
		} else {
			d.agents = append(d.agents, add)
		}
	}

	var removeErr error
	if remove != nil {
		for i, a := range d.agents {
			if a == remove {
				removeErr = a.OnClose()
				d.agents = append(d.agents[:i], d.agents[i+1:]...)
				break
			}
		}
	}

	if addErr != nil || removeErr != nil {
		return 0, newAggregateError([]error{addErr, removeErr})
	}

	total := 0
	for _, a := range d.agents {
		n, err := a.DoWork()
		if err != nil {
			return total, err
		}
		total += ClampWork(n)
	}
	return total, nil
}

// OnClose transitions to CLOSED, closes every remaining sub-agent,
// clears both pending slots, and reports any aggregate failure.
func (d *DynamicComposite) OnClose() error {
	d.mu.Lock()
	d.status = DynamicClosed
	d.mu.Unlock()

	errs := make([]error, len(d.agents))
	for i, a := range d.agents {
		errs[i] = a.OnClose()
	}

	d.mu.Lock()
	d.pendingAdd = nil
	d.pendingRemove = nil
	d.mu.Unlock()

	return newAggregateError(errs)
}

// OnError escalates by default; see Composite.OnError for why this is
// rarely reached.
func (d *DynamicComposite) OnError(err error) {
	(Base{}).OnError(err)
}
