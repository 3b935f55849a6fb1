package domain

import "context"

// Event represents an action that triggers a state transition.
type Event string

const (
	EventExecute   Event = "execute"
	EventDecompose Event = "decompose"
	EventDispose   Event = "dispose"
)

// Transition defines a valid state change: an event moves an entity from Src to Dst.
type Transition[S ~string] struct {
	Event Event
	Src   S
	Dst   S
}

// RequestTransitions defines the decomposition request lifecycle.
// A request is completed exactly once and never reopened.
var RequestTransitions = []Transition[RequestStatus]{
	{Event: EventExecute, Src: RequestPending, Dst: RequestCompleted},
}

// AssetTransitions defines the part of the asset lifecycle owned by the
// decomposition engine. This is domain knowledge consumed by the FSM adapter.
var AssetTransitions = []Transition[AssetStatus]{
	{Event: EventDecompose, Src: AssetAvailable, Dst: AssetRetired},
	{Event: EventDecompose, Src: AssetInUse, Dst: AssetRetired},
	{Event: EventDecompose, Src: AssetMaintenance, Dst: AssetRetired},
	{Event: EventDispose, Src: AssetRetired, Dst: AssetDisposed},
}

// TransitionValidator checks whether an event is valid from the current state
// and returns the destination state.
type TransitionValidator[S ~string] interface {
	Apply(ctx context.Context, current S, event Event) (S, error)
}
