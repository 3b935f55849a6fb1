package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/assetiq/internal/domain"
)

var (
	_ domain.TransitionValidator[domain.RequestStatus] = (*Validator[domain.RequestStatus])(nil)
	_ domain.TransitionValidator[domain.AssetStatus]   = (*Validator[domain.AssetStatus])(nil)
)

// Validator implements domain.TransitionValidator for one lifecycle using
// looplab/fsm. A short-lived machine is built per Apply call because
// looplab/fsm tracks the current state internally.
type Validator[S ~string] struct {
	events []loopfsm.EventDesc
}

// New builds a validator for the given lifecycle.
func New[S ~string](transitions []domain.Transition[S]) *Validator[S] {
	return &Validator[S]{events: buildEvents(transitions)}
}

// NewRequestValidator validates decomposition request transitions.
func NewRequestValidator() *Validator[domain.RequestStatus] {
	return New(domain.RequestTransitions)
}

// NewAssetValidator validates asset transitions.
func NewAssetValidator() *Validator[domain.AssetStatus] {
	return New(domain.AssetTransitions)
}

// buildEvents groups transitions sharing event and destination into one
// EventDesc with several sources (decompose from AVAILABLE, IN_USE and
// MAINTENANCE all land on RETIRED).
func buildEvents[S ~string](transitions []domain.Transition[S]) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range transitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{Name: k.event, Src: grouped[k], Dst: k.dst})
	}
	return out
}

// Apply returns the state reached by event from current, or a
// *domain.TransitionError when the lifecycle does not allow it.
func (v *Validator[S]) Apply(ctx context.Context, current S, event domain.Event) (S, error) {
	machine := loopfsm.NewFSM(string(current), v.events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{Event: event, Current: string(current)}
		}
		return "", err
	}

	return S(machine.Current()), nil
}
