package services

import "fmt"

// Request submission progresses through a small deterministic state machine.
// Hospitals pass through an availability check before a post is created; blood
// banks post directly. The transition function is pure so the flow can be
// reasoned about and tested without a database.

// WorkflowState identifies a point in the submission flow.
type WorkflowState string

const (
	StateDrafting             WorkflowState = "drafting"
	StateCheckingAvailability WorkflowState = "checking_availability"
	StateAvailabilityFound    WorkflowState = "availability_found"
	StateNoAvailability       WorkflowState = "no_availability"
	StatePosted               WorkflowState = "posted"
	StateAbandoned            WorkflowState = "abandoned"
)

// WorkflowEvent is an input that moves the flow forward.
type WorkflowEvent string

const (
	EventSubmitHospital  WorkflowEvent = "submit_hospital"
	EventSubmitBloodBank WorkflowEvent = "submit_blood_bank"
	EventMatchesFound    WorkflowEvent = "matches_found"
	EventNoMatches       WorkflowEvent = "no_matches"
	EventPostAnyway      WorkflowEvent = "post_anyway"
	EventAbandon         WorkflowEvent = "abandon"
)

// WorkflowEffect tells the caller what side effect the transition requires.
type WorkflowEffect string

const (
	EffectNone          WorkflowEffect = ""
	EffectRunCheck      WorkflowEffect = "run_availability_check"
	EffectCreatePost    WorkflowEffect = "create_post"
	EffectReturnMatches WorkflowEffect = "return_matches"
)

// advance computes the successor state and required effect for an event.
// Unknown (state, event) pairs are rejected so callers cannot skip the check.
func advance(state WorkflowState, event WorkflowEvent) (WorkflowState, WorkflowEffect, error) {
	switch state {
	case StateDrafting:
		switch event {
		case EventSubmitHospital:
			return StateCheckingAvailability, EffectRunCheck, nil
		case EventSubmitBloodBank:
			return StatePosted, EffectCreatePost, nil
		case EventAbandon:
			return StateAbandoned, EffectNone, nil
		}
	case StateCheckingAvailability:
		switch event {
		case EventMatchesFound:
			return StateAvailabilityFound, EffectReturnMatches, nil
		case EventNoMatches:
			return StateNoAvailability, EffectCreatePost, nil
		}
	case StateAvailabilityFound:
		switch event {
		case EventPostAnyway:
			return StatePosted, EffectCreatePost, nil
		case EventAbandon:
			return StateAbandoned, EffectNone, nil
		}
	case StateNoAvailability:
		// Auto-post already happened; nothing further to drive.
	case StatePosted, StateAbandoned:
		// Terminal.
	}
	return state, EffectNone, fmt.Errorf("workflow: no transition from %q on %q", state, event)
}
