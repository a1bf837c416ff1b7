package enroll

import (
	"fmt"

	"course-enrollment-backend/config"
	"course-enrollment-backend/internal/model"
)

// Policy captures the two admission workflow knobs that differ between
// deployments: which states hold a seat, and which state a fresh
// enrollment starts in.
type Policy struct {
	seatHolding  map[model.EnrollmentState]bool
	seatStates   []model.EnrollmentState
	initialState model.EnrollmentState
}

// NewPolicy builds a Policy from configuration. Cancelled can never hold
// a seat and can never be the initial state.
func NewPolicy(cfg config.EnrollmentConfig) (Policy, error) {
	p := Policy{seatHolding: make(map[model.EnrollmentState]bool)}

	for _, raw := range cfg.SeatHoldingStates {
		s := model.EnrollmentState(raw)
		if !s.Valid() || s == model.StateCancelled {
			return Policy{}, fmt.Errorf("invalid seat-holding state %q", raw)
		}
		if !p.seatHolding[s] {
			p.seatHolding[s] = true
			p.seatStates = append(p.seatStates, s)
		}
	}
	if len(p.seatStates) == 0 {
		return Policy{}, fmt.Errorf("at least one seat-holding state is required")
	}

	p.initialState = model.EnrollmentState(cfg.InitialState)
	if !p.initialState.Valid() || p.initialState == model.StateCancelled {
		return Policy{}, fmt.Errorf("invalid initial state %q", cfg.InitialState)
	}

	return p, nil
}

// DefaultPolicy treats both Pending and Confirmed as seat-holding and
// starts new enrollments as Pending.
func DefaultPolicy() Policy {
	p, err := NewPolicy(config.EnrollmentConfig{
		SeatHoldingStates: []string{"Pending", "Confirmed"},
		InitialState:      "Pending",
	})
	if err != nil {
		panic(err)
	}
	return p
}

// HoldsSeat reports whether state counts against capacity and overlap.
func (p Policy) HoldsSeat(state model.EnrollmentState) bool {
	return p.seatHolding[state]
}

// SeatHoldingStates returns the states that occupy a seat, for storage
// queries.
func (p Policy) SeatHoldingStates() []model.EnrollmentState {
	return p.seatStates
}

// InitialState is the state a freshly admitted enrollment starts in.
func (p Policy) InitialState() model.EnrollmentState {
	return p.initialState
}
