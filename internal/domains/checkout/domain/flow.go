package domain

import (
	"errors"
	"fmt"

	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

// ErrInvalidTransition rejects a step change the state machine does not allow.
var ErrInvalidTransition = errors.New("invalid checkout step transition")

// Step is a checkout state. 1-3 are navigable; Submitted is terminal.
type Step int

const (
	StepCollectingAddress Step = iota + 1
	StepSelectingPayment
	StepReviewing
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepCollectingAddress:
		return "collecting_address"
	case StepSelectingPayment:
		return "selecting_payment"
	case StepReviewing:
		return "reviewing"
	case StepSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Flow is the checkout state machine.
type Flow struct {
	step Step
}

func NewFlow() *Flow { return &Flow{step: StepCollectingAddress} }

func (f *Flow) Step() Step { return f.step }

// Next validates the current step against d and moves forward one step.
func (f *Flow) Next(d Details) error {
	switch f.step {
	case StepCollectingAddress, StepSelectingPayment:
		return f.GoTo(f.step+1, d)
	default:
		return fmt.Errorf("%w: no step after %s", ErrInvalidTransition, f.step)
	}
}

// Back moves one step backward without validation.
func (f *Flow) Back() error {
	switch f.step {
	case StepSelectingPayment, StepReviewing:
		f.step--
		return nil
	default:
		return fmt.Errorf("%w: no step before %s", ErrInvalidTransition, f.step)
	}
}

// GoTo jumps to target. Moving forward validates d against every step before
// target, from the address step on.
func (f *Flow) GoTo(target Step, d Details) error {
	if f.step == StepSubmitted {
		return fmt.Errorf("%w: checkout already submitted", ErrInvalidTransition)
	}
	if target < StepCollectingAddress || target > StepReviewing {
		return fmt.Errorf("%w: cannot go to %s", ErrInvalidTransition, target)
	}
	if target > f.step {
		if err := validateUpTo(target, d); err != nil {
			return err
		}
	}
	f.step = target
	return nil
}

// ReadyToSubmit checks that the flow sits on Reviewing with valid details.
func (f *Flow) ReadyToSubmit(d Details) error {
	if f.step != StepReviewing {
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, f.step)
	}
	return validateUpTo(StepReviewing, d)
}

func validateUpTo(target Step, d Details) error {
	for s := StepCollectingAddress; s < target; s++ {
		if err := validateStep(s, d); err != nil {
			return err
		}
	}
	return nil
}

// MarkSubmitted enters the terminal state.
func (f *Flow) MarkSubmitted() error {
	if f.step != StepReviewing {
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, f.step)
	}
	f.step = StepSubmitted
	return nil
}

func validateStep(s Step, d Details) error {
	switch s {
	case StepCollectingAddress:
		return d.ValidateAddresses()
	case StepSelectingPayment:
		return d.ValidatePayment()
	default:
		return nil
	}
}

func mergeValidation(errs ...error) error {
	var merged *sharederrors.ValidationError
	for _, err := range errs {
		var v *sharederrors.ValidationError
		if !errors.As(err, &v) {
			continue
		}
		if merged == nil {
			merged = sharederrors.NewValidationError("address is incomplete", map[string]string{})
		}
		for k, msg := range v.Fields {
			merged.Fields[k] = msg
		}
	}
	if merged == nil {
		return nil
	}
	return merged
}
