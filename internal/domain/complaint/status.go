package complaint

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusReceived Status = "RECEIVED"
	StatusInReview Status = "IN_REVIEW"
	StatusResolved Status = "RESOLVED"
	StatusRejected Status = "REJECTED"
)

// legalTransitions is the complete transition table. Anything missing is illegal.
var legalTransitions = map[Status][]Status{
	StatusReceived: {StatusInReview, StatusRejected},
	StatusInReview: {StatusResolved, StatusRejected},
	StatusResolved: nil,
	StatusRejected: nil,
}

func Statuses() []Status {
	return []Status{StatusReceived, StatusInReview, StatusResolved, StatusRejected}
}

// ParseStatus accepts the enumeration names case-insensitively; "in review"
// and "in-review" are accepted for IN_REVIEW.
func ParseStatus(raw string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	status := Status(normalized)
	if _, ok := legalTransitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return status, nil
}

func (s Status) Valid() bool {
	_, ok := legalTransitions[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(legalTransitions[s]) == 0
}

func (s Status) String() string { return string(s) }

// AllowedTargets returns a copy of the statuses reachable from s in one step.
func (s Status) AllowedTargets() []Status {
	targets := legalTransitions[s]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

func CanTransition(from Status, to Status) bool {
	for _, target := range legalTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// CheckTransition validates a requested change, including the mandatory observation.
func CheckTransition(from Status, to Status, observation string) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, string(to))
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	if strings.TrimSpace(observation) == "" {
		return ErrObservationRequired
	}
	return nil
}
