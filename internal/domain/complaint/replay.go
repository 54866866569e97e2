package complaint

import "fmt"

// Replay folds an ordered list of transition targets starting from RECEIVED
// and returns the status they lead to. It fails on the first illegal step.
func Replay(targets []Status) (Status, error) {
	current := StatusReceived
	for i, target := range targets {
		if !CanTransition(current, target) {
			return current, fmt.Errorf("%w: step %d %s -> %s", ErrIllegalTransition, i+1, current, target)
		}
		current = target
	}
	return current, nil
}
