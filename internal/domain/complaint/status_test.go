package complaint

import (
	"errors"
	"testing"

	"civicdesk/internal/errs"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"RECEIVED":   StatusReceived,
		" in_review": StatusInReview,
		"in review":  StatusInReview,
		"in-review":  StatusInReview,
		"resolved":   StatusResolved,
		"Rejected":   StatusRejected,
	}
	for raw, want := range cases {
		got, err := ParseStatus(raw)
		if err != nil {
			t.Fatalf("ParseStatus(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", raw, got, want)
		}
	}

	for _, raw := range []string{"", "open", "closed", "done"} {
		if _, err := ParseStatus(raw); !errors.Is(err, ErrUnknownStatus) {
			t.Fatalf("ParseStatus(%q) error = %v, want ErrUnknownStatus", raw, err)
		}
	}
}

func TestTransitionTableClosure(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusReceived, StatusInReview}: true,
		{StatusReceived, StatusRejected}: true,
		{StatusInReview, StatusResolved}: true,
		{StatusInReview, StatusRejected}: true,
	}

	for _, from := range Statuses() {
		for _, to := range Statuses() {
			want := legal[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}

			err := CheckTransition(from, to, "checked on site")
			if want && err != nil {
				t.Fatalf("CheckTransition(%s, %s) error = %v", from, to, err)
			}
			if !want && !errors.Is(err, ErrIllegalTransition) {
				t.Fatalf("CheckTransition(%s, %s) error = %v, want ErrIllegalTransition", from, to, err)
			}
		}
	}
}

func TestCheckTransitionRequiresObservation(t *testing.T) {
	err := CheckTransition(StatusReceived, StatusInReview, "   ")
	if !errors.Is(err, ErrObservationRequired) {
		t.Fatalf("CheckTransition() error = %v, want ErrObservationRequired", err)
	}
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("kind = %q", errs.KindOf(err))
	}
}

func TestCheckTransitionUnknownTarget(t *testing.T) {
	err := CheckTransition(StatusReceived, Status("CLOSED"), "x")
	if !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("CheckTransition() error = %v, want ErrUnknownStatus", err)
	}
}

func TestTerminalStatuses(t *testing.T) {
	if StatusReceived.Terminal() || StatusInReview.Terminal() {
		t.Fatalf("non-terminal status reported terminal")
	}
	if !StatusResolved.Terminal() || !StatusRejected.Terminal() {
		t.Fatalf("terminal status reported non-terminal")
	}
	if Status("bogus").Terminal() {
		t.Fatalf("unknown status reported terminal")
	}

	targets := StatusReceived.AllowedTargets()
	targets[0] = StatusResolved
	if !CanTransition(StatusReceived, StatusInReview) {
		t.Fatalf("AllowedTargets() leaked the transition table")
	}
}

func TestReplay(t *testing.T) {
	got, err := Replay(nil)
	if err != nil || got != StatusReceived {
		t.Fatalf("Replay(nil) = %q, %v", got, err)
	}

	got, err = Replay([]Status{StatusInReview, StatusResolved})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if got != StatusResolved {
		t.Fatalf("Replay() = %q", got)
	}

	if _, err := Replay([]Status{StatusResolved}); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("Replay() error = %v, want ErrIllegalTransition", err)
	}
}
