package complaint

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicdesk/internal/ports"
)

type stubDirectory struct {
	matches []ports.Jurisdiction
	err     error
	block   bool
	lastKey string
}

func (d *stubDirectory) FindActiveJurisdictions(ctx context.Context, districtKey string) ([]ports.Jurisdiction, error) {
	d.lastKey = districtKey
	if d.block {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil, ctx.Err()
	}
	return d.matches, d.err
}

func resolverService(directory ports.JurisdictionDirectory, timeout time.Duration) *Service {
	return NewService(nil, nil, nil, directory, nil, Options{ResolveTimeout: timeout}, nil)
}

func TestResolveJurisdictionSingleMatch(t *testing.T) {
	dir := &stubDirectory{matches: []ports.Jurisdiction{{JurisdictionID: 4, District: "Wanchaq", Active: true}}}
	got := resolverService(dir, time.Second).resolveJurisdiction(context.Background(), "  WANCHAQ ")
	if got == nil || *got != 4 {
		t.Fatalf("resolveJurisdiction() = %v, want 4", got)
	}
	if dir.lastKey != "wanchaq" {
		t.Fatalf("lookup key = %q", dir.lastKey)
	}
}

func TestResolveJurisdictionNoMatch(t *testing.T) {
	dir := &stubDirectory{}
	if got := resolverService(dir, time.Second).resolveJurisdiction(context.Background(), "Santiago"); got != nil {
		t.Fatalf("resolveJurisdiction() = %v, want nil", *got)
	}
}

func TestResolveJurisdictionAmbiguousPicksLowestID(t *testing.T) {
	dir := &stubDirectory{matches: []ports.Jurisdiction{
		{JurisdictionID: 9, Active: true},
		{JurisdictionID: 3, Active: true},
		{JurisdictionID: 5, Active: true},
		{JurisdictionID: 1, Active: false},
	}}
	got := resolverService(dir, time.Second).resolveJurisdiction(context.Background(), "Wanchaq")
	if got == nil || *got != 3 {
		t.Fatalf("resolveJurisdiction() = %v, want 3", got)
	}
}

func TestResolveJurisdictionDegradesOnError(t *testing.T) {
	dir := &stubDirectory{err: errors.New("directory unavailable")}
	if got := resolverService(dir, time.Second).resolveJurisdiction(context.Background(), "Wanchaq"); got != nil {
		t.Fatalf("resolveJurisdiction() = %v, want nil", *got)
	}
}

func TestResolveJurisdictionTimesOut(t *testing.T) {
	dir := &stubDirectory{block: true}
	svc := resolverService(dir, 20*time.Millisecond)

	start := time.Now()
	got := svc.resolveJurisdiction(context.Background(), "Wanchaq")
	if got != nil {
		t.Fatalf("resolveJurisdiction() = %v, want nil", *got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("resolveJurisdiction() blocked for %s", elapsed)
	}
}

func TestResolveJurisdictionWithoutDirectory(t *testing.T) {
	if got := resolverService(nil, time.Second).resolveJurisdiction(context.Background(), "Wanchaq"); got != nil {
		t.Fatalf("resolveJurisdiction() = %v, want nil", *got)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{TrackingPrefix: " cd "}.withDefaults()
	if opts.TrackingPrefix != "CD" {
		t.Fatalf("prefix = %q", opts.TrackingPrefix)
	}
	if opts.CodeAttempts != defaultCodeAttempts || opts.TransitionAttempts != defaultTransitionAttempts {
		t.Fatalf("attempts = %d/%d", opts.CodeAttempts, opts.TransitionAttempts)
	}
	if opts.ResolveTimeout != defaultResolveTimeout || opts.PublicViewTTL != defaultPublicViewTTL {
		t.Fatalf("durations = %s/%s", opts.ResolveTimeout, opts.PublicViewTTL)
	}
}
