package complaint

import (
	"context"
	"testing"

	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
)

func TestListQueueReturnsOldestReceivedFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(1)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}
	second, err := f.svc.CreateComplaint(ctx, validIntake(domain.Anonymous()))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}
	if _, err := f.svc.TransitionComplaint(ctx, TransitionInput{
		ComplaintID: second.ComplaintID,
		Target:      "IN_REVIEW",
		Actor:       "inspector-7",
		Observation: "inspection scheduled",
	}); err != nil {
		t.Fatalf("TransitionComplaint() error = %v", err)
	}

	received, err := f.svc.ListQueue(ctx, QueueQuery{})
	if err != nil {
		t.Fatalf("ListQueue() error = %v", err)
	}
	if len(received) != 1 || received[0].ComplaintID != first.ComplaintID {
		t.Fatalf("ListQueue() = %+v, want only %d", received, first.ComplaintID)
	}
	if received[0].JurisdictionID == nil {
		t.Fatalf("ListQueue() jurisdiction = nil, want resolved Wanchaq")
	}

	inReview, err := f.svc.ListQueue(ctx, QueueQuery{Status: "in review"})
	if err != nil {
		t.Fatalf("ListQueue(in review) error = %v", err)
	}
	if len(inReview) != 1 || inReview[0].TrackingCode != second.TrackingCode {
		t.Fatalf("ListQueue(in review) = %+v, want %s", inReview, second.TrackingCode)
	}

	other := uint64(999)
	scoped, err := f.svc.ListQueue(ctx, QueueQuery{JurisdictionID: &other})
	if err != nil {
		t.Fatalf("ListQueue(scoped) error = %v", err)
	}
	if len(scoped) != 0 {
		t.Fatalf("ListQueue(scoped) = %d items, want 0", len(scoped))
	}
}

func TestListQueueRejectsUnknownStatus(t *testing.T) {
	f := setup(t)

	_, err := f.svc.ListQueue(context.Background(), QueueQuery{Status: "ARCHIVED"})
	if !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("ListQueue(ARCHIVED) error = %v, want validation", err)
	}
}
