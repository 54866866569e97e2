package complaint

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/persistence/sqlstore/model"
	"civicdesk/internal/infrastructure/persistence/sqlstore/repository"
	"civicdesk/internal/infrastructure/persistence/sqlstore/uow"
	"civicdesk/internal/ports"
	"civicdesk/internal/usecase/notification"
)

type testCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newTestCache() *testCache {
	return &testCache{data: make(map[string]string)}
}

func (c *testCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *testCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type fixture struct {
	svc           *Service
	db            *gorm.DB
	complaints    *repository.ComplaintRepository
	notifications *repository.NotificationRepository
	catalog       *repository.CatalogRepository
	cache         *testCache
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "civicdesk.sqlite") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// setup wires the service against SQLite with the real notification
// dispatcher, unless hooks are given explicitly.
func setup(t *testing.T, hooks ...ports.ComplaintEventHandler) fixture {
	t.Helper()

	db := openDB(t)
	f := fixture{
		db:            db,
		complaints:    repository.NewComplaintRepository(db),
		notifications: repository.NewNotificationRepository(db),
		catalog:       repository.NewCatalogRepository(db),
		cache:         newTestCache(),
	}

	ctx := context.Background()
	if err := f.catalog.UpsertCategory(ctx, ports.Category{Key: "obstruccion", Name: "Obstruction", Active: true}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	if err := f.catalog.UpsertCategory(ctx, ports.Category{Key: "retired", Name: "Retired", Active: false}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	if _, err := f.catalog.UpsertJurisdiction(ctx, ports.Jurisdiction{Name: "Municipalidad de Wanchaq", District: "Wanchaq", Active: true}); err != nil {
		t.Fatalf("seed jurisdiction: %v", err)
	}

	if len(hooks) == 0 {
		hooks = []ports.ComplaintEventHandler{notification.NewDispatcher(f.notifications, 2)}
	}
	f.svc = NewService(f.complaints, uow.NewUnitOfWork(db), f.catalog, f.catalog, f.cache, Options{}, hooks)
	f.svc.retryInterval = time.Millisecond
	return f
}

func validIntake(owner domain.Owner) IntakeInput {
	return IntakeInput{
		Owner:        owner,
		CategoryKey:  "obstruccion",
		Description:  "truck parked on the sidewalk",
		Latitude:     float64Ptr(-13.5226),
		Longitude:    float64Ptr(-71.9673),
		District:     "Wanchaq",
		EvidenceRefs: []string{"blob://photo-1"},
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}

func (f fixture) notificationsFor(t *testing.T, citizenID uint64) []ports.NotificationRecord {
	t.Helper()
	items, err := f.notifications.ListNotifications(context.Background(), ports.NotificationFilter{RecipientID: citizenID})
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	return items
}

func (f fixture) notificationCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&model.Notification{}).Count(&count).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return count
}

func (f fixture) status(t *testing.T, complaintID uint64) domain.Status {
	t.Helper()
	record, err := f.complaints.GetComplaint(context.Background(), complaintID)
	if err != nil {
		t.Fatalf("GetComplaint() error = %v", err)
	}
	return record.Status
}

func (f fixture) transitions(t *testing.T, complaintID uint64) []ports.TransitionRecord {
	t.Helper()
	items, err := f.complaints.ListTransitions(context.Background(), complaintID)
	if err != nil {
		t.Fatalf("ListTransitions() error = %v", err)
	}
	return items
}

func TestCreateIdentifiedComplaint(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(42)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}

	pattern := regexp.MustCompile(fmt.Sprintf(`^CS-%d-\d{4,}$`, time.Now().UTC().Year()))
	if !pattern.MatchString(result.TrackingCode) {
		t.Fatalf("tracking code = %q", result.TrackingCode)
	}
	if result.Status != domain.StatusReceived {
		t.Fatalf("status = %q", result.Status)
	}
	if result.JurisdictionID == nil {
		t.Fatalf("jurisdiction not assigned")
	}

	items := f.notificationsFor(t, 42)
	if len(items) != 1 {
		t.Fatalf("notifications = %d, want 1", len(items))
	}
	if items[0].Kind != domain.NotificationComplaintCreated {
		t.Fatalf("kind = %q", items[0].Kind)
	}
	if items[0].ComplaintID == nil || *items[0].ComplaintID != result.ComplaintID {
		t.Fatalf("linked complaint = %v", items[0].ComplaintID)
	}
}

func TestCreateAnonymousComplaint(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.svc.CreateComplaint(ctx, validIntake(domain.Anonymous()))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}
	if f.notificationCount(t) != 0 {
		t.Fatalf("anonymous intake produced notifications")
	}

	view, err := f.svc.GetByTrackingCode(ctx, result.TrackingCode)
	if err != nil {
		t.Fatalf("GetByTrackingCode() error = %v", err)
	}
	if view.Status != domain.StatusReceived || view.TrackingCode != result.TrackingCode {
		t.Fatalf("view = %#v", view)
	}

	for _, citizen := range []uint64{1, 42, 99} {
		items, err := f.svc.ListForOwner(ctx, citizen)
		if err != nil {
			t.Fatalf("ListForOwner(%d) error = %v", citizen, err)
		}
		if len(items) != 0 {
			t.Fatalf("ListForOwner(%d) returned anonymous complaint", citizen)
		}
	}
}

func TestCreateComplaintNormalizesInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	input := validIntake(domain.OwnedBy(7))
	plate := "  abc-123 "
	input.VehiclePlate = &plate
	input.CategoryKey = " Obstruccion "
	input.District = "  WANCHAQ "
	input.EvidenceRefs = []string{" blob://a ", "", "blob://b"}

	result, err := f.svc.CreateComplaint(ctx, input)
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}

	record, err := f.complaints.GetComplaint(ctx, result.ComplaintID)
	if err != nil {
		t.Fatalf("GetComplaint() error = %v", err)
	}
	if record.VehiclePlate == nil || *record.VehiclePlate != "ABC-123" {
		t.Fatalf("plate = %v", record.VehiclePlate)
	}
	if record.Location.District != "WANCHAQ" {
		t.Fatalf("district = %q", record.Location.District)
	}
	if len(record.EvidenceRefs) != 2 || record.EvidenceRefs[0] != "blob://a" {
		t.Fatalf("evidence = %#v", record.EvidenceRefs)
	}
	if record.JurisdictionID == nil {
		t.Fatalf("case-insensitive district did not resolve")
	}
}

func TestCreateComplaintValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := map[string]func(*IntakeInput){
		"missing description": func(in *IntakeInput) { in.Description = "   " },
		"missing category":    func(in *IntakeInput) { in.CategoryKey = "" },
		"missing district":    func(in *IntakeInput) { in.District = "" },
		"latitude range":      func(in *IntakeInput) { in.Latitude = float64Ptr(91) },
		"longitude range":     func(in *IntakeInput) { in.Longitude = float64Ptr(-181) },
		"missing latitude":    func(in *IntakeInput) { in.Latitude = nil },
		"missing longitude":   func(in *IntakeInput) { in.Longitude = nil },
	}
	for name, mutate := range cases {
		input := validIntake(domain.OwnedBy(42))
		mutate(&input)

		_, err := f.svc.CreateComplaint(ctx, input)
		if !errors.Is(err, domain.ErrInvalidIntake) {
			t.Fatalf("%s: error = %v, want ErrInvalidIntake", name, err)
		}
		if errs.KindOf(err) != errs.KindValidation {
			t.Fatalf("%s: kind = %q", name, errs.KindOf(err))
		}
	}

	for _, key := range []string{"unknown", "retired"} {
		input := validIntake(domain.OwnedBy(42))
		input.CategoryKey = key
		_, err := f.svc.CreateComplaint(ctx, input)
		if !errors.Is(err, ports.ErrCategoryNotFound) {
			t.Fatalf("category %q: error = %v, want ErrCategoryNotFound", key, err)
		}
	}

	count, err := f.complaints.CountComplaintsInYear(ctx, time.Now().UTC().Year())
	if err != nil {
		t.Fatalf("CountComplaintsInYear() error = %v", err)
	}
	if count != 0 || f.notificationCount(t) != 0 {
		t.Fatalf("rejected intake left state: complaints=%d", count)
	}
}

func TestConcurrentIntakeYieldsDistinctCodes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	year := time.Now().UTC().Year()

	const n = 2
	codes := make([]string, n)
	errCh := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.svc.CreateComplaint(ctx, validIntake(domain.Anonymous()))
			if err != nil {
				errCh <- err
				return
			}
			codes[i] = result.TrackingCode
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("CreateComplaint() error = %v", err)
	}

	sort.Strings(codes)
	want := []string{
		domain.FormatTrackingCode("CS", year, 1),
		domain.FormatTrackingCode("CS", year, 2),
	}
	if codes[0] != want[0] || codes[1] != want[1] {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
}

type collidingRepo struct {
	*repository.ComplaintRepository
	failures int
	calls    int
}

func (r *collidingRepo) CreateComplaint(ctx context.Context, record ports.ComplaintRecord) (ports.ComplaintRecord, error) {
	r.calls++
	if r.calls <= r.failures {
		return ports.ComplaintRecord{}, fmt.Errorf("%w: %s", ports.ErrTrackingCodeTaken, record.TrackingCode)
	}
	return r.ComplaintRepository.CreateComplaint(ctx, record)
}

func TestTrackingCodeCollisionIsRetried(t *testing.T) {
	f := setup(t)
	repo := &collidingRepo{ComplaintRepository: f.complaints, failures: 1}
	f.svc.repo = repo

	result, err := f.svc.CreateComplaint(context.Background(), validIntake(domain.OwnedBy(42)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("calls = %d, want 2", repo.calls)
	}
	if result.TrackingCode != domain.FormatTrackingCode("CS", time.Now().UTC().Year(), 1) {
		t.Fatalf("tracking code = %q", result.TrackingCode)
	}
}

func TestTrackingCodeCollisionExhaustionIsRetryable(t *testing.T) {
	f := setup(t)
	repo := &collidingRepo{ComplaintRepository: f.complaints, failures: 100}
	f.svc.repo = repo
	f.svc.opts.CodeAttempts = 3

	_, err := f.svc.CreateComplaint(context.Background(), validIntake(domain.OwnedBy(42)))
	if errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("error = %v, kind %q, want conflict", err, errs.KindOf(err))
	}
	if repo.calls != 3 {
		t.Fatalf("calls = %d, want 3", repo.calls)
	}
	if f.notificationCount(t) != 0 {
		t.Fatalf("failed intake produced notifications")
	}
}

func TestIllegalTransitionLeavesNoEffect(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(42)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}

	_, err = f.svc.TransitionComplaint(ctx, TransitionInput{
		ComplaintID: created.ComplaintID,
		Target:      "RESOLVED",
		Actor:       "inspector-1",
		Observation: "fixed",
	})
	if !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("TransitionComplaint() error = %v, want ErrIllegalTransition", err)
	}
	if got := f.status(t, created.ComplaintID); got != domain.StatusReceived {
		t.Fatalf("status = %q, want RECEIVED", got)
	}
	if len(f.transitions(t, created.ComplaintID)) != 0 {
		t.Fatalf("illegal transition wrote audit entries")
	}
	if len(f.notificationsFor(t, 42)) != 1 {
		t.Fatalf("illegal transition produced notifications")
	}
}

func TestTransitionClosure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	paths := map[domain.Status][]domain.Status{
		domain.StatusReceived: nil,
		domain.StatusInReview: {domain.StatusInReview},
		domain.StatusResolved: {domain.StatusInReview, domain.StatusResolved},
		domain.StatusRejected: {domain.StatusRejected},
	}

	for _, from := range domain.Statuses() {
		for _, to := range domain.Statuses() {
			if domain.CanTransition(from, to) {
				continue
			}

			created, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(5)))
			if err != nil {
				t.Fatalf("CreateComplaint() error = %v", err)
			}
			for _, step := range paths[from] {
				if _, err := f.svc.TransitionComplaint(ctx, TransitionInput{
					ComplaintID: created.ComplaintID,
					Target:      string(step),
					Actor:       "inspector-1",
					Observation: "moving along",
				}); err != nil {
					t.Fatalf("setup %s: %v", step, err)
				}
			}
			before := len(f.transitions(t, created.ComplaintID))

			_, err = f.svc.TransitionComplaint(ctx, TransitionInput{
				ComplaintID: created.ComplaintID,
				Target:      string(to),
				Actor:       "inspector-1",
				Observation: "not allowed",
			})
			if errs.KindOf(err) != errs.KindIllegalTransition {
				t.Fatalf("%s -> %s: error = %v, want illegal_transition", from, to, err)
			}
			if got := f.status(t, created.ComplaintID); got != from {
				t.Fatalf("%s -> %s: status = %q", from, to, got)
			}
			if after := len(f.transitions(t, created.ComplaintID)); after != before {
				t.Fatalf("%s -> %s: audit entries %d -> %d", from, to, before, after)
			}
		}
	}
}

func TestReviewThenResolve(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(42)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}

	steps := []struct {
		target      string
		observation string
	}{
		{"in_review", "crew assigned"},
		{"RESOLVED", "vehicle towed"},
	}
	for _, step := range steps {
		if _, err := f.svc.TransitionComplaint(ctx, TransitionInput{
			ComplaintID: created.ComplaintID,
			Target:      step.target,
			Actor:       "inspector-1",
			Observation: step.observation,
		}); err != nil {
			t.Fatalf("TransitionComplaint(%s) error = %v", step.target, err)
		}
	}

	history, err := f.svc.History(ctx, created.ComplaintID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want 2", len(history))
	}
	if history[0].To != domain.StatusInReview || history[1].To != domain.StatusResolved {
		t.Fatalf("history order = %s, %s", history[0].To, history[1].To)
	}
	if history[0].Actor != "inspector-1" || history[1].Observation != "vehicle towed" {
		t.Fatalf("history = %#v", history)
	}

	replayed, err := f.svc.VerifyAuditTrail(ctx, created.ComplaintID)
	if err != nil || replayed != domain.StatusResolved {
		t.Fatalf("VerifyAuditTrail() = %q, %v", replayed, err)
	}

	resolved := 0
	for _, item := range f.notificationsFor(t, 42) {
		if item.Kind == domain.NotificationComplaintResolved {
			resolved++
		}
	}
	if resolved != 1 {
		t.Fatalf("resolved notifications = %d, want 1", resolved)
	}
}

func TestAnonymousComplaintStaysSilent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateComplaint(ctx, validIntake(domain.Anonymous()))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}
	for _, target := range []string{"IN_REVIEW", "REJECTED"} {
		if _, err := f.svc.TransitionComplaint(ctx, TransitionInput{
			ComplaintID: created.ComplaintID,
			Target:      target,
			Actor:       "inspector-1",
			Observation: "checked",
		}); err != nil {
			t.Fatalf("TransitionComplaint(%s) error = %v", target, err)
		}
	}

	if f.notificationCount(t) != 0 {
		t.Fatalf("anonymous complaint produced notifications")
	}
}

type failingNotifications struct {
	ports.NotificationRepository
	calls int
}

func (r *failingNotifications) CreateNotification(context.Context, ports.NotificationCreate) (ports.NotificationRecord, error) {
	r.calls++
	return ports.NotificationRecord{}, errors.New("notification store unavailable")
}

func TestNotificationFailureDoesNotRollBackTransition(t *testing.T) {
	failing := &failingNotifications{}
	f := setup(t, notification.NewDispatcher(failing, 2))
	ctx := context.Background()

	created, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(42)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}
	if failing.calls != 2 {
		t.Fatalf("creation notify attempts = %d, want 2", failing.calls)
	}

	result, err := f.svc.TransitionComplaint(ctx, TransitionInput{
		ComplaintID: created.ComplaintID,
		Target:      "IN_REVIEW",
		Actor:       "inspector-1",
		Observation: "crew assigned",
	})
	if err != nil {
		t.Fatalf("TransitionComplaint() error = %v", err)
	}
	if result.From != domain.StatusReceived || result.To != domain.StatusInReview {
		t.Fatalf("result = %#v", result)
	}
	if failing.calls != 4 {
		t.Fatalf("notify attempts = %d, want 4", failing.calls)
	}
	if got := f.status(t, created.ComplaintID); got != domain.StatusInReview {
		t.Fatalf("status = %q, want IN_REVIEW", got)
	}
	if len(f.transitions(t, created.ComplaintID)) != 1 {
		t.Fatalf("audit entry missing after notification failure")
	}
}

func TestTransitionValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(42)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}

	_, err = f.svc.TransitionComplaint(ctx, TransitionInput{ComplaintID: created.ComplaintID, Target: "IN_REVIEW", Actor: "a"})
	if !errors.Is(err, domain.ErrObservationRequired) {
		t.Fatalf("blank observation error = %v", err)
	}

	_, err = f.svc.TransitionComplaint(ctx, TransitionInput{ComplaintID: created.ComplaintID, Target: "ARCHIVED", Actor: "a", Observation: "x"})
	if !errors.Is(err, domain.ErrUnknownStatus) {
		t.Fatalf("unknown status error = %v", err)
	}

	_, err = f.svc.TransitionComplaint(ctx, TransitionInput{ComplaintID: 9999, Target: "IN_REVIEW", Actor: "a", Observation: "x"})
	if errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("missing complaint error = %v, kind %q", err, errs.KindOf(err))
	}

	if got := f.status(t, created.ComplaintID); got != domain.StatusReceived {
		t.Fatalf("status = %q", got)
	}
}

type staleOnceRepo struct {
	*repository.ComplaintRepository
	stale int
	calls int
}

func (r *staleOnceRepo) UpdateComplaintStatus(ctx context.Context, update ports.StatusUpdate) error {
	r.calls++
	if r.calls <= r.stale {
		return fmt.Errorf("%w: id=%d", ports.ErrStaleComplaint, update.ComplaintID)
	}
	return r.ComplaintRepository.UpdateComplaintStatus(ctx, update)
}

func TestStaleTransitionIsReevaluated(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(42)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}

	repo := &staleOnceRepo{ComplaintRepository: f.complaints, stale: 1}
	f.svc.repo = repo

	if _, err := f.svc.TransitionComplaint(ctx, TransitionInput{
		ComplaintID: created.ComplaintID,
		Target:      "REJECTED",
		Actor:       "inspector-1",
		Observation: "duplicate report",
	}); err != nil {
		t.Fatalf("TransitionComplaint() error = %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("update calls = %d, want 2", repo.calls)
	}
	if len(f.transitions(t, created.ComplaintID)) != 1 {
		t.Fatalf("retried transition wrote %d audit entries", len(f.transitions(t, created.ComplaintID)))
	}
}

func TestConcurrentTransitionsSerialize(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(42)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}

	results := make(chan error, 2)
	for _, target := range []string{"IN_REVIEW", "REJECTED"} {
		go func(target string) {
			_, err := f.svc.TransitionComplaint(ctx, TransitionInput{
				ComplaintID: created.ComplaintID,
				Target:      target,
				Actor:       "inspector-" + target,
				Observation: "racing",
			})
			results <- err
		}(target)
	}
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil && errs.KindOf(err) != errs.KindIllegalTransition {
			t.Fatalf("TransitionComplaint() error = %v", err)
		}
	}

	if _, err := f.svc.VerifyAuditTrail(ctx, created.ComplaintID); err != nil {
		t.Fatalf("VerifyAuditTrail() error = %v", err)
	}
}

func TestPublicViewHidesOwnerAndRefreshesAfterTransition(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(42)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}

	view, err := f.svc.GetByTrackingCode(ctx, " "+created.TrackingCode+" ")
	if err != nil {
		t.Fatalf("GetByTrackingCode() error = %v", err)
	}
	if len(view.Timeline) != 1 || view.Timeline[0].Status != domain.StatusReceived {
		t.Fatalf("timeline = %#v", view.Timeline)
	}
	if !view.Assigned {
		t.Fatalf("view not assigned")
	}
	if _, ok, _ := f.cache.Get(ctx, cachePublicViewKey(created.TrackingCode, 0)); !ok {
		t.Fatalf("public view not cached")
	}

	if _, err := f.svc.TransitionComplaint(ctx, TransitionInput{
		ComplaintID: created.ComplaintID,
		Target:      "IN_REVIEW",
		Actor:       "inspector-1",
		Observation: "crew assigned",
	}); err != nil {
		t.Fatalf("TransitionComplaint() error = %v", err)
	}

	view, err = f.svc.GetByTrackingCode(ctx, created.TrackingCode)
	if err != nil {
		t.Fatalf("GetByTrackingCode() error = %v", err)
	}
	if view.Status != domain.StatusInReview || len(view.Timeline) != 2 {
		t.Fatalf("view after transition = %#v", view)
	}
	if view.Timeline[1].Observation != "crew assigned" {
		t.Fatalf("timeline = %#v", view.Timeline)
	}
	if _, ok, _ := f.cache.Get(ctx, cachePublicViewKey(created.TrackingCode, 0)); ok {
		t.Fatalf("view for superseded version still cached")
	}
}

func TestPublicViewIgnoresLateWriteForOlderVersion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(42)))
	if err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}
	if _, err := f.svc.TransitionComplaint(ctx, TransitionInput{
		ComplaintID: created.ComplaintID,
		Target:      "IN_REVIEW",
		Actor:       "inspector-1",
		Observation: "crew assigned",
	}); err != nil {
		t.Fatalf("TransitionComplaint() error = %v", err)
	}

	// A reader that loaded the row before the transition stores its view
	// after the invalidation already ran.
	stale := `{"tracking_code":"` + created.TrackingCode + `","status":"RECEIVED","description":"stale"}`
	if err := f.cache.Set(ctx, cachePublicViewKey(created.TrackingCode, 0), stale, time.Hour); err != nil {
		t.Fatalf("cache Set() error = %v", err)
	}

	view, err := f.svc.GetByTrackingCode(ctx, created.TrackingCode)
	if err != nil {
		t.Fatalf("GetByTrackingCode() error = %v", err)
	}
	if view.Status != domain.StatusInReview || len(view.Timeline) != 2 {
		t.Fatalf("view = %#v, want IN_REVIEW with two timeline entries", view)
	}
	if view.Description == "stale" {
		t.Fatalf("stale cached view served")
	}
}

func TestGetByTrackingCodeErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.GetByTrackingCode(ctx, "not-a-code"); !errors.Is(err, domain.ErrInvalidTrackingCode) {
		t.Fatalf("malformed code error = %v", err)
	}
	_, err := f.svc.GetByTrackingCode(ctx, "CS-2020-0001")
	if errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("unknown code error = %v, kind %q", err, errs.KindOf(err))
	}
}

func TestListForOwnerNewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var codes []string
	for i := 0; i < 3; i++ {
		result, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(42)))
		if err != nil {
			t.Fatalf("CreateComplaint() error = %v", err)
		}
		codes = append(codes, result.TrackingCode)
	}
	if _, err := f.svc.CreateComplaint(ctx, validIntake(domain.OwnedBy(43))); err != nil {
		t.Fatalf("CreateComplaint() error = %v", err)
	}

	items, err := f.svc.ListForOwner(ctx, 42)
	if err != nil {
		t.Fatalf("ListForOwner() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	for i, item := range items {
		if want := codes[len(codes)-1-i]; item.TrackingCode != want {
			t.Fatalf("items[%d] = %q, want %q", i, item.TrackingCode, want)
		}
	}

	if _, err := f.svc.ListForOwner(ctx, 0); errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("ListForOwner(0) error = %v", err)
	}
}
