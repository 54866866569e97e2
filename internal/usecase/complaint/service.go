package complaint

import (
	"errors"
	"strings"
	"time"

	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/ports"
)

var (
	errRepoRequired = errors.New("complaint repository is required")
	errUOWRequired  = errors.New("complaint unit of work is required")
)

const (
	defaultCodeAttempts       = 5
	defaultTransitionAttempts = 3
	defaultResolveTimeout     = 2 * time.Second
	defaultPublicViewTTL      = 30 * time.Second
)

type Options struct {
	TrackingPrefix     string
	CodeAttempts       int
	TransitionAttempts int
	ResolveTimeout     time.Duration
	PublicViewTTL      time.Duration
}

func (o Options) withDefaults() Options {
	o.TrackingPrefix = strings.ToUpper(strings.TrimSpace(o.TrackingPrefix))
	if o.TrackingPrefix == "" {
		o.TrackingPrefix = domain.DefaultTrackingPrefix
	}
	if o.CodeAttempts <= 0 {
		o.CodeAttempts = defaultCodeAttempts
	}
	if o.TransitionAttempts <= 0 {
		o.TransitionAttempts = defaultTransitionAttempts
	}
	if o.ResolveTimeout <= 0 {
		o.ResolveTimeout = defaultResolveTimeout
	}
	if o.PublicViewTTL < 0 {
		o.PublicViewTTL = 0
	} else if o.PublicViewTTL == 0 {
		o.PublicViewTTL = defaultPublicViewTTL
	}
	return o
}

type Service struct {
	repo       ports.ComplaintRepository
	uow        ports.UnitOfWork
	categories ports.CategoryProvider
	directory  ports.JurisdictionDirectory
	cache      ports.Cache
	hooks      []ports.ComplaintEventHandler
	opts       Options

	now           func() time.Time
	retryInterval time.Duration
}

// NewService wires the complaint lifecycle. categories, directory and cache
// are optional; hooks run after each committed intake or transition.
func NewService(
	repo ports.ComplaintRepository,
	uow ports.UnitOfWork,
	categories ports.CategoryProvider,
	directory ports.JurisdictionDirectory,
	cache ports.Cache,
	opts Options,
	hooks []ports.ComplaintEventHandler,
) *Service {
	return &Service{
		repo:          repo,
		uow:           uow,
		categories:    categories,
		directory:     directory,
		cache:         cache,
		hooks:         hooks,
		opts:          opts.withDefaults(),
		now:           time.Now,
		retryInterval: 10 * time.Millisecond,
	}
}

type IntakeInput struct {
	Owner        domain.Owner
	CategoryKey  string   `validate:"required,max=64"`
	Description  string   `validate:"required,max=4000"`
	Latitude     *float64 `validate:"required,gte=-90,lte=90"`
	Longitude    *float64 `validate:"required,gte=-180,lte=180"`
	District     string   `validate:"required,max=120"`
	Address      *string  `validate:"omitempty,max=255"`
	Reference    *string  `validate:"omitempty,max=255"`
	VehiclePlate *string  `validate:"omitempty,max=16"`
	EvidenceRefs []string `validate:"max=20,dive,required,max=512"`
}

type IntakeResult struct {
	ComplaintID    uint64
	TrackingCode   string
	Status         domain.Status
	JurisdictionID *uint64
	CreatedAt      string
}

type TransitionInput struct {
	ComplaintID uint64
	Target      string
	// Actor is the acting authority; empty records a system-initiated change.
	Actor       string
	Observation string
}

type TransitionResult struct {
	ComplaintID  uint64
	TrackingCode string
	TransitionID uint64
	From         domain.Status
	To           domain.Status
	CreatedAt    string
}

type TimelineEntry struct {
	Status      domain.Status `json:"status"`
	Observation string        `json:"observation"`
	At          string        `json:"at"`
}

// PublicComplaintView is what anyone holding the tracking code may see.
// It carries neither the internal id nor the owner.
type PublicComplaintView struct {
	TrackingCode string          `json:"tracking_code"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	District     string          `json:"district"`
	Address      string          `json:"address,omitempty"`
	Reference    string          `json:"reference,omitempty"`
	Status       domain.Status   `json:"status"`
	Assigned     bool            `json:"assigned"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
	Timeline     []TimelineEntry `json:"timeline"`
}

type ComplaintSummary struct {
	TrackingCode string
	Category     string
	District     string
	Status       domain.Status
	CreatedAt    string
	UpdatedAt    string
}

type HistoryItem struct {
	TransitionID uint64
	Actor        string
	From         domain.Status
	To           domain.Status
	Observation  string
	CreatedAt    string
}

func (s *Service) nowUTC() time.Time {
	return s.now().UTC()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
