package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civicdesk/internal/bootstrap/logging"
	domain "civicdesk/internal/domain/complaint"
	"civicdesk/internal/errs"
	"civicdesk/internal/infrastructure/metrics"
	"civicdesk/internal/usecase/complaint"
	"civicdesk/internal/usecase/notification"
)

const (
	headerRequestID = "X-Request-ID"
	headerCitizenID = "X-Citizen-ID"
	headerActorID   = "X-Actor-ID"

	maxRequestBody = 1 << 20
)

type complaintAPI interface {
	CreateComplaint(ctx context.Context, input complaint.IntakeInput) (complaint.IntakeResult, error)
	GetByTrackingCode(ctx context.Context, trackingCode string) (complaint.PublicComplaintView, error)
	ListForOwner(ctx context.Context, citizenID uint64) ([]complaint.ComplaintSummary, error)
	TransitionComplaint(ctx context.Context, input complaint.TransitionInput) (complaint.TransitionResult, error)
	ListQueue(ctx context.Context, query complaint.QueueQuery) ([]complaint.QueueItem, error)
}

type inboxAPI interface {
	ListForCitizen(ctx context.Context, citizenID uint64, unreadOnly bool) ([]notification.Item, error)
	MarkRead(ctx context.Context, citizenID uint64, notificationID uint64) error
	MarkAllRead(ctx context.Context, citizenID uint64) (int64, error)
}

type apiHandler struct {
	complaints complaintAPI
	inbox      inboxAPI
	baseCtx    context.Context
}

type createComplaintRequest struct {
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	District     string   `json:"district"`
	Address      *string  `json:"address"`
	Reference    *string  `json:"reference"`
	VehiclePlate *string  `json:"vehicle_plate"`
	EvidenceRefs []string `json:"evidence_refs"`
}

type createComplaintResponse struct {
	TrackingCode string `json:"tracking_code"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

type transitionRequest struct {
	Status      string `json:"status"`
	Observation string `json:"observation"`
}

type transitionResponse struct {
	TrackingCode string `json:"tracking_code"`
	TransitionID uint64 `json:"transition_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	At           string `json:"at"`
}

type complaintSummaryResponse struct {
	TrackingCode string `json:"tracking_code"`
	Category     string `json:"category"`
	District     string `json:"district"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type queueItemResponse struct {
	ComplaintID    uint64  `json:"complaint_id"`
	TrackingCode   string  `json:"tracking_code"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	District       string  `json:"district"`
	JurisdictionID *uint64 `json:"jurisdiction_id,omitempty"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
}

type notificationResponse struct {
	NotificationID uint64  `json:"id"`
	Kind           string  `json:"kind"`
	Message        string  `json:"message"`
	ComplaintID    *uint64 `json:"complaint_id,omitempty"`
	IsRead         bool    `json:"is_read"`
	CreatedAt      string  `json:"created_at"`
	ReadAt         string  `json:"read_at,omitempty"`
}

type markAllReadResponse struct {
	Updated int64 `json:"updated"`
}

type apiErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// newAPIHandler exposes the complaint lifecycle over HTTP. Identity arrives
// already resolved in X-Citizen-ID and X-Actor-ID.
func newAPIHandler(baseCtx context.Context, complaints complaintAPI, inbox inboxAPI) http.Handler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	h := &apiHandler{complaints: complaints, inbox: inbox, baseCtx: baseCtx}

	r := chi.NewRouter()
	r.Use(h.requestContext)
	r.Use(middleware.Recoverer)
	r.Use(observeRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeAPIJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/complaints", func(r chi.Router) {
		r.Post("/", h.createComplaint)
		r.Get("/{trackingCode}", h.getComplaint)
		r.Put("/{complaintID}/status", h.transitionComplaint)
	})
	r.With(requireActor).Get("/queue", h.listQueue)

	r.Route("/citizens/{citizenID}", func(r chi.Router) {
		r.Use(requireSameCitizen)
		r.Get("/complaints", h.listComplaints)
		r.Get("/notifications", h.listNotifications)
		r.Put("/notifications/read-all", h.markAllRead)
		r.Put("/notifications/{notificationID}/read", h.markRead)
	})

	return r
}

// requestContext carries the process logger into each request and tags it
// with a request id.
func (h *apiHandler) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(headerRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		ctx := logging.WithLogger(r.Context(), logging.Logger(h.baseCtx))
		ctx = logging.WithAttrs(ctx, logging.Attrs(h.baseCtx)...)
		ctx = logging.WithRequestID(ctx, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		logging.Debug(r.Context(), "http request served",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func requireSameCitizen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pathID, err := parseID(chi.URLParam(r, "citizenID"))
		if err != nil {
			writeAPIMessage(w, http.StatusBadRequest, errs.KindValidation, "invalid citizen id")
			return
		}
		raw := strings.TrimSpace(r.Header.Get(headerCitizenID))
		if raw == "" {
			writeAPIMessage(w, http.StatusUnauthorized, errs.KindValidation, "citizen identity is required")
			return
		}
		headerID, err := parseID(raw)
		if err != nil || headerID != pathID {
			writeAPIMessage(w, http.StatusForbidden, errs.KindValidation, "citizen identity does not match")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(r.Header.Get(headerActorID)) == "" {
			writeAPIMessage(w, http.StatusUnauthorized, errs.KindValidation, "authority identity is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *apiHandler) createComplaint(w http.ResponseWriter, r *http.Request) {
	owner := domain.Anonymous()
	if raw := strings.TrimSpace(r.Header.Get(headerCitizenID)); raw != "" {
		citizenID, err := parseID(raw)
		if err != nil {
			writeAPIMessage(w, http.StatusBadRequest, errs.KindValidation, "invalid "+headerCitizenID)
			return
		}
		owner = domain.OwnedBy(citizenID)
	}

	var req createComplaintRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.complaints.CreateComplaint(r.Context(), complaint.IntakeInput{
		Owner:        owner,
		CategoryKey:  req.Category,
		Description:  req.Description,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		District:     req.District,
		Address:      req.Address,
		Reference:    req.Reference,
		VehiclePlate: req.VehiclePlate,
		EvidenceRefs: req.EvidenceRefs,
	})
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	writeAPIJSON(w, http.StatusCreated, createComplaintResponse{
		TrackingCode: result.TrackingCode,
		Status:       string(result.Status),
		CreatedAt:    result.CreatedAt,
	})
}

func (h *apiHandler) getComplaint(w http.ResponseWriter, r *http.Request) {
	view, err := h.complaints.GetByTrackingCode(r.Context(), chi.URLParam(r, "trackingCode"))
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, view)
}

func (h *apiHandler) transitionComplaint(w http.ResponseWriter, r *http.Request) {
	actor := strings.TrimSpace(r.Header.Get(headerActorID))
	if actor == "" {
		writeAPIMessage(w, http.StatusUnauthorized, errs.KindValidation, "authority identity is required")
		return
	}
	complaintID, err := parseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeAPIMessage(w, http.StatusBadRequest, errs.KindValidation, "invalid complaint id")
		return
	}

	var req transitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.complaints.TransitionComplaint(r.Context(), complaint.TransitionInput{
		ComplaintID: complaintID,
		Target:      req.Status,
		Actor:       actor,
		Observation: req.Observation,
	})
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	writeAPIJSON(w, http.StatusOK, transitionResponse{
		TrackingCode: result.TrackingCode,
		TransitionID: result.TransitionID,
		From:         string(result.From),
		To:           string(result.To),
		At:           result.CreatedAt,
	})
}

func (h *apiHandler) listComplaints(w http.ResponseWriter, r *http.Request) {
	citizenID, _ := parseID(chi.URLParam(r, "citizenID"))

	items, err := h.complaints.ListForOwner(r.Context(), citizenID)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	out := make([]complaintSummaryResponse, 0, len(items))
	for _, item := range items {
		out = append(out, complaintSummaryResponse{
			TrackingCode: item.TrackingCode,
			Category:     item.Category,
			District:     item.District,
			Status:       string(item.Status),
			CreatedAt:    item.CreatedAt,
			UpdatedAt:    item.UpdatedAt,
		})
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *apiHandler) listQueue(w http.ResponseWriter, r *http.Request) {
	query := complaint.QueueQuery{Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("jurisdiction"); raw != "" {
		jurisdictionID, err := parseID(raw)
		if err != nil {
			writeAPIMessage(w, http.StatusBadRequest, errs.KindValidation, "invalid jurisdiction id")
			return
		}
		query.JurisdictionID = &jurisdictionID
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeAPIMessage(w, http.StatusBadRequest, errs.KindValidation, "invalid limit")
			return
		}
		query.Limit = limit
	}

	items, err := h.complaints.ListQueue(r.Context(), query)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	out := make([]queueItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, queueItemResponse{
			ComplaintID:    item.ComplaintID,
			TrackingCode:   item.TrackingCode,
			Category:       item.Category,
			Description:    item.Description,
			District:       item.District,
			JurisdictionID: item.JurisdictionID,
			Status:         string(item.Status),
			CreatedAt:      item.CreatedAt,
		})
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *apiHandler) listNotifications(w http.ResponseWriter, r *http.Request) {
	citizenID, _ := parseID(chi.URLParam(r, "citizenID"))
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	items, err := h.inbox.ListForCitizen(r.Context(), citizenID, unreadOnly)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	out := make([]notificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, notificationResponse{
			NotificationID: item.NotificationID,
			Kind:           string(item.Kind),
			Message:        item.Message,
			ComplaintID:    item.ComplaintID,
			IsRead:         item.IsRead,
			CreatedAt:      item.CreatedAt,
			ReadAt:         item.ReadAt,
		})
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *apiHandler) markRead(w http.ResponseWriter, r *http.Request) {
	citizenID, _ := parseID(chi.URLParam(r, "citizenID"))
	notificationID, err := parseID(chi.URLParam(r, "notificationID"))
	if err != nil {
		writeAPIMessage(w, http.StatusBadRequest, errs.KindValidation, "invalid notification id")
		return
	}

	if err := h.inbox.MarkRead(r.Context(), citizenID, notificationID); err != nil {
		writeAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	citizenID, _ := parseID(chi.URLParam(r, "citizenID"))

	updated, err := h.inbox.MarkAllRead(r.Context(), citizenID)
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, markAllReadResponse{Updated: updated})
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeAPIMessage(w, http.StatusBadRequest, errs.KindValidation, msg)
		return false
	}
	return true
}

// statusForKind maps the error taxonomy onto HTTP status codes.
func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindIllegalTransition:
		return http.StatusConflict
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	status := statusForKind(kind)

	msg := err.Error()
	switch kind {
	case errs.KindConflict:
		w.Header().Set("Retry-After", "1")
		msg = "please retry"
	case errs.KindValidation, errs.KindIllegalTransition, errs.KindNotFound:
	default:
		kind = errs.KindInternal
		msg = "internal error"
	}

	if status >= http.StatusInternalServerError {
		logging.Error(r.Context(), "api request failed",
			slog.String("path", r.URL.Path),
			slog.Any("err", errs.Loggable(err)),
		)
	}
	writeAPIMessage(w, status, kind, msg)
}

func writeAPIMessage(w http.ResponseWriter, status int, kind errs.Kind, msg string) {
	writeAPIJSON(w, status, apiErrorResponse{Error: msg, Kind: string(kind)})
}

func writeAPIJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
