/*
handlers.go - HTTP API handlers for the service schedule engine

PURPOSE:
  Exposes the schedule engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Services:
    GET    /api/services                      List all services
    POST   /api/services                      Create service + generate schedules
    GET    /api/services/{id}                 Get service details
    PUT    /api/services/{id}                 Update service + regenerate
    DELETE /api/services/{id}                 Archive service (rows kept)
    GET    /api/services/{id}/schedules       List schedule rows
    POST   /api/services/{id}/schedules       Regenerate with overrides
    GET    /api/services/{id}/summary         Aggregate summary

  Schedules:
    POST   /api/services/schedules/{id}/pay     Link a payment
    POST   /api/services/schedules/{id}/unlink  Detach a payment

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (schedule package, store)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid configuration
  - 404: Resource not found
  - 409: Conflict (locked row dropped, transaction reuse)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. The engine is deployed
  single-tenant behind the household reverse proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - store/sqlite: Persistence, including the atomic schedule swap
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/notluquis/finanzas-service-engine/factory"
	"github.com/notluquis/finanzas-service-engine/schedule"
	"github.com/notluquis/finanzas-service-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          *sqlite.Store
	ServiceFactory *factory.ServiceFactory

	// Now is the clock used for fee accrual and overdue reporting.
	// Overridable in tests.
	Now func() schedule.Date
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:          store,
		ServiceFactory: factory.NewServiceFactory(),
		Now:            schedule.Today,
	}
}

// =============================================================================
// SERVICE HANDLERS
// =============================================================================

// ListServices returns all services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.Store.ListServices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list services", err)
		return
	}

	dtos := make([]ServiceDTO, len(services))
	for i, svc := range services {
		dtos[i] = ServiceDTO{
			Definition: h.ServiceFactory.ToJSON(svc),
			Status:     string(svc.Status),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetService returns a single service.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.loadService(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, ServiceDTO{
		Definition: h.ServiceFactory.ToJSON(svc),
		Status:     string(svc.Status),
	})
}

// CreateService creates a service and generates its schedule set.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	h.saveAndRegenerate(w, r, http.StatusCreated, "")
}

// UpdateService replaces a service definition and regenerates its
// schedules. Rows with linked payments are preserved.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	h.saveAndRegenerate(w, r, http.StatusOK, chi.URLParam(r, "id"))
}

func (h *Handler) saveAndRegenerate(w http.ResponseWriter, r *http.Request, okStatus int, pathID string) {
	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if pathID != "" {
		req.Definition.ID = pathID
	}

	svc, err := h.ServiceFactory.FromJSON(req.Definition)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ctx := r.Context()
	if pathID != "" {
		if _, err := h.Store.GetService(ctx, svc.ID); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	if err := h.Store.SaveService(ctx, svc); err != nil {
		writeDomainError(w, err)
		return
	}

	now := h.Now()
	rows, err := h.Store.ReplaceSchedules(ctx, svc.ID, func(existing []schedule.ServiceSchedule) ([]schedule.ServiceSchedule, error) {
		return schedule.Regenerate(svc, schedule.RegenerateOverrides{}, existing, now)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, okStatus, struct {
		Service   ServiceDTO    `json:"service"`
		Schedules []ScheduleDTO `json:"schedules"`
	}{
		Service: ServiceDTO{
			Definition: h.ServiceFactory.ToJSON(svc),
			Status:     string(svc.Status),
		},
		Schedules: toScheduleDTOs(rows, now),
	})
}

// ArchiveService marks a service ARCHIVED. History is kept.
func (h *Handler) ArchiveService(w http.ResponseWriter, r *http.Request) {
	id := schedule.ServiceID(chi.URLParam(r, "id"))

	if err := h.Store.ArchiveService(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// ListSchedules returns a service's schedule rows with current overdue
// and late fee figures.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.loadService(w, r)
	if !ok {
		return
	}

	rows, err := h.Store.ListSchedules(r.Context(), svc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list schedules", err)
		return
	}

	now := h.Now()
	for i := range rows {
		if _, err := schedule.RefreshLateFee(&rows[i], svc.LateFee, now); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toScheduleDTOs(rows, now))
}

// RegenerateSchedules rebuilds a service's schedule set, applying the
// request's overrides. Rows with linked payments always survive.
func (h *Handler) RegenerateSchedules(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.loadService(w, r)
	if !ok {
		return
	}

	var req RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	overrides := schedule.RegenerateOverrides{
		Months:        req.Months,
		DefaultAmount: req.DefaultAmount,
		DueDay:        req.DueDay,
		EmissionDay:   req.EmissionDay,
	}
	if req.StartDate != nil {
		start, err := schedule.ParseDate(*req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
			return
		}
		overrides.StartDate = &start
	}
	if req.Frequency != nil {
		freq := schedule.Frequency(*req.Frequency)
		overrides.Frequency = &freq
	}

	// Persist the merged definition so future regenerations start from it.
	merged := schedule.Normalize(schedule.ApplyOverrides(svc, overrides))
	if err := schedule.Validate(merged); err != nil {
		writeDomainError(w, err)
		return
	}

	ctx := r.Context()
	now := h.Now()
	rows, err := h.Store.ReplaceSchedules(ctx, svc.ID, func(existing []schedule.ServiceSchedule) ([]schedule.ServiceSchedule, error) {
		return schedule.Regenerate(svc, overrides, existing, now)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Store.SaveService(ctx, merged); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleDTOs(rows, now))
}

// GetSummary returns the aggregate summary of a service.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.loadService(w, r)
	if !ok {
		return
	}

	rows, err := h.Store.ListSchedules(r.Context(), svc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list schedules", err)
		return
	}

	now := h.Now()
	for i := range rows {
		if _, err := schedule.RefreshLateFee(&rows[i], svc.LateFee, now); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toSummaryDTO(schedule.Summarize(svc, rows, now)))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// RegisterPayment links an external transaction to a schedule row.
func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	id := schedule.ScheduleID(chi.URLParam(r, "id"))

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	paidDate, err := schedule.ParseDate(req.PaidDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paid_date format (use YYYY-MM-DD)", err)
		return
	}

	ctx := r.Context()
	svc, err := h.serviceOfSchedule(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := h.Store.UpdateScheduleWith(ctx, id, func(row schedule.ServiceSchedule) (schedule.ServiceSchedule, error) {
		return schedule.RegisterPayment(row, schedule.PaymentCommand{
			TransactionID: req.TransactionID,
			PaidAmount:    req.PaidAmount,
			PaidDate:      paidDate,
			Note:          req.Note,
		}, svc.LateFee)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleDTO(updated, h.Now()))
}

// UnlinkPayment detaches a payment from a PAID row, reopening it.
func (h *Handler) UnlinkPayment(w http.ResponseWriter, r *http.Request) {
	id := schedule.ScheduleID(chi.URLParam(r, "id"))

	ctx := r.Context()
	svc, err := h.serviceOfSchedule(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := h.Now()
	updated, err := h.Store.UpdateScheduleWith(ctx, id, func(row schedule.ServiceSchedule) (schedule.ServiceSchedule, error) {
		return schedule.UnlinkPayment(row, svc.LateFee, now)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleDTO(updated, now))
}

// =============================================================================
// HELPERS
// =============================================================================

// loadService resolves the {id} path parameter, writing the error
// response itself when the service cannot be loaded.
func (h *Handler) loadService(w http.ResponseWriter, r *http.Request) (schedule.Service, bool) {
	id := schedule.ServiceID(chi.URLParam(r, "id"))

	svc, err := h.Store.GetService(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return schedule.Service{}, false
	}
	return svc, true
}

// serviceOfSchedule resolves the service a schedule row belongs to, so
// payment handlers can apply its late fee policy.
func (h *Handler) serviceOfSchedule(ctx context.Context, id schedule.ScheduleID) (schedule.Service, error) {
	row, err := h.Store.GetSchedule(ctx, id)
	if err != nil {
		return schedule.Service{}, err
	}
	return h.Store.GetService(ctx, row.ServiceID)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sqlite.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "Service not found", nil)
	case errors.Is(err, sqlite.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "Schedule not found", nil)
	case errors.Is(err, schedule.ErrConflict):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, schedule.ErrValidation), errors.Is(err, schedule.ErrConfiguration):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
