package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/callhub/be-dispatch/internal/errors"
	"github.com/callhub/be-dispatch/internal/logger"
	"github.com/callhub/be-dispatch/internal/middleware"
	"github.com/callhub/be-dispatch/internal/repository"
	"github.com/callhub/be-dispatch/internal/service"
)

// emptyClaimMessages are the user-facing texts for defined empty claim
// results.
var emptyClaimMessages = map[service.EmptyReason]string{
	service.ReasonNoEligibleClients: "No eligible clients are available right now",
	service.ReasonNoActiveFilter:    "No active filter is configured for this worker",
	service.ReasonNoWikiPools:       "The active filter contains no wiki pools",
}

// HTTPHandler handles HTTP requests.
type HTTPHandler struct {
	assignments *service.AssignmentService
	statuses    *service.StatusService
	clients     *service.ClientService
	filters     *service.FilterService
	history     *service.HistoryService
	registry    *service.StatusRegistry
	pools       *repository.PoolRepository
	log         *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(
	assignments *service.AssignmentService,
	statuses *service.StatusService,
	clients *service.ClientService,
	filters *service.FilterService,
	history *service.HistoryService,
	registry *service.StatusRegistry,
	pools *repository.PoolRepository,
	log *logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		assignments: assignments,
		statuses:    statuses,
		clients:     clients,
		filters:     filters,
		history:     history,
		registry:    registry,
		pools:       pools,
		log:         log,
	}
}

// ── claim ────────────────────────────────────────────────────────────────────

type claimRequest struct {
	WorkerID int64  `json:"worker_id"`
	Role     string `json:"role"`
	FilterID int64  `json:"filter_id,omitempty"`
}

// ClaimNext handles POST /api/v1/clients/claim.
func (h *HTTPHandler) ClaimNext(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeClaim(w, r)
	if !ok {
		return
	}

	result, err := h.assignments.ClaimNext(r.Context(), req.WorkerID, service.Role(req.Role))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeClaimResult(w, result)
}

// ClaimNextForFilter handles POST /api/v1/clients/claim/filter.
func (h *HTTPHandler) ClaimNextForFilter(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeClaim(w, r)
	if !ok {
		return
	}
	if req.FilterID <= 0 {
		h.writeError(w, r, errors.InvalidInput("filter_id", "a filter id is required"))
		return
	}

	result, err := h.assignments.ClaimNextForFilter(r.Context(), req.FilterID, req.WorkerID, service.Role(req.Role))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeClaimResult(w, result)
}

// ClaimNextWiki handles POST /api/v1/clients/claim/wiki.
func (h *HTTPHandler) ClaimNextWiki(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeClaim(w, r)
	if !ok {
		return
	}

	result, err := h.assignments.ClaimNextWiki(r.Context(), req.WorkerID, service.Role(req.Role))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeClaimResult(w, result)
}

func (h *HTTPHandler) decodeClaim(w http.ResponseWriter, r *http.Request) (*claimRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return nil, false
	}
	if req.WorkerID <= 0 {
		h.writeError(w, r, errors.InvalidInput("worker_id", "a worker id is required"))
		return nil, false
	}
	return &req, true
}

func (h *HTTPHandler) writeClaimResult(w http.ResponseWriter, result *service.ClaimResult) {
	resp := map[string]any{"client": result.Client}
	if result.Client == nil {
		resp["reason"] = result.Reason
		resp["message"] = emptyClaimMessages[result.Reason]
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ── transitions ──────────────────────────────────────────────────────────────

type statusRequest struct {
	ClientID int64   `json:"client_id"`
	WorkerID int64   `json:"worker_id"`
	Role     string  `json:"role"`
	Status   string  `json:"status"`
	Notes    *string `json:"notes,omitempty"`
}

// SetStatus handles POST /api/v1/clients/status.
func (h *HTTPHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}

	client, err := h.statuses.SetSimpleStatus(r.Context(), req.ClientID, req.WorkerID,
		service.Role(req.Role), repository.Status(req.Status), req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, client)
}

type callbackRequest struct {
	ClientID   int64     `json:"client_id"`
	WorkerID   int64     `json:"worker_id"`
	Role       string    `json:"role"`
	CallbackAt time.Time `json:"callback_at"`
	Notes      *string   `json:"notes,omitempty"`
}

// ScheduleCallback handles POST /api/v1/clients/callback.
func (h *HTTPHandler) ScheduleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}

	client, err := h.statuses.ScheduleCallback(r.Context(), req.ClientID, req.WorkerID,
		service.Role(req.Role), req.CallbackAt, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, client)
}

type transferRequest struct {
	ClientID     int64   `json:"client_id"`
	FromWorkerID int64   `json:"from_worker_id"`
	ToWorkerID   int64   `json:"to_worker_id"`
	Notes        *string `json:"notes,omitempty"`
}

// Transfer handles POST /api/v1/clients/transfer.
func (h *HTTPHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}

	client, err := h.statuses.Transfer(r.Context(), req.ClientID, req.FromWorkerID, req.ToWorkerID, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, client)
}

// ReturnToWork handles POST /api/v1/clients/return.
func (h *HTTPHandler) ReturnToWork(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}

	client, err := h.statuses.ReturnToWork(r.Context(), req.ClientID, req.WorkerID, service.Role(req.Role))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, client)
}

type clearSectionRequest struct {
	ClientID int64  `json:"client_id"`
	Section  string `json:"section"`
}

// ClearProfileSection handles POST /api/v1/clients/clear-section.
func (h *HTTPHandler) ClearProfileSection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req clearSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}

	client, err := h.statuses.ClearProfileSection(r.Context(), req.ClientID, repository.ProfileSection(req.Section))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, client)
}

// ── client views ─────────────────────────────────────────────────────────────

// GetClient handles GET /api/v1/clients/get?id=N.
func (h *HTTPHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := h.queryID(w, r, "id")
	if !ok {
		return
	}

	client, err := h.clients.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, client)
}

// MyClients handles GET /api/v1/clients/my?worker_id=N&status=S.
func (h *HTTPHandler) MyClients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workerID, ok := h.queryID(w, r, "worker_id")
	if !ok {
		return
	}

	var status *repository.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := repository.Status(s)
		status = &st
	}

	clients, err := h.clients.MyClients(r.Context(), workerID, status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"clients": clients, "total": len(clients)})
}

// ClientsByStatus handles GET /api/v1/clients/by-status?worker_id=N&status=S&role=R.
func (h *HTTPHandler) ClientsByStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workerID, ok := h.queryID(w, r, "worker_id")
	if !ok {
		return
	}
	role := service.Role(r.URL.Query().Get("role"))
	status := repository.Status(r.URL.Query().Get("status"))

	clients, err := h.clients.ByStatus(r.Context(), workerID, role, status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"clients": clients, "total": len(clients)})
}

type noteRequest struct {
	ClientID int64  `json:"client_id"`
	WorkerID int64  `json:"worker_id"`
	Note     string `json:"note"`
}

// Notes handles /api/v1/clients/notes: POST adds a note, GET lists them.
func (h *HTTPHandler) Notes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req noteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
			return
		}
		note, err := h.clients.AddNote(r.Context(), req.ClientID, req.WorkerID, req.Note)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusCreated, note)

	case http.MethodGet:
		clientID, ok := h.queryID(w, r, "client_id")
		if !ok {
			return
		}
		notes, err := h.history.ListNotes(r.Context(), clientID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"notes": notes, "total": len(notes)})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ── history ──────────────────────────────────────────────────────────────────

// ClientHistory handles GET /api/v1/clients/history?client_id=N.
func (h *HTTPHandler) ClientHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientID, ok := h.queryID(w, r, "client_id")
	if !ok {
		return
	}
	limit, offset := queryPage(r)

	entries, err := h.history.ListByClient(r.Context(), clientID, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "total": len(entries)})
}

// WorkerHistory handles GET /api/v1/workers/history?worker_id=N&status=S.
func (h *HTTPHandler) WorkerHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workerID, ok := h.queryID(w, r, "worker_id")
	if !ok {
		return
	}
	limit, offset := queryPage(r)

	var status *repository.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := repository.Status(s)
		status = &st
	}

	entries, err := h.history.ListByWorker(r.Context(), workerID, status, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "total": len(entries)})
}

// LastTransfer handles GET /api/v1/clients/last-transfer?client_id=N.
func (h *HTTPHandler) LastTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientID, ok := h.queryID(w, r, "client_id")
	if !ok {
		return
	}

	entry, err := h.history.LastTransfer(r.Context(), clientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"transfer": entry})
}

type purgeRequest struct {
	Role  string `json:"role"`
	Kind  string `json:"kind"`
	Day   string `json:"day,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// PurgeHistory handles POST /api/v1/history/purge. Privileged only.
func (h *HTTPHandler) PurgeHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req purgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}
	if service.Role(req.Role) != service.RolePrivileged {
		h.writeError(w, r, errors.New(errors.ErrCodeUnauthorized, "history purge requires the admin role"))
		return
	}

	scope, err := service.ParsePurgeScope(req.Kind, req.Day, req.Start, req.End)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	removed, err := h.history.Purge(r.Context(), scope)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// ── filters ──────────────────────────────────────────────────────────────────

type filterRequest struct {
	ID        int64    `json:"id,omitempty"`
	Name      string   `json:"name"`
	PoolIDs   []int64  `json:"pool_ids"`
	WorkerIDs []int64  `json:"worker_ids,omitempty"`
	Statuses  []string `json:"statuses,omitempty"`
	CreatedBy int64    `json:"created_by"`
}

func (req *filterRequest) toFilter() *repository.CallFilter {
	filter := &repository.CallFilter{
		ID:        req.ID,
		Name:      req.Name,
		PoolIDs:   req.PoolIDs,
		WorkerIDs: req.WorkerIDs,
	}
	if req.CreatedBy > 0 {
		filter.CreatedBy = &req.CreatedBy
	}
	for _, s := range req.Statuses {
		filter.Statuses = append(filter.Statuses, repository.Status(s))
	}
	return filter
}

// Filters handles /api/v1/filters: GET lists with counters, POST creates.
func (h *HTTPHandler) Filters(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filters, err := h.filters.List(r.Context())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"filters": filters, "total": len(filters)})

	case http.MethodPost:
		var req filterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
			return
		}
		filter := req.toFilter()
		if err := h.filters.Create(r.Context(), filter); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusCreated, filter)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// UpdateFilter handles POST /api/v1/filters/update.
func (h *HTTPHandler) UpdateFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}
	filter := req.toFilter()
	if err := h.filters.Update(r.Context(), filter); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, filter)
}

type toggleFilterRequest struct {
	ID     int64 `json:"id"`
	Active bool  `json:"active"`
}

// ToggleFilter handles POST /api/v1/filters/toggle.
func (h *HTTPHandler) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req toggleFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}

	filter, err := h.filters.Toggle(r.Context(), req.ID, req.Active)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, filter)
}

// DeleteFilter handles DELETE /api/v1/filters/delete?id=N.
func (h *HTTPHandler) DeleteFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := h.queryID(w, r, "id")
	if !ok {
		return
	}
	if err := h.filters.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── pools & statuses ─────────────────────────────────────────────────────────

type poolRequest struct {
	Name   string `json:"name"`
	IsWiki bool   `json:"is_wiki"`
}

// Pools handles /api/v1/pools: GET lists, POST registers.
func (h *HTTPHandler) Pools(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		pools, err := h.pools.List(r.Context())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"pools": pools, "total": len(pools)})

	case http.MethodPost:
		var req poolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, r, errors.InvalidInput("body", "invalid request body"))
			return
		}
		if req.Name == "" {
			h.writeError(w, r, errors.InvalidInput("name", "a pool name is required"))
			return
		}
		pool := &repository.Pool{Name: req.Name, IsWiki: req.IsWiki}
		if err := h.pools.Create(r.Context(), pool); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusCreated, pool)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Statuses handles GET /api/v1/statuses: the allowed simple statuses.
func (h *HTTPHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"statuses": h.registry.Allowed(r.Context())})
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (h *HTTPHandler) queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, r, errors.InvalidInput(name, "a numeric id is required"))
		return 0, false
	}
	return id, true
}

func queryPage(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch errors.Code(err) {
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeConflict:
		status = http.StatusConflict
	case errors.ErrCodeUnauthorized:
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}

	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
