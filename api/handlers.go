/*
handlers.go - HTTP handlers for the roster engine API

PURPOSE:
  The thin I/O shell around the pure engine. Each handler follows the
  same shape: decode and validate the DTO, fetch the record snapshot
  from the store, call the engine, map the result back to a DTO.

THE SUBMIT FLOW (the one with teeth):
  1. Resolve the candidate's affected roster periods
  2. Snapshot the period versions AND the overlapping records
  3. Evaluate (pure)
  4. INELIGIBLE        -> 422, nothing persisted
     OVERRIDE_REQUIRED -> 202, nothing persisted; the approval
                          workflow resubmits after the human call
     ELIGIBLE          -> Admit under the optimistic version check
  5. Admit lost the race -> 409; the client re-fetches and retries

  Step 5 is what closes the read-then-decide race described in the
  engine: two clients can both see ELIGIBLE, only one admission lands.

SEE ALSO:
  - server.go: routing
  - leave/store.go: the admission contract
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/roster"
)

// Handler holds the API dependencies.
type Handler struct {
	store     leave.AdmissionStore
	evaluator *leave.Evaluator
	calc      *roster.Calculator
	threshold leave.CrewThreshold
	cutoff    int
	log       *zap.Logger
	validate  *validator.Validate
}

// NewHandler wires a handler. The calculator inside the evaluator and
// the one passed here must be the same instance.
func NewHandler(store leave.AdmissionStore, calc *roster.Calculator, threshold leave.CrewThreshold, cutoffDays int, log *zap.Logger) *Handler {
	return &Handler{
		store:     store,
		evaluator: leave.NewEvaluator(calc),
		calc:      calc,
		threshold: threshold,
		cutoff:    cutoffDays,
		log:       log,
		validate:  validator.New(),
	}
}

// =============================================================================
// PERIODS
// =============================================================================

// GetPeriods resolves roster periods.
// ?date=YYYY-MM-DD           -> the single enclosing period
// ?from=...&to=...           -> every overlapping period
func (h *Handler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if ds := q.Get("date"); ds != "" {
		d, err := roster.ParseDate(ds)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid date: %v", err))
			return
		}
		h.respondJSON(w, http.StatusOK, []PeriodDTO{toPeriodDTO(h.calc.PeriodForDate(d))})
		return
	}

	from, to, err := parseRangeQuery(q.Get("from"), q.Get("to"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	periods, err := h.calc.PeriodsOverlapping(from, to)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	h.respondJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// GetAvailability returns per-day on-leave counts for a range.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRangeQuery(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.store.RecordsOverlapping(r.Context(), from, to)
	if err != nil {
		h.storeError(w, err)
		return
	}

	days, err := leave.CountOnLeaveRange(from, to, records)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var out []DayAvailabilityDTO
	for day, counts := range days {
		out = append(out, toDayAvailabilityDTO(day, counts))
	}
	h.respondJSON(w, http.StatusOK, out)
}

// =============================================================================
// EVALUATION AND SUBMISSION
// =============================================================================

// EvaluateRequest runs the eligibility check without persisting anything.
func (h *Handler) EvaluateRequest(w http.ResponseWriter, r *http.Request) {
	candidate, ectx, ok := h.decodeCandidate(w, r)
	if !ok {
		return
	}

	// A structurally invalid range cannot be used to query the store;
	// the engine turns it into an INELIGIBLE verdict, so the snapshot
	// read happens only for usable ranges.
	var records []leave.LeaveRecord
	if roster.ValidateRange(candidate.StartDate, candidate.EndDate) == nil {
		var err error
		records, err = h.store.RecordsOverlapping(r.Context(), candidate.StartDate, candidate.EndDate)
		if err != nil {
			h.storeError(w, err)
			return
		}
	}

	verdict, err := h.evaluator.Evaluate(candidate, records, h.threshold, ectx)
	if err != nil {
		h.engineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toVerdictDTO(verdict))
}

// SubmitRequest evaluates and, when eligible, admits the request under
// the optimistic per-period admission check.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	candidate, ectx, ok := h.decodeCandidate(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	// Structural failures are verdicts, not transport errors: a
	// candidate with an inverted range skips the snapshot reads (the
	// store cannot be queried with it) and goes straight to the engine,
	// which denies it with a reason. Only usable ranges reach Admit.
	var (
		versions map[string]int64
		records  []leave.LeaveRecord
	)
	if roster.ValidateRange(candidate.StartDate, candidate.EndDate) == nil {
		periods, err := h.calc.PeriodsOverlapping(candidate.StartDate, candidate.EndDate)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		codes := make([]string, len(periods))
		for i, p := range periods {
			codes[i] = p.Code
		}

		// Snapshot versions before records: if an admission slips between
		// the two reads, the version check still catches it at write time.
		versions, err = h.store.PeriodVersions(ctx, codes)
		if err != nil {
			h.storeError(w, err)
			return
		}
		records, err = h.store.RecordsOverlapping(ctx, candidate.StartDate, candidate.EndDate)
		if err != nil {
			h.storeError(w, err)
			return
		}
	}

	verdict, err := h.evaluator.Evaluate(candidate, records, h.threshold, ectx)
	if err != nil {
		h.engineError(w, err)
		return
	}

	switch verdict.Decision {
	case leave.DecisionIneligible:
		h.respondJSON(w, http.StatusUnprocessableEntity, SubmitResponseDTO{Verdict: toVerdictDTO(verdict)})
		return
	case leave.DecisionOverrideRequired:
		h.respondJSON(w, http.StatusAccepted, SubmitResponseDTO{Verdict: toVerdictDTO(verdict)})
		return
	}

	admitted, err := h.store.Admit(ctx, candidate.ToRecord(), versions)
	if errors.Is(err, leave.ErrConcurrentAdmission) {
		h.respondError(w, http.StatusConflict, "another request was admitted into an affected roster period; re-evaluate and retry")
		return
	}
	if err != nil {
		h.storeError(w, err)
		return
	}

	h.log.Info("leave request admitted",
		zap.String("record_id", admitted.ID),
		zap.String("pilot_id", string(admitted.PilotID)),
		zap.String("start", admitted.StartDate.String()),
		zap.String("end", admitted.EndDate.String()))

	rec := toRecordDTO(admitted)
	h.respondJSON(w, http.StatusCreated, SubmitResponseDTO{Verdict: toVerdictDTO(verdict), Record: &rec})
}

// ListRequests returns leave records overlapping a range.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRangeQuery(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.store.RecordsOverlapping(r.Context(), from, to)
	if err != nil {
		h.storeError(w, err)
		return
	}

	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	h.respondJSON(w, http.StatusOK, dtos)
}

// UpdateStatus transitions a record's lifecycle state.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := leave.ParseStatus(req.Status)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.store.UpdateStatus(r.Context(), id, status)
	if errors.Is(err, leave.ErrRecordNotFound) {
		h.respondError(w, http.StatusNotFound, "leave record not found")
		return
	}
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toRecordDTO(rec))
}

// Health is the liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeCandidate parses, validates, and maps the candidate DTO.
// Responds with 400 and returns ok=false on any boundary failure.
func (h *Handler) decodeCandidate(w http.ResponseWriter, r *http.Request) (leave.CandidateRequest, leave.EvaluationContext, bool) {
	var dto CandidateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return leave.CandidateRequest{}, leave.EvaluationContext{}, false
	}
	if err := h.validate.Struct(dto); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return leave.CandidateRequest{}, leave.EvaluationContext{}, false
	}

	start, err := roster.ParseDate(dto.StartDate)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid start_date: %v", err))
		return leave.CandidateRequest{}, leave.EvaluationContext{}, false
	}
	end, err := roster.ParseDate(dto.EndDate)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid end_date: %v", err))
		return leave.CandidateRequest{}, leave.EvaluationContext{}, false
	}

	candidate := leave.CandidateRequest{
		PilotID:   leave.PilotID(dto.PilotID),
		Role:      leave.Role(dto.Role),
		StartDate: start,
		EndDate:   end,
		Type:      leave.RequestType(dto.RequestType),
	}
	if dto.SubmittedAt != "" {
		submitted, err := roster.ParseDate(dto.SubmittedAt)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid submitted_at: %v", err))
			return leave.CandidateRequest{}, leave.EvaluationContext{}, false
		}
		candidate.SubmittedAt = submitted
	} else {
		candidate.SubmittedAt = roster.Today()
	}

	ectx := leave.EvaluationContext{
		HasOverrideAuthority: dto.OverrideAuthority,
		LateCutoffDays:       h.cutoff,
	}
	return candidate, ectx, true
}

func parseRangeQuery(fromStr, toStr string) (roster.Date, roster.Date, error) {
	if fromStr == "" || toStr == "" {
		return roster.Date{}, roster.Date{}, fmt.Errorf("from and to query parameters are required")
	}
	from, err := roster.ParseDate(fromStr)
	if err != nil {
		return roster.Date{}, roster.Date{}, fmt.Errorf("invalid from: %w", err)
	}
	to, err := roster.ParseDate(toStr)
	if err != nil {
		return roster.Date{}, roster.Date{}, fmt.Errorf("invalid to: %w", err)
	}
	return from, to, nil
}

// engineError maps engine errors: configuration faults are 500s (the
// process is misconfigured), anything else from the engine is caller
// input.
func (h *Handler) engineError(w http.ResponseWriter, err error) {
	if leave.IsConfigurationError(err) {
		h.log.Error("engine configuration fault", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "engine configuration fault")
		return
	}
	h.respondError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, roster.ErrInvalidRange) {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error("store failure", zap.Error(err))
	h.respondError(w, http.StatusInternalServerError, "storage failure")
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, ErrorDTO{Error: msg})
}
