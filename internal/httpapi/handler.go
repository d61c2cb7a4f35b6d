// Package httpapi exposes the matching engine over HTTP.
//
// All routes expect an x-user-id header forwarded by the Gateway.
//
// Routes:
//
//	GET  /match/score                      → score + breakdown for one pair
//	POST /match/batch                      → bulk scoring, capped
//	GET  /recommendations/jobs             → ranked postings for the caller
//	GET  /postings/{id}/candidates         → ranked candidates (owner only)
//	POST /applications                     → submit an application
//	POST /applications/{id}/transition     → application state transition
//	POST /applications/{id}/interview      → schedule an interview
//	POST /applications/{id}/accept         → accept + cascade
//	POST /applications/{id}/rate           → one-time party rating
//	POST /postings/{id}/transition         → owner posting transition
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"medmatch/matching-service/internal/engine"
	"medmatch/matching-service/internal/lifecycle"
	"medmatch/matching-service/internal/model"
	"medmatch/matching-service/internal/recommend"
)

// Handler holds shared dependencies.
type Handler struct {
	svc      *engine.Service
	rec      *recommend.Engine
	validate *validator.Validate
}

// NewHandler returns a configured Handler.
func NewHandler(svc *engine.Service, rec *recommend.Engine) *Handler {
	return &Handler{svc: svc, rec: rec, validate: validator.New()}
}

// RegisterRoutes mounts all matching-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/match/score", h.handleScore)
	mux.HandleFunc("/match/batch", h.handleBatch)
	mux.HandleFunc("/recommendations/jobs", h.handleJobRecommendations)
	mux.HandleFunc("/applications", h.handleApplications)
	mux.HandleFunc("/applications/", h.handleApplicationAction)
	mux.HandleFunc("/postings/", h.handlePostingAction)
}

// ─── Scoring ─────────────────────────────────────────────────────────────────

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	candidateID := r.URL.Query().Get("candidateId")
	postingID := r.URL.Query().Get("postingId")
	if candidateID == "" || postingID == "" {
		jsonError(w, "candidateId and postingId are required", http.StatusBadRequest)
		return
	}

	score, breakdown, err := h.svc.ComputeScore(r.Context(), candidateID, postingID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, map[string]any{"score": score, "breakdown": breakdown})
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		CandidateID string   `json:"candidateId" validate:"required"`
		PostingIDs  []string `json:"postingIds" validate:"required,min=1,max=20,dive,required"`
	}
	if !h.decode(w, r, &body) {
		return
	}

	scores, err := h.rec.ScoreBatch(r.Context(), body.CandidateID, body.PostingIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, map[string]any{"scores": scores})
}

// ─── Recommendations ─────────────────────────────────────────────────────────

func (h *Handler) handleJobRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	opts, err := optionsFromQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	matches, err := h.rec.JobsFor(r.Context(), userID, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, map[string]any{"matches": matches})
}

func (h *Handler) candidateRecommendations(w http.ResponseWriter, r *http.Request, postingID string) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	opts, err := optionsFromQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	matches, err := h.rec.CandidatesFor(r.Context(), postingID, userID, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, map[string]any{"matches": matches})
}

// ─── Applications ────────────────────────────────────────────────────────────

// handleApplications handles POST /applications (submission).
func (h *Handler) handleApplications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var body struct {
		PostingID string         `json:"postingId" validate:"required"`
		Proposal  model.Proposal `json:"proposal"`
	}
	if !h.decode(w, r, &body) {
		return
	}

	app, err := h.svc.SubmitApplication(r.Context(), userID, body.PostingID, body.Proposal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, app)
}

// handleApplicationAction dispatches /applications/{id}/{action}.
func (h *Handler) handleApplicationAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	appID, action, ok := splitAction(r.URL.Path, "applications")
	if !ok {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	switch action {
	case "transition":
		h.transitionApplication(w, r, appID)
	case "interview":
		h.scheduleInterview(w, r, appID)
	case "accept":
		h.acceptApplication(w, r, appID)
	case "rate":
		h.rateApplication(w, r, appID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

func (h *Handler) transitionApplication(w http.ResponseWriter, r *http.Request, appID string) {
	var body struct {
		Target string `json:"target" validate:"required"`
		Role   string `json:"role" validate:"required"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	target, err := lifecycle.ParseApplicationStatus(body.Target)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	role, err := lifecycle.ParseActorRole(body.Role)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	app, err := h.svc.TransitionApplication(r.Context(), appID, target, role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) scheduleInterview(w http.ResponseWriter, r *http.Request, appID string) {
	var body model.InterviewDetails
	if !h.decode(w, r, &body) {
		return
	}

	app, err := h.svc.ScheduleInterview(r.Context(), appID, body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) acceptApplication(w http.ResponseWriter, r *http.Request, appID string) {
	var body model.ContractDetails
	if !h.decode(w, r, &body) {
		return
	}

	result, err := h.svc.AcceptApplication(r.Context(), appID, body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, result)
}

func (h *Handler) rateApplication(w http.ResponseWriter, r *http.Request, appID string) {
	var body struct {
		Role   string `json:"role" validate:"required"`
		Rating int    `json:"rating" validate:"required,min=1,max=5"`
		Review string `json:"review"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	role, err := lifecycle.ParseActorRole(body.Role)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	app, err := h.svc.RateApplication(r.Context(), appID, role, body.Rating, body.Review)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, app)
}

// ─── Postings ────────────────────────────────────────────────────────────────

// handlePostingAction dispatches /postings/{id}/{action}.
func (h *Handler) handlePostingAction(w http.ResponseWriter, r *http.Request) {
	postingID, action, ok := splitAction(r.URL.Path, "postings")
	if !ok {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	switch {
	case action == "candidates" && r.Method == http.MethodGet:
		h.candidateRecommendations(w, r, postingID)
	case action == "transition" && r.Method == http.MethodPost:
		h.transitionPosting(w, r, postingID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

func (h *Handler) transitionPosting(w http.ResponseWriter, r *http.Request, postingID string) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var body struct {
		Target string `json:"target" validate:"required"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	target, err := lifecycle.ParsePostingStatus(body.Target)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	posting, err := h.svc.TransitionPosting(r.Context(), postingID, target, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, posting)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// decode reads a JSON body and runs struct validation. Writes the error
// response itself when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// splitAction parses /{prefix}/{id}/{action}.
func splitAction(path, prefix string) (id, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != prefix || parts[1] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func optionsFromQuery(r *http.Request) (recommend.Options, error) {
	var opts recommend.Options
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("limit must be a non-negative integer")
		}
		opts.Limit = n
	}
	if raw := r.URL.Query().Get("minScore"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 100 {
			return opts, fmt.Errorf("minScore must be an integer in [0,100]")
		}
		opts.MinScore = n
	}
	return opts, nil
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
