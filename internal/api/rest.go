package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldquote/estimate-gateway/internal/draft"
	"github.com/fieldquote/estimate-gateway/internal/email"
	"github.com/fieldquote/estimate-gateway/internal/observability"
	"github.com/fieldquote/estimate-gateway/internal/pdf"
	"github.com/fieldquote/estimate-gateway/internal/store"
)

// Handlers serves the REST surface: the working draft, saved
// estimates, exports, and the business profile.
type Handlers struct {
	store  store.EstimateStore
	drafts *draft.Store
	mailer email.Sender
	logger zerolog.Logger
}

// NewHandlers wires the REST handlers.
func NewHandlers(st store.EstimateStore, drafts *draft.Store, mailer email.Sender, logger zerolog.Logger) *Handlers {
	return &Handlers{store: st, drafts: drafts, mailer: mailer, logger: logger}
}

// Register mounts all routes on the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/draft", h.GetDraft)
	mux.HandleFunc("PUT /api/draft", h.UpdateDraft)
	mux.HandleFunc("DELETE /api/draft", h.ResetDraft)

	mux.HandleFunc("POST /api/estimates", h.SaveEstimate)
	mux.HandleFunc("GET /api/estimates", h.ListEstimates)
	mux.HandleFunc("GET /api/estimates/{id}", h.GetEstimate)
	mux.HandleFunc("DELETE /api/estimates/{id}", h.DeleteEstimate)
	mux.HandleFunc("POST /api/estimates/{id}/email", h.EmailEstimate)
	mux.HandleFunc("GET /api/estimates/{id}/pdf", h.ExportPDF)

	mux.HandleFunc("GET /api/profile", h.GetProfile)
	mux.HandleFunc("PUT /api/profile", h.UpdateProfile)
}

// draftUpdate is a partial update; nil fields are left untouched.
type draftUpdate struct {
	Description *string           `json:"description,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
	Client      *draft.ClientInfo `json:"client,omitempty"`
	Items       *[]draft.LineItem `json:"items,omitempty"`
}

// GetDraft returns the current working draft.
func (h *Handlers) GetDraft(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.drafts.Snapshot())
}

// UpdateDraft applies manual edits to the working draft. Only the
// fields present in the request change; each one replaces its
// counterpart wholesale, same as a voice merge would.
func (h *Handlers) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var update draftUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if update.Description != nil {
		h.drafts.SetDescription(*update.Description)
	}
	if update.Notes != nil {
		h.drafts.SetNotes(*update.Notes)
	}
	if update.Client != nil {
		h.drafts.SetClient(*update.Client)
	}
	if update.Items != nil {
		h.drafts.SetItems(*update.Items)
	}

	writeJSON(w, http.StatusOK, h.drafts.Snapshot())
}

// ResetDraft discards the working draft.
func (h *Handlers) ResetDraft(w http.ResponseWriter, r *http.Request) {
	h.drafts.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// SaveEstimate finalizes the working draft into a persisted estimate.
// Unresolved quantities and prices collapse to zero at this point. The
// draft is cleared on success so the next job starts fresh.
func (h *Handlers) SaveEstimate(w http.ResponseWriter, r *http.Request) {
	final := h.drafts.Finalize()
	if final.Description == "" && len(final.Items) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "draft is empty")
		return
	}

	est := &store.Estimate{
		ID:            uuid.New().String(),
		Status:        store.StatusDraft,
		Description:   final.Description,
		Notes:         final.Notes,
		ClientName:    final.Client.Name,
		ClientPhone:   final.Client.Phone,
		ClientEmail:   final.Client.Email,
		ClientAddress: final.Client.Address,
	}
	for _, item := range final.Items {
		est.Items = append(est.Items, store.Item{Name: item.Name, Quantity: item.Quantity, Price: item.Price})
	}

	if err := h.store.SaveEstimate(r.Context(), est); err != nil {
		h.logger.Error().Err(err).Msg("failed to save estimate")
		observability.RecordEstimateSaved("error")
		observability.RecordError("save_failed", "api")
		writeError(w, http.StatusInternalServerError, "failed to save estimate")
		return
	}

	h.drafts.Reset()
	observability.RecordEstimateSaved("ok")
	h.logger.Info().Str("estimate_id", est.ID).Int("items", len(est.Items)).Msg("estimate saved")

	est.Total = pdf.Total(est.Items)
	writeJSON(w, http.StatusCreated, est)
}

// ListEstimates returns saved estimates, newest first.
func (h *Handlers) ListEstimates(w http.ResponseWriter, r *http.Request) {
	estimates, err := h.store.ListEstimates(r.Context(), 0, 0)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list estimates")
		writeError(w, http.StatusInternalServerError, "failed to list estimates")
		return
	}
	if estimates == nil {
		estimates = []*store.Estimate{}
	}
	writeJSON(w, http.StatusOK, estimates)
}

// GetEstimate returns one saved estimate.
func (h *Handlers) GetEstimate(w http.ResponseWriter, r *http.Request) {
	est, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// DeleteEstimate soft-deletes a saved estimate.
func (h *Handlers) DeleteEstimate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteEstimate(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("estimate not found: %s", id))
		return
	}
	h.logger.Info().Str("estimate_id", id).Msg("estimate deleted")
	w.WriteHeader(http.StatusNoContent)
}

type emailRequest struct {
	To string `json:"to"`
}

// EmailEstimate renders the estimate as PDF and mails it to the
// requested recipient.
func (h *Handlers) EmailEstimate(w http.ResponseWriter, r *http.Request) {
	est, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	to := req.To
	if to == "" {
		to = est.ClientEmail
	}
	if _, err := mail.ParseAddress(to); err != nil {
		writeError(w, http.StatusBadRequest, "no valid recipient address")
		return
	}

	profile, err := h.store.GetBusinessProfile(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load business profile")
		writeError(w, http.StatusInternalServerError, "failed to load business profile")
		return
	}

	doc, err := pdf.Render(est, profile)
	if err != nil {
		h.logger.Error().Err(err).Str("estimate_id", est.ID).Msg("failed to render pdf")
		writeError(w, http.StatusInternalServerError, "failed to render estimate")
		return
	}

	if err := h.mailer.Send(r.Context(), to, est, profile, doc); err != nil {
		h.logger.Error().Err(err).Str("estimate_id", est.ID).Msg("failed to send estimate email")
		observability.RecordEmail(false)
		observability.RecordError("email_failed", "api")
		writeError(w, http.StatusBadGateway, "failed to send email")
		return
	}

	if est.Status != store.StatusSent {
		est.Status = store.StatusSent
		if err := h.store.SaveEstimate(r.Context(), est); err != nil {
			// The email already went out; a stale status is not worth a 5xx.
			h.logger.Warn().Err(err).Str("estimate_id", est.ID).Msg("failed to update estimate status")
		}
	}

	observability.RecordEmail(true)
	h.logger.Info().Str("estimate_id", est.ID).Str("to", to).Msg("estimate emailed")
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "to": to})
}

// ExportPDF streams the estimate as a PDF document.
func (h *Handlers) ExportPDF(w http.ResponseWriter, r *http.Request) {
	est, ok := h.lookup(w, r)
	if !ok {
		return
	}

	profile, err := h.store.GetBusinessProfile(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load business profile")
		writeError(w, http.StatusInternalServerError, "failed to load business profile")
		return
	}

	doc, err := pdf.Render(est, profile)
	if err != nil {
		h.logger.Error().Err(err).Str("estimate_id", est.ID).Msg("failed to render pdf")
		writeError(w, http.StatusInternalServerError, "failed to render estimate")
		return
	}

	observability.RecordPDFExport()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "estimate-"+est.ID+".pdf"))
	w.Write(doc)
}

// GetProfile returns the business profile.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.GetBusinessProfile(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load business profile")
		writeError(w, http.StatusInternalServerError, "failed to load business profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "no business profile saved")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile replaces the business profile.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var profile store.BusinessProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if profile.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "business name is required")
		return
	}

	if err := h.store.SaveBusinessProfile(r.Context(), &profile); err != nil {
		h.logger.Error().Err(err).Msg("failed to save business profile")
		writeError(w, http.StatusInternalServerError, "failed to save business profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*store.Estimate, bool) {
	id := r.PathValue("id")
	est, err := h.store.GetEstimate(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("estimate_id", id).Msg("failed to load estimate")
		writeError(w, http.StatusInternalServerError, "failed to load estimate")
		return nil, false
	}
	if est == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("estimate not found: %s", id))
		return nil, false
	}
	return est, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
