package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"parlayTracker/models"
	"parlayTracker/services/calendarService"
	"parlayTracker/services/common"
	"parlayTracker/services/parlayService"
	"parlayTracker/services/settlementService"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type pickRequest struct {
	GameID  int    `json:"gameId" validate:"required,gt=0"`
	Pick    string `json:"pick" validate:"required"`
	Home    string `json:"home"`
	Visitor string `json:"visitor"`
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Odds    *int   `json:"odds"`
}

type lockRequest struct {
	Stake json.RawMessage `json:"stake"`
}

type settleRequest struct {
	Win    *bool           `json:"win" validate:"required"`
	Payout json.RawMessage `json:"payout"`
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "parlay-tracker",
	})
}

// GetGames lists the games on ?date=YYYY-MM-DD, today by default. A catalog
// failure still answers 200 with an empty list and the error message.
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		day = h.app.Catalog.Today(time.Now())
	}
	if _, err := time.Parse(calendarService.DayLayout, day); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", nil)
		return
	}

	games, err := h.app.Catalog.GamesForDay(r.Context(), day)
	resp := map[string]interface{}{
		"date":  day,
		"games": games,
		"count": len(games),
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.app.Catalog.Teams(r.Context())
	resp := map[string]interface{}{
		"teams": teams,
		"count": len(teams),
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetTeamCounts(w http.ResponseWriter, r *http.Request) {
	scheduledOnly, _ := strconv.ParseBool(r.URL.Query().Get("scheduled"))

	counts, err := h.app.TeamCounts(r.Context(), scheduledOnly)
	resp := map[string]interface{}{
		"counts":    counts,
		"scheduled": scheduledOnly,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetPicks(w http.ResponseWriter, r *http.Request) {
	picks := h.app.Picks.Picks()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"picks": picks,
		"count": len(picks),
	})
}

// AddPick adds or replaces the pick for a game.
func (h *Handler) AddPick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.Home != "" && req.Visitor != "" && req.Pick != req.Home && req.Pick != req.Visitor {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("pick must be %s or %s", req.Visitor, req.Home), nil)
		return
	}

	if req.Date == "" {
		req.Date = h.app.Calendar.Today(time.Now())
	}

	h.app.Picks.Add(models.Pick{
		GameID:  req.GameID,
		Pick:    req.Pick,
		Home:    req.Home,
		Visitor: req.Visitor,
		Date:    req.Date,
		Odds:    req.Odds,
	})
	h.GetPicks(w, r)
}

func (h *Handler) RemovePick(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid game id", nil)
		return
	}
	h.app.Picks.Remove(gameID)
	h.GetPicks(w, r)
}

func (h *Handler) ClearPicks(w http.ResponseWriter, r *http.Request) {
	h.app.Picks.Clear()
	h.GetPicks(w, r)
}

// LockParlay locks the current picks. Nothing to lock answers 200 with a null slip.
func (h *Handler) LockParlay(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	slip := h.app.LockCurrent(r.Context(), parseMoney(req.Stake))
	if slip == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"slip": nil})
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"slip":   slip,
		"synced": parlayService.IsServerID(slip.ID),
	})
}

var slipStatuses = []models.SlipStatus{models.SlipOpen, models.SlipWin, models.SlipLoss}

func (h *Handler) GetParlays(w http.ResponseWriter, r *http.Request) {
	status := models.SlipStatus(r.URL.Query().Get("status"))
	if status != "" && !common.Contains(slipStatuses, status) {
		respondError(w, http.StatusBadRequest, "status must be open, win or loss", nil)
		return
	}

	slips, err := h.app.Store.List(r.Context())
	filtered := make([]models.Slip, 0, len(slips))
	for _, slip := range slips {
		if status == "" || slip.Status == status {
			filtered = append(filtered, slip)
		}
	}

	resp := map[string]interface{}{
		"parlays": filtered,
		"count":   len(filtered),
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteParlay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.app.Store.Remove(r.Context(), id); err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SettleParlay(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := h.app.Settle(r.Context(), chi.URLParam(r, "id"), *req.Win, parseMoney(req.Payout))
	if err != nil {
		respondError(w, statusFor(err), err.Error(), err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetDashboard renders ?month=YYYY-MM, the current month by default.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.app.Calendar.MonthOf(r.URL.Query().Get("month"), time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	dashboard, err := h.app.Dashboard(r.Context(), year, month)
	resp := map[string]interface{}{
		"dashboard": dashboard,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

// parseMoney accepts a JSON number or a numeric string.
func parseMoney(raw json.RawMessage) decimal.Decimal {
	value := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if value == "null" {
		return decimal.Zero
	}
	return common.ParseAmount(value)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, parlayService.ErrSlipNotFound):
		return http.StatusNotFound
	case errors.Is(err, settlementService.ErrSlipNotOpen),
		errors.Is(err, settlementService.ErrSlipNotSynced):
		return http.StatusConflict
	case errors.Is(err, parlayService.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("error encoding response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		fmt.Printf("error: %s - %v\n", message, err)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		fmt.Printf("error encoding error response: %v\n", err)
	}
}
