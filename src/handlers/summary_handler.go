package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/slipfolio/src/config"
	"github.com/username/slipfolio/src/logger"
	"github.com/username/slipfolio/src/services"
	"github.com/username/slipfolio/src/utils"
)

type SummaryHandler struct {
	reportService services.ReportService
}

func NewSummaryHandler(reportService services.ReportService) *SummaryHandler {
	return &SummaryHandler{reportService: reportService}
}

// HandleDailySummary returns the per-machine rows for a single date,
// derived fresh from the record history. Defaults to today when no date is
// given.
func (h *SummaryHandler) HandleDailySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = utils.Today()
	}
	if !utils.ValidDate(date) {
		utils.SendJSONError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	summary, err := h.reportService.GetDailySummary(userID, date)
	if err != nil {
		logger.L.Error("Failed to build daily summary", "userID", userID, "date", date, "error", err)
		utils.SendJSONError(w, "Failed to build daily summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// HandleRangeReport returns day-grouped rows with period totals for a date
// range, optionally filtered to specific machines. The response carries an
// ETag so reloads of an unchanged report cost no body transfer.
func (h *SummaryHandler) HandleRangeReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")
	if !utils.ValidDate(from) || !utils.ValidDate(to) {
		utils.SendJSONError(w, "from and to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if from > to {
		utils.SendJSONError(w, "from must not be after to", http.StatusBadRequest)
		return
	}

	var machineIDs []string
	if raw := q.Get("machineIds"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				machineIDs = append(machineIDs, id)
			}
		}
	}

	report, err := h.reportService.GetRangeReport(userID, from, to, machineIDs)
	if err != nil {
		logger.L.Error("Failed to build range report", "userID", userID, "from", from, "to", to, "error", err)
		utils.SendJSONError(w, "Failed to build range report", http.StatusInternalServerError)
		return
	}

	etag, err := utils.GenerateETag(report)
	if err != nil {
		logger.L.Error("Failed to generate ETag for range report", "userID", userID, "error", err)
	} else {
		w.Header().Set("ETag", `"`+etag+`"`)
		if match := r.Header.Get("If-None-Match"); match != "" && strings.Trim(match, `"`) == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// HandleChartSeries returns one point per recent active day for the
// dashboard chart. The window defaults from config and is capped at 365.
func (h *SummaryHandler) HandleChartSeries(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	days := config.Cfg.ChartWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.SendJSONError(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}
	if days > 365 {
		days = 365
	}

	points, err := h.reportService.GetChartSeries(userID, days)
	if err != nil {
		logger.L.Error("Failed to build chart series", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to build chart series", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(points)
}

// HandleMachineBalance answers where one machine stands on one date:
// opening balance, that day's difference if an entry exists, and closing.
func (h *SummaryHandler) HandleMachineBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	machineID := r.PathValue("id")
	if machineID == "" {
		utils.SendJSONError(w, "Machine ID is required in path", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = utils.Today()
	}
	if !utils.ValidDate(date) {
		utils.SendJSONError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	balance, err := h.reportService.GetMachineBalance(userID, machineID, date)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMachineNotFound):
			utils.SendJSONError(w, "Machine not found", http.StatusNotFound)
		case errors.Is(err, services.ErrNotMachineOwner):
			utils.SendJSONError(w, "Machine belongs to another user", http.StatusForbidden)
		default:
			logger.L.Error("Failed to derive machine balance", "userID", userID, "machineID", machineID, "date", date, "error", err)
			utils.SendJSONError(w, "Failed to derive machine balance", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balance)
}
