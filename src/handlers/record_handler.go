package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/slipfolio/src/logger"
	"github.com/username/slipfolio/src/models"
	"github.com/username/slipfolio/src/services"
	"github.com/username/slipfolio/src/utils"
)

type RecordHandler struct {
	reportService services.ReportService
}

func NewRecordHandler(reportService services.ReportService) *RecordHandler {
	return &RecordHandler{reportService: reportService}
}

// HandleUpsertRecord saves one reconciliation entry. The same endpoint
// creates and edits: a body with an ID updates that record, without one a
// new record is created, and a body whose amounts are all clear deletes
// the stored row.
func (h *RecordHandler) HandleUpsertRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var rec models.EntryRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.reportService.UpsertRecord(userID, rec)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEntryDate):
			utils.SendJSONError(w, "Entry date must be YYYY-MM-DD", http.StatusBadRequest)
		case errors.Is(err, services.ErrMachineNotFound):
			utils.SendJSONError(w, "Machine not found", http.StatusNotFound)
		case errors.Is(err, services.ErrNotMachineOwner), errors.Is(err, services.ErrNotRecordOwner):
			utils.SendJSONError(w, "Forbidden", http.StatusForbidden)
		default:
			logger.L.Error("Failed to save entry record", "userID", userID, "error", err)
			utils.SendJSONError(w, "Failed to save entry record", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *RecordHandler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	machineID := q.Get("machineId")
	from := q.Get("from")
	to := q.Get("to")
	if from != "" && !utils.ValidDate(from) {
		utils.SendJSONError(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if to != "" && !utils.ValidDate(to) {
		utils.SendJSONError(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	records, err := h.reportService.GetRecords(userID, machineID, from, to)
	if err != nil {
		logger.L.Error("Failed to fetch entry records", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to fetch entry records", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *RecordHandler) HandleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	recordID := r.PathValue("id")
	if recordID == "" {
		utils.SendJSONError(w, "Record ID is required in path", http.StatusBadRequest)
		return
	}

	if err := h.reportService.DeleteRecord(userID, recordID); err != nil {
		switch {
		case errors.Is(err, services.ErrRecordNotFound):
			utils.SendJSONError(w, "Entry record not found", http.StatusNotFound)
		case errors.Is(err, services.ErrNotRecordOwner):
			utils.SendJSONError(w, "Entry record belongs to another user", http.StatusForbidden)
		default:
			logger.L.Error("Failed to delete entry record", "userID", userID, "recordID", recordID, "error", err)
			utils.SendJSONError(w, "Failed to delete entry record", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
