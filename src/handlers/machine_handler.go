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

type MachineHandler struct {
	machineService services.MachineService
}

func NewMachineHandler(machineService services.MachineService) *MachineHandler {
	return &MachineHandler{machineService: machineService}
}

func (h *MachineHandler) HandleCreateMachine(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var machine models.Machine
	if err := json.NewDecoder(r.Body).Decode(&machine); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.machineService.CreateMachine(userID, machine)
	if err != nil {
		if errors.Is(err, services.ErrMachineNameRequired) {
			utils.SendJSONError(w, "Machine name is required", http.StatusBadRequest)
			return
		}
		logger.L.Error("Failed to create machine", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to create machine", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *MachineHandler) HandleListMachines(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	machines, err := h.machineService.ListMachines(userID)
	if err != nil {
		logger.L.Error("Failed to list machines", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to list machines", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(machines)
}

func (h *MachineHandler) HandleUpdateMachine(w http.ResponseWriter, r *http.Request) {
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

	var machine models.Machine
	if err := json.NewDecoder(r.Body).Decode(&machine); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	machine.ID = machineID

	updated, err := h.machineService.UpdateMachine(userID, machine)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMachineNameRequired):
			utils.SendJSONError(w, "Machine name is required", http.StatusBadRequest)
		case errors.Is(err, services.ErrMachineNotFound):
			utils.SendJSONError(w, "Machine not found", http.StatusNotFound)
		default:
			logger.L.Error("Failed to update machine", "userID", userID, "machineID", machineID, "error", err)
			utils.SendJSONError(w, "Failed to update machine", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

func (h *MachineHandler) HandleDeleteMachine(w http.ResponseWriter, r *http.Request) {
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

	err := h.machineService.DeleteMachine(userID, machineID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMachineNotFound):
			utils.SendJSONError(w, "Machine not found", http.StatusNotFound)
		case errors.Is(err, services.ErrNotMachineOwner):
			utils.SendJSONError(w, "Machine belongs to another user", http.StatusForbidden)
		case errors.Is(err, services.ErrMachineInUse):
			utils.SendJSONError(w, "Machine still has entry records; deactivate it instead", http.StatusConflict)
		default:
			logger.L.Error("Failed to delete machine", "userID", userID, "machineID", machineID, "error", err)
			utils.SendJSONError(w, "Failed to delete machine", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
