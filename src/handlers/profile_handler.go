package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/slipfolio/src/logger"
	"github.com/username/slipfolio/src/models"
	"github.com/username/slipfolio/src/security/validation"
	"github.com/username/slipfolio/src/services"
	"github.com/username/slipfolio/src/utils"
)

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	profile, err := h.profileService.GetProfile(userID)
	if err != nil {
		logger.L.Error("Failed to load business profile", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to load business profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

func (h *ProfileHandler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var profile models.BusinessProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile.BusinessName = validation.StripUnprintable(profile.BusinessName)
	profile.OwnerName = validation.StripUnprintable(profile.OwnerName)
	profile.Phone = validation.StripUnprintable(profile.Phone)
	profile.Address = validation.StripUnprintable(profile.Address)
	profile.VATNumber = validation.StripUnprintable(profile.VATNumber)

	saved, err := h.profileService.SaveProfile(userID, profile)
	if err != nil {
		logger.L.Error("Failed to save business profile", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to save business profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(saved)
}
