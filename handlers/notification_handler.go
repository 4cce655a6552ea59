package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"pairchatAPI/internal/types/notification"
	"pairchatAPI/services"
)

type NotificationHandler struct {
	pushService *services.PushService
	users       identityResolver
}

func NewNotificationHandler(pushService *services.PushService, users identityResolver) *NotificationHandler {
	return &NotificationHandler{
		pushService: pushService,
		users:       users,
	}
}

func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	me, ok := requireUser(ctx, w, h.users)
	if !ok {
		return
	}

	var req notification.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.pushService.RegisterDevice(ctx, me, req.Token, req.Platform); err != nil {
		log.Printf("RegisterDevice Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"message": "Device registered successfully",
	})
}
