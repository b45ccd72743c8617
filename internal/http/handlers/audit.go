package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/shopgrid/server/internal/middleware"
	"github.com/shopgrid/server/internal/repo"
)

const defaultAuditLimit = 100

// AuditHandler handles activity audit endpoints
type AuditHandler struct {
	audit repo.AuditRepo
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit repo.AuditRepo) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// auditLogData is one audit entry in responses
type auditLogData struct {
	ID         int64   `json:"id"`
	Action     string  `json:"action"`
	EntityType string  `json:"entity_type"`
	EntityID   *int64  `json:"entity_id"`
	CartItemID *int64  `json:"cart_item_id"`
	Details    *string `json:"details"`
	CreatedAt  string  `json:"created_at"`
}

// myActivityData is the data payload for GET /audit/my-activity
type myActivityData struct {
	UserID    int64          `json:"user_id"`
	Username  string         `json:"username"`
	TotalLogs int            `json:"total_logs"`
	Logs      []auditLogData `json:"logs"`
}

// HandleMyActivity handles GET /audit/my-activity
func (h *AuditHandler) HandleMyActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.audit.ListByUser(r.Context(), user.ID, limit)
	if err != nil {
		log.Printf("audit list failed for user %d: %v", user.ID, err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch audit logs")
		return
	}

	// Display name falls back to the mobile number
	username := user.Mobile
	if user.Name != nil && *user.Name != "" {
		username = *user.Name
	}

	logs := make([]auditLogData, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, auditLogData{
			ID:         e.ID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			CartItemID: e.CartItemID,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}

	respondSuccess(w, http.StatusOK, "Audit logs fetched successfully.", myActivityData{
		UserID:    user.ID,
		Username:  username,
		TotalLogs: len(logs),
		Logs:      logs,
	})
}
