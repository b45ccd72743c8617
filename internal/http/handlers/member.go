package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopgrid/server/internal/middleware"
	"github.com/shopgrid/server/internal/repo"
)

// MemberHandler handles member profile endpoints
type MemberHandler struct {
	members  repo.MemberRepo
	validate *validator.Validate
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(members repo.MemberRepo, validate *validator.Validate) *MemberHandler {
	return &MemberHandler{members: members, validate: validate}
}

// saveMemberRequest is the request body for POST /member/save. A present
// member_id edits an existing member; otherwise a new one is created.
type saveMemberRequest struct {
	MemberID *int64 `json:"member_id" validate:"omitempty,gt=0"`
	Name     string `json:"name" validate:"required,max=128"`
	Relation string `json:"relation" validate:"required,max=64"`
}

// memberData is the member shape in list responses
type memberData struct {
	MemberID int64  `json:"member_id"`
	Name     string `json:"name"`
	Relation string `json:"relation"`
}

// HandleSave handles POST /member/save
func (h *MemberHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req saveMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.MemberID != nil {
		err := h.members.Update(r.Context(), *req.MemberID, user.ID, req.Name, req.Relation)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Member not found for editing")
				return
			}
			log.Printf("member update failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to save member")
			return
		}
	} else {
		if _, err := h.members.Create(r.Context(), user.ID, req.Name, req.Relation); err != nil {
			log.Printf("member create failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to save member")
			return
		}
	}

	respondSuccess(w, http.StatusOK, "Member save successfully.", nil)
}

// HandleList handles GET /member/list
func (h *MemberHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	members, err := h.members.ListByUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("member list failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch members")
		return
	}

	data := make([]memberData, 0, len(members))
	for _, m := range members {
		data = append(data, memberData{MemberID: m.ID, Name: m.Name, Relation: m.Relation})
	}

	respondSuccess(w, http.StatusOK, "Member list fetched successfully.", data)
}
