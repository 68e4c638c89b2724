package handlers

import (
	"net/http"
	"strings"

	"github.com/assetdesk/backend/middleware"
	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/store"
	"github.com/assetdesk/backend/utils"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UsersHandler struct {
	Users UserStore
	Roles RoleCache
	Log   logrus.FieldLogger
}

// ExistsResponse answers a create for an email that is already registered.
type ExistsResponse struct {
	Message    string      `json:"message"`
	InsertedID interface{} `json:"insertedId"`
}

type AdminStatusResponse struct {
	Admin bool `json:"admin"`
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, users)
}

// Create registers a user on first sign-in. Posting a known email is not an
// error; the client posts on every sign-in.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := utils.DecodeJSON(r, &u); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	u.ID = primitive.NilObjectID
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" {
		utils.RespondMessage(w, http.StatusBadRequest, "email required")
		return
	}
	// Roles are granted through promotion only.
	u.Role = ""

	res, err := h.Users.CreateUser(r.Context(), &u)
	if errors.Is(err, store.ErrDuplicate) {
		utils.RespondJSON(w, http.StatusOK, ExistsResponse{Message: "user already exists", InsertedID: nil})
		return
	}
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

// AdminStatus tells a signed-in user whether they are an admin. Users may only
// ask about themselves.
func (h *UsersHandler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || p.Email == "" || p.Email != email {
		utils.RespondMessage(w, http.StatusForbidden, middleware.MsgForbidden)
		return
	}
	role, _, err := h.Roles.RoleByEmail(r.Context(), email)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, AdminStatusResponse{Admin: role == models.RoleAdmin})
}

func (h *UsersHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	res, before, err := h.Users.PromoteToAdmin(r.Context(), id)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	h.Roles.Invalidate(r.Context(), before.Email)
	h.Log.WithFields(logrus.Fields{"user": before.Email}).Info("user promoted to admin")
	utils.RespondJSON(w, http.StatusOK, res)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	res, deleted, err := h.Users.DeleteUser(r.Context(), id)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	h.Roles.Invalidate(r.Context(), deleted.Email)
	utils.RespondJSON(w, http.StatusOK, res)
}
