package handlers

import (
	"net/http"

	"github.com/assetdesk/backend/utils"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Tokens TokenService
	Log    logrus.FieldLogger
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Issue signs whatever JSON object is posted. There is no credential check;
// the caller is trusted to post its own identity.
func (h *AuthHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := utils.DecodeJSON(r, &payload); err != nil || payload == nil {
		utils.RespondMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	token, err := h.Tokens.Issue(payload)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, TokenResponse{Token: token})
}
