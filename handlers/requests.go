package handlers

import (
	"net/http"

	"github.com/assetdesk/backend/middleware"
	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/query"
	"github.com/assetdesk/backend/utils"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestsHandler serves borrow requests under /myreq.
type RequestsHandler struct {
	Requests RequestStore
	Log      logrus.FieldLogger
	Metrics  *middleware.Metrics
	Notifier *Notifier
}

// List searches all borrow requests by requester email.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	p := query.Params{SearchTerm: r.URL.Query().Get("searchTerm")}
	h.list(w, r, query.Build(nil, p, "email"))
}

// ListByEmail lists one requester's borrow requests, filtered by status and
// assetType and searched on asset name and request date.
func (h *RequestsHandler) ListByEmail(w http.ResponseWriter, r *http.Request) {
	p := query.FromValues(r.URL.Query())
	p.SortBy = ""
	base := bson.D{{Key: "email", Value: chi.URLParam(r, "email")}}
	h.list(w, r, query.Build(base, p, "asset", "requestDate"))
}

func (h *RequestsHandler) list(w http.ResponseWriter, r *http.Request, spec query.Spec) {
	reqs, err := h.Requests.ListBorrowRequests(r.Context(), spec)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, reqs)
}

func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.BorrowRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.ID = primitive.NilObjectID
	// Requests start pending; decisions go through the transition routes.
	req.Status = models.StatusPending
	req.ApprovalDate, req.RejectDate, req.ReturnDate = nil, nil, nil
	res, err := h.Requests.InsertBorrowRequest(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

func (h *RequestsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	res, err := h.Requests.DeleteBorrowRequest(r.Context(), id)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.ApproveBorrow)
}

func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.RejectBorrow)
}

func (h *RequestsHandler) Return(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.ReturnBorrow)
}

func (h *RequestsHandler) transition(w http.ResponseWriter, r *http.Request, tr models.Transition) {
	t := transitioner{Kind: "borrow", Log: h.Log, Metrics: h.Metrics, Notifier: h.Notifier}
	t.serve(w, r, tr, func(id primitive.ObjectID) (decided, error) {
		req, err := h.Requests.TransitionBorrowRequest(r.Context(), id, tr)
		if err != nil {
			return decided{}, err
		}
		return decided{Email: req.Email, Name: req.Name, Asset: req.Asset, At: stamp(req.ReturnDate, req.RejectDate, req.ApprovalDate)}, nil
	})
}
