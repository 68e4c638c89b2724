package handlers

import (
	"net/http"
	"time"

	"github.com/assetdesk/backend/middleware"
	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/service"
	"github.com/assetdesk/backend/store"
	"github.com/assetdesk/backend/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransitionResponse is the body of every approve, reject and return call.
type TransitionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// decided is what a successful transition reports back for notification.
type decided struct {
	Email string
	Name  string
	Asset string
	At    time.Time
}

type transitioner struct {
	Kind     string
	Log      logrus.FieldLogger
	Metrics  *middleware.Metrics
	Notifier *Notifier
}

// serve parses the id, runs apply and writes the transition envelope.
func (t transitioner) serve(w http.ResponseWriter, r *http.Request, tr models.Transition, apply func(id primitive.ObjectID) (decided, error)) {
	metric := t.Kind + "." + tr.Name
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondJSON(w, http.StatusBadRequest, TransitionResponse{Message: "invalid id"})
		return
	}
	d, err := apply(id)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		t.Metrics.ObserveTransition(metric, "not_found")
		utils.RespondJSON(w, http.StatusNotFound, TransitionResponse{Message: "request not found"})
		return
	case errors.Is(err, store.ErrInvalidTransition):
		t.Metrics.ObserveTransition(metric, "conflict")
		utils.RespondJSON(w, http.StatusConflict, TransitionResponse{Message: "cannot " + tr.Name + " request in its current status"})
		return
	default:
		t.Metrics.ObserveTransition(metric, "error")
		t.Log.WithError(err).WithFields(logrus.Fields{
			"request":    id.Hex(),
			"transition": metric,
		}).Error("transition failed")
		utils.RespondJSON(w, http.StatusInternalServerError, TransitionResponse{Message: msgInternal})
		return
	}

	t.Metrics.ObserveTransition(metric, "ok")
	if tr.Decision {
		t.Notifier.Notify(id, service.Decision{
			Email:  d.Email,
			Name:   d.Name,
			Asset:  d.Asset,
			Kind:   t.Kind,
			Status: tr.To,
			At:     d.At,
		})
	}
	utils.RespondJSON(w, http.StatusOK, TransitionResponse{Success: true})
}

func stamp(ts ...*time.Time) time.Time {
	for _, t := range ts {
		if t != nil {
			return *t
		}
	}
	return time.Now()
}
