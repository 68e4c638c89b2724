package middleware

import (
	"net/http"

	"github.com/assetdesk/backend/utils"
	"github.com/sirupsen/logrus"
)

// Rejection stops a pipeline. Status and Message are written to the client;
// Err, when set, is logged and never exposed.
type Rejection struct {
	Status  int
	Message string
	Err     error
}

// Stage is one step of a request pipeline. A stage either returns the request
// to hand to the next stage (possibly with a richer context) or a rejection.
type Stage interface {
	Process(r *http.Request) (*http.Request, *Rejection)
}

type StageFunc func(r *http.Request) (*http.Request, *Rejection)

func (f StageFunc) Process(r *http.Request) (*http.Request, *Rejection) {
	return f(r)
}

// Chain runs stages in order before the wrapped handler. The first rejection
// ends the request.
func Chain(logger logrus.FieldLogger, stages ...Stage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cur := r
			for _, stage := range stages {
				out, rej := stage.Process(cur)
				if rej != nil {
					if rej.Err != nil && logger != nil {
						logger.WithError(rej.Err).WithFields(logrus.Fields{
							"method": r.Method,
							"path":   r.URL.Path,
							"status": rej.Status,
						}).Error("request rejected")
					}
					utils.RespondMessage(w, rej.Status, rej.Message)
					return
				}
				if out != nil {
					cur = out
				}
			}
			next.ServeHTTP(w, cur)
		})
	}
}
