package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/service"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier mails decisions to requesters in the background. A nil Notifier,
// or one without a Mailer, drops every decision.
type Notifier struct {
	Mailer  DecisionMailer
	Logs    EmailLogStore
	Log     logrus.FieldLogger
	Timeout time.Duration

	wg sync.WaitGroup
}

// Notify sends d without blocking the caller. Failures are logged only.
func (n *Notifier) Notify(requestID primitive.ObjectID, d service.Decision) {
	if n == nil || n.Mailer == nil || d.Email == "" {
		return
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		entry := &models.EmailLog{
			RequestID: requestID,
			Kind:      d.Kind,
			Asset:     d.Asset,
			ToEmail:   d.Email,
			Status:    d.Status,
		}
		if err := n.Mailer.NotifyDecision(ctx, d); err != nil {
			entry.Error = err.Error()
			n.Log.WithError(err).WithFields(logrus.Fields{
				"request": requestID.Hex(),
				"kind":    d.Kind,
			}).Warn("decision mail failed")
		}
		if n.Logs == nil {
			return
		}
		if err := n.Logs.InsertEmailLog(ctx, entry); err != nil {
			n.Log.WithError(err).Warn("failed to insert email log")
		}
	}()
}

// Wait blocks until every pending notification has finished.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
