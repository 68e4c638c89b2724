package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/query"
	"github.com/assetdesk/backend/service"
	"github.com/assetdesk/backend/store"
	"github.com/assetdesk/backend/utils"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TokenService interface {
	Issue(payload map[string]interface{}) (string, error)
	Verify(token string) (jwt.MapClaims, error)
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) (store.InsertResult, error)
	PromoteToAdmin(ctx context.Context, id primitive.ObjectID) (store.UpdateResult, *models.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) (store.DeleteResult, *models.User, error)
}

// RoleCache answers role lookups and forgets a user's role after it changes.
type RoleCache interface {
	RoleByEmail(ctx context.Context, email string) (string, bool, error)
	Invalidate(ctx context.Context, email string)
}

type AssetStore interface {
	ListAssets(ctx context.Context, spec query.Spec) ([]models.Asset, error)
	AssetByID(ctx context.Context, id primitive.ObjectID) (*models.Asset, error)
	InsertAsset(ctx context.Context, a *models.Asset) (store.InsertResult, error)
	UpdateAsset(ctx context.Context, id primitive.ObjectID, p models.AssetPatch) (store.UpdateResult, error)
	DeleteAsset(ctx context.Context, id primitive.ObjectID) (store.DeleteResult, error)
	RestockAsset(ctx context.Context, product string) (*models.Asset, error)
}

type CustomStore interface {
	ListCustomRequests(ctx context.Context, spec query.Spec) ([]models.CustomRequest, error)
	CustomRequestByID(ctx context.Context, id primitive.ObjectID) (*models.CustomRequest, error)
	InsertCustomRequest(ctx context.Context, c *models.CustomRequest) (store.InsertResult, error)
	UpdateCustomRequest(ctx context.Context, id primitive.ObjectID, p models.CustomRequestPatch) (store.UpdateResult, error)
	TransitionCustomRequest(ctx context.Context, id primitive.ObjectID, t models.Transition) (*models.CustomRequest, error)
}

type RequestStore interface {
	ListBorrowRequests(ctx context.Context, spec query.Spec) ([]models.BorrowRequest, error)
	InsertBorrowRequest(ctx context.Context, r *models.BorrowRequest) (store.InsertResult, error)
	DeleteBorrowRequest(ctx context.Context, id primitive.ObjectID) (store.DeleteResult, error)
	TransitionBorrowRequest(ctx context.Context, id primitive.ObjectID, t models.Transition) (*models.BorrowRequest, error)
}

type ImageStore interface {
	Upload(ctx context.Context, owner, originalFilename string, body io.Reader, contentType string) (key, url string, err error)
	Delete(ctx context.Context, key string) error
	KeyFromRef(ref string) (key string, ok bool)
}

type DecisionMailer interface {
	NotifyDecision(ctx context.Context, d service.Decision) error
}

type EmailLogStore interface {
	InsertEmailLog(ctx context.Context, log *models.EmailLog) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

const msgInternal = "internal server error"

var errInvalidID = errors.New("invalid id")

// pathID parses the ObjectID in the named path parameter.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, errInvalidID
	}
	return id, nil
}

// respondError maps store errors to status codes. Anything unknown is logged
// and answered with 500.
func respondError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, errInvalidID):
		utils.RespondMessage(w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, store.ErrNotFound):
		utils.RespondMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalidTransition):
		utils.RespondMessage(w, http.StatusConflict, "invalid status transition")
	case errors.Is(err, store.ErrDuplicate):
		utils.RespondMessage(w, http.StatusConflict, "already exists")
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		utils.RespondMessage(w, http.StatusInternalServerError, msgInternal)
	}
}
