package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/assetdesk/backend/middleware"
	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/query"
	"github.com/assetdesk/backend/service"
	"github.com/assetdesk/backend/utils"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomHandler struct {
	Custom   CustomStore
	Images   ImageStore
	MaxBytes int64
	Log      logrus.FieldLogger
	Metrics  *middleware.Metrics
	Notifier *Notifier
}

type UploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (h *CustomHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, nil)
}

func (h *CustomHandler) ListByEmail(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, bson.D{{Key: "email", Value: chi.URLParam(r, "email")}})
}

func (h *CustomHandler) list(w http.ResponseWriter, r *http.Request, base bson.D) {
	reqs, err := h.Custom.ListCustomRequests(r.Context(), query.Build(base, query.Params{}))
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, reqs)
}

func (h *CustomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c models.CustomRequest
	if err := utils.DecodeJSON(r, &c); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	c.ID = primitive.NilObjectID
	c.Status = models.StatusPending
	c.ApprovalDate, c.RejectDate = nil, nil
	res, err := h.Custom.InsertCustomRequest(r.Context(), &c)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

func (h *CustomHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	var p models.CustomRequestPatch
	if err := utils.DecodeJSON(r, &p); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "invalid json")
		return
	}

	var oldImage string
	if p.Image != nil && h.Images != nil {
		c, err := h.Custom.CustomRequestByID(r.Context(), id)
		if err != nil {
			respondError(w, r, h.Log, err)
			return
		}
		oldImage = c.Image
	}

	res, err := h.Custom.UpdateCustomRequest(r.Context(), id, p)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	if oldImage != "" && oldImage != *p.Image {
		h.removeImage(r, oldImage)
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

// removeImage deletes a replaced upload. Images hosted elsewhere are left alone.
func (h *CustomHandler) removeImage(r *http.Request, ref string) {
	key, ok := h.Images.KeyFromRef(ref)
	if !ok {
		return
	}
	if err := h.Images.Delete(r.Context(), key); err != nil && h.Log != nil {
		h.Log.WithError(err).WithField("key", key).Warn("could not delete replaced image")
	}
}

func (h *CustomHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.ApproveCustom)
}

func (h *CustomHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.RejectCustom)
}

func (h *CustomHandler) transition(w http.ResponseWriter, r *http.Request, tr models.Transition) {
	t := transitioner{Kind: "custom", Log: h.Log, Metrics: h.Metrics, Notifier: h.Notifier}
	t.serve(w, r, tr, func(id primitive.ObjectID) (decided, error) {
		c, err := h.Custom.TransitionCustomRequest(r.Context(), id, tr)
		if err != nil {
			return decided{}, err
		}
		return decided{Email: c.Email, Name: c.Name, Asset: c.Asset, At: stamp(c.RejectDate, c.ApprovalDate)}, nil
	})
}

// UploadImage stores the multipart "image" file and returns its key and URL.
// The URL goes into the image field of a custom request.
func (h *CustomHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		utils.RespondMessage(w, http.StatusServiceUnavailable, "image upload not configured")
		return
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondMessage(w, http.StatusUnauthorized, middleware.MsgForbidden)
		return
	}
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "missing image")
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		utils.RespondMessage(w, http.StatusBadRequest, "failed to read image")
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if _, ok := service.ImageContentTypes[contentType]; !ok {
		utils.RespondMessage(w, http.StatusUnsupportedMediaType, "image must be jpeg, png, gif or webp")
		return
	}

	key, url, err := h.Images.Upload(r.Context(), p.Email, header.Filename, io.MultiReader(bytes.NewReader(head), file), contentType)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, UploadResponse{Key: key, URL: url})
}
