package handlers

import (
	"net/http"
	"net/url"

	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/query"
	"github.com/assetdesk/backend/utils"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssetsHandler struct {
	Assets AssetStore
	Log    logrus.FieldLogger
}

type RestockResponse struct {
	Success      bool          `json:"success"`
	UpdatedAsset *models.Asset `json:"updatedAsset"`
}

// List supports assetType, searchTerm (on product) and sortBy=asc|dsc on quantity.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	p := query.FromValues(r.URL.Query())
	p.Status = ""
	assets, err := h.Assets.ListAssets(r.Context(), query.Build(nil, p, "product"))
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, assets)
}

func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	asset, err := h.Assets.AssetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, asset)
}

func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var a models.Asset
	if err := utils.DecodeJSON(r, &a); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	a.ID = primitive.NilObjectID
	res, err := h.Assets.InsertAsset(r.Context(), &a)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

func (h *AssetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	var p models.AssetPatch
	if err := utils.DecodeJSON(r, &p); err != nil {
		utils.RespondMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.Assets.UpdateAsset(r.Context(), id, p)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

func (h *AssetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	res, err := h.Assets.DeleteAsset(r.Context(), id)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

// Restock adds one unit to the asset named in the path.
func (h *AssetsHandler) Restock(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "assetName")
	// chi matches on RawPath when the request carries one, so only then is the param still escaped.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			utils.RespondMessage(w, http.StatusBadRequest, "invalid asset name")
			return
		}
		name = unescaped
	}
	asset, err := h.Assets.RestockAsset(r.Context(), name)
	if err != nil {
		respondError(w, r, h.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, RestockResponse{Success: true, UpdatedAsset: asset})
}
