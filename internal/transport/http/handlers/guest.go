package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artfolio/engagement-service/internal/application/guestlist"
	"github.com/artfolio/engagement-service/internal/domain"
	"github.com/artfolio/engagement-service/internal/metrics"
	"github.com/artfolio/engagement-service/internal/transport/http/dto"
	"github.com/artfolio/engagement-service/internal/transport/http/middleware"
	"github.com/artfolio/engagement-service/internal/transport/http/response"
	"github.com/artfolio/engagement-service/internal/transport/http/validate"
)

type GuestHandler struct {
	svc *guestlist.Service
}

func NewGuestHandler(svc *guestlist.Service) *GuestHandler {
	return &GuestHandler{svc: svc}
}

func listKind(r *http.Request) (domain.ListKind, error) {
	kind := domain.ListKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		return "", domain.ErrValidationMeta("invalid path param", map[string]string{
			"kind": "must be cart or wishlist",
		})
	}
	return kind, nil
}

func (h *GuestHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, err := listKind(r)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	includeRecords := r.URL.Query().Get("include") == "records"
	view, err := h.svc.Get(r.Context(), middleware.DeviceFromContext(r.Context()), kind, includeRecords)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	response.Data(w, http.StatusOK, dto.ToGuestListResp(kind, view))
}

func (h *GuestHandler) Act(w http.ResponseWriter, r *http.Request) {
	kind, err := listKind(r)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	var req dto.GuestActionReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}

	deviceID := middleware.DeviceFromContext(r.Context())

	switch req.Action {
	case dto.ActionToggle:
		status, err := h.svc.Toggle(r.Context(), deviceID, kind, req.ArtworkID)
		if err != nil {
			response.Err(w, r, err)
			return
		}
		metrics.RecordGuestToggle(string(kind), string(status))
		response.Data(w, http.StatusOK, dto.ToggleResp{ArtworkID: req.ArtworkID, Status: string(status)})

	case dto.ActionAdd:
		if err := h.svc.Add(r.Context(), deviceID, kind, req.ArtworkID); err != nil {
			response.Err(w, r, err)
			return
		}
		response.Data(w, http.StatusOK, dto.ToggleResp{ArtworkID: req.ArtworkID, Status: string(domain.StatusActive)})

	case dto.ActionClear:
		if err := h.svc.Clear(r.Context(), deviceID, kind); err != nil {
			response.Err(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
