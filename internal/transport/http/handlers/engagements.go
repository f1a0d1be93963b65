package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/artfolio/engagement-service/internal/application/engagement"
	"github.com/artfolio/engagement-service/internal/domain"
	"github.com/artfolio/engagement-service/internal/transport/http/dto"
	"github.com/artfolio/engagement-service/internal/transport/http/middleware"
	"github.com/artfolio/engagement-service/internal/transport/http/response"
	"github.com/artfolio/engagement-service/internal/transport/http/validate"
)

type EngagementsHandler struct {
	svc *engagement.Service
}

func NewEngagementsHandler(svc *engagement.Service) *EngagementsHandler {
	return &EngagementsHandler{svc: svc}
}

func (h *EngagementsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartEngagementReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}

	referrer := req.Referrer
	if referrer == "" {
		referrer = r.Referer()
	}

	e, err := h.svc.Start(r.Context(), engagement.StartCmd{
		DeviceID:  middleware.DeviceFromContext(r.Context()),
		ArtworkID: req.ArtworkID,
		Replace:   r.URL.Query().Get("replace") == "true",
		Meta: domain.EngagementMeta{
			UserID:    middleware.UserID(r),
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
			Referrer:  referrer,
			SessionID: req.SessionID,
		},
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}

	response.Data(w, http.StatusCreated, dto.ToEngagementResp(e))
}

// Heartbeat handles both the periodic duration update and, with
// final=true, the session end. Both write the client's counter; an
// expired record is a silent success for the caller.
func (h *EngagementsHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req dto.HeartbeatReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}

	deviceID := middleware.DeviceFromContext(r.Context())

	var err error
	if req.Final {
		err = h.svc.End(r.Context(), deviceID, req.ArtworkID, req.ViewDuration)
	} else {
		err = h.svc.Heartbeat(r.Context(), deviceID, req.ArtworkID, req.ViewDuration)
	}
	if err != nil {
		response.Err(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EngagementsHandler) Get(w http.ResponseWriter, r *http.Request) {
	artworkID := chi.URLParam(r, "artwork_id")

	e, err := h.svc.Get(r.Context(), middleware.DeviceFromContext(r.Context()), artworkID)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	response.Data(w, http.StatusOK, dto.ToEngagementResp(e))
}

func (h *EngagementsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), middleware.DeviceFromContext(r.Context()))
	if err != nil {
		response.Err(w, r, err)
		return
	}

	out := make([]dto.EngagementResp, 0, len(items))
	for _, e := range items {
		out = append(out, dto.ToEngagementResp(e))
	}
	response.Data(w, http.StatusOK, out)
}

func (h *EngagementsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.ClearDevice(r.Context(), middleware.DeviceFromContext(r.Context()))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ClearResp{Removed: removed})
}

func (h *EngagementsHandler) RecentViews(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ids, err := h.svc.RecentViews(r.Context(), middleware.DeviceFromContext(r.Context()), limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	response.Data(w, http.StatusOK, dto.RecentViewsResp{ArtworkIDs: ids})
}
