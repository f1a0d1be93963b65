package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/artfolio/engagement-service/internal/application/migration"
	"github.com/artfolio/engagement-service/internal/application/notify"
	"github.com/artfolio/engagement-service/internal/domain"
	"github.com/artfolio/engagement-service/internal/metrics"
	"github.com/artfolio/engagement-service/internal/transport/http/dto"
	"github.com/artfolio/engagement-service/internal/transport/http/response"
	"github.com/artfolio/engagement-service/internal/transport/http/validate"
)

type InternalHandler struct {
	migration  *migration.Service
	dispatcher *notify.Dispatcher
	cronSecret string
}

func NewInternalHandler(m *migration.Service, d *notify.Dispatcher, cronSecret string) *InternalHandler {
	return &InternalHandler{migration: m, dispatcher: d, cronSecret: cronSecret}
}

// Migrate moves a device's guest lists into the user's durable lists.
// Called by the auth collaborator right after login; defaults to both
// kinds when the body names none.
func (h *InternalHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	var req dto.MigrateReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, err)
		return
	}

	kinds := make([]domain.ListKind, 0, 2)
	for _, k := range req.Kinds {
		kinds = append(kinds, domain.ListKind(k))
	}
	if len(kinds) == 0 {
		kinds = []domain.ListKind{domain.ListCart, domain.ListWishlist}
	}

	results := make([]migration.Result, 0, len(kinds))
	for _, kind := range kinds {
		res, err := h.migration.Migrate(r.Context(), req.DeviceID, req.UserID, kind)
		if err != nil {
			response.Err(w, r, err)
			return
		}
		metrics.RecordMigration(res.Migrated)
		results = append(results, res)
	}

	response.Data(w, http.StatusOK, results)
}

// Dispatch triggers one reminder run. The cron scheduler authenticates
// with the shared secret as a query parameter.
func (h *InternalHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	got := r.URL.Query().Get("secret")
	if h.cronSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.cronSecret)) != 1 {
		response.Err(w, r, domain.ErrForbidden("forbidden"))
		return
	}

	stats, err := h.dispatcher.Run(r.Context())
	if err != nil {
		metrics.RecordDispatchRun("error")
		response.Err(w, r, err)
		return
	}

	if stats.Skipped {
		metrics.RecordDispatchRun("skipped")
	} else {
		metrics.RecordDispatchRun("completed")
		metrics.RecordReminders(stats.Sent, stats.Ineligible, stats.Failed)
	}

	response.Data(w, http.StatusOK, dto.ToDispatchResp(stats))
}
