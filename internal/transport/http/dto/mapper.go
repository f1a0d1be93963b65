package dto

import (
	"github.com/artfolio/engagement-service/internal/application/guestlist"
	"github.com/artfolio/engagement-service/internal/application/notify"
	"github.com/artfolio/engagement-service/internal/domain"
)

func ToEngagementResp(e *domain.Engagement) EngagementResp {
	return EngagementResp{
		ArtworkID:       e.ArtworkID,
		DeviceID:        e.DeviceID,
		UserID:          e.UserID,
		SessionID:       e.SessionID,
		Referrer:        e.Referrer,
		ViewStartTime:   e.ViewStartTime,
		ViewDuration:    e.ViewDuration,
		LastInteraction: e.LastInteraction,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func ToGuestListResp(kind domain.ListKind, view guestlist.View) GuestListResp {
	resp := GuestListResp{
		Kind:      string(kind),
		ActiveIDs: view.ActiveIDs,
	}
	if resp.ActiveIDs == nil {
		resp.ActiveIDs = []string{}
	}
	for _, rec := range view.Records {
		resp.Records = append(resp.Records, GuestItemResp{
			ArtworkID: rec.ArtworkID,
			Status:    string(rec.Status),
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return resp
}

func ToDispatchResp(s notify.Stats) DispatchResp {
	return DispatchResp{
		Skipped:    s.Skipped,
		Processed:  s.Processed,
		Sent:       s.Sent,
		Ineligible: s.Ineligible,
		Failed:     s.Failed,
		ElapsedMS:  s.Elapsed.Milliseconds(),
	}
}
