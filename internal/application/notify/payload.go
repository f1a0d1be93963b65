package notify

import (
	"fmt"

	"github.com/artfolio/engagement-service/internal/domain"
)

// Payload is the push message shape handed to the transport.
type Payload struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	URL      string `json:"url"`
	ImageURL string `json:"image_url,omitempty"`
}

func buildPayload(art *domain.ArtworkSummary) Payload {
	return Payload{
		Title:    "Still thinking it over?",
		Body:     fmt.Sprintf("%q is waiting in your cart.", art.Title),
		URL:      art.PageURL,
		ImageURL: art.ImageURL,
	}
}
