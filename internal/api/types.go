package api

import "time"

// GalleryResponse mirrors GET /api/galleries/{id}/items.
type GalleryResponse struct {
	Items []Item `json:"items"`
}

// Item is one uploaded file in a gallery. URL is either a pre-signed
// absolute URL or a path under the upload namespace.
type Item struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Name        *string `json:"name"`
	ContentType string  `json:"contentType"`
	CreatedAt   string  `json:"createdAt"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (i Item) ParsedCreatedAt() time.Time {
	return parseTime(i.CreatedAt)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
