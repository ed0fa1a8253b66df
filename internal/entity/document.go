package entity

import (
	"encoding/json"
	"time"
)

// Document is a cached reference to a document owned by the remote service.
type Document struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	PageCount int             `json:"page_count"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"` // opaque service handle
}
