package types

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// PhotoProof records a pickup or delivery photo.
type PhotoProof struct {
	URL        string    `json:"url"`
	UploadedBy uuid.UUID `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func (p PhotoProof) Value() (driver.Value, error) {
	return marshalJSONB(p)
}

func (p *PhotoProof) Scan(value any) error {
	var out PhotoProof
	if _, err := scanJSONB(value, &out, "photo proof"); err != nil {
		return err
	}
	*p = out
	return nil
}

// StatusHistoryEntry is one append-only delivery status change.
type StatusHistoryEntry struct {
	Status    string     `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Note      string     `json:"note"`
	Photo     *string    `json:"photo"`
	UpdatedBy *uuid.UUID `json:"updatedBy,omitempty"`
}

type StatusHistory []StatusHistoryEntry

func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	return marshalJSONB([]StatusHistoryEntry(h))
}

func (h *StatusHistory) Scan(value any) error {
	var out []StatusHistoryEntry
	if _, err := scanJSONB(value, &out, "status history"); err != nil {
		return err
	}
	*h = out
	return nil
}

// Append returns a copy of h with entry added at the end.
func (h StatusHistory) Append(entry StatusHistoryEntry) StatusHistory {
	out := make(StatusHistory, 0, len(h)+1)
	out = append(out, h...)
	return append(out, entry)
}
