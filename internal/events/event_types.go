package events

import (
	"strconv"
	"time"
)

// Kind identifies a company change message.
type Kind string

const (
	KindCompanyUpdated Kind = "company.updated"
	KindCompanyDeleted Kind = "company.deleted"
)

// CompanyFields lists the company fields a rename touched. Nil means unchanged.
type CompanyFields struct {
	Name  *string `cbor:"name,omitempty"`
	Email *string `cbor:"email,omitempty"`
}

// Empty reports whether no field changed.
func (f CompanyFields) Empty() bool {
	return f.Name == nil && f.Email == nil
}

// CompanyData is the last known state of a deleted company.
type CompanyData struct {
	Name  string `cbor:"name"`
	Email string `cbor:"email"`
}

// CompanyEvent is published when a company record changes.
type CompanyEvent struct {
	ID          string        `cbor:"id"`
	Kind        Kind          `cbor:"kind"`
	CompanyID   string        `cbor:"companyId"`
	Updates     CompanyFields `cbor:"updates"`
	CompanyData CompanyData   `cbor:"companyData"`
	OccurredAt  time.Time     `cbor:"occurredAt"`
}

// Key identifies the change for deduplication: the company and when it changed.
func (e CompanyEvent) Key() string {
	return string(e.Kind) + ":" + e.CompanyID + ":" + strconv.FormatInt(e.OccurredAt.UnixNano(), 10)
}
