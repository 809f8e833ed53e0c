package model

import "fmt"

// RawRecord represents one record as returned by the source API.
// Field values are loosely typed; nothing about them is validated yet.
type RawRecord struct {
	ID     string
	Fields map[string]interface{}
}

// Field returns the named field as a string. Scalar values from mistyped
// source columns (numbers, booleans) are stringified rather than dropped;
// absent and null fields read as "".
func (r RawRecord) Field(name string) string {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// RegistryEntry is one validated, normalized certification destined for
// publication. Immutable after construction.
type RegistryEntry struct {
	CertificationID string `json:"certification_id"`
	EntityLegalName string `json:"entity_legal_name"`
	Jurisdiction    string `json:"jurisdiction"`
	EntityType      string `json:"entity_type"`
	Status          string `json:"status"`
	IssuedDate      string `json:"issued_date"`
	ExpirationDate  string `json:"expiration_date"`
	ScopeHighLevel  string `json:"scope_high_level"`
	NotesPublic     string `json:"notes_public,omitempty"`
}

// Publisher is the publisher block of the registry envelope
type Publisher struct {
	Name       string `json:"name"`
	Disclaimer string `json:"disclaimer"`
}

// RegistryDocument is the published envelope. It is regenerated wholesale on
// every run; the on-disk artifact is the only persisted representation.
type RegistryDocument struct {
	RegistryVersion string          `json:"registry_version"`
	GeneratedUTC    string          `json:"generated_utc"`
	Publisher       Publisher       `json:"publisher"`
	Entries         []RegistryEntry `json:"entries"`
}
