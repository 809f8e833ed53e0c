package model

import "time"

// PublishRun records one successful publish for the optional run archive
type PublishRun struct {
	ID             string    `json:"id"`
	GeneratedUTC   time.Time `json:"generated_utc"`
	RecordCount    int       `json:"record_count"`
	EntryCount     int       `json:"entry_count"`
	ArtifactSHA256 string    `json:"artifact_sha256"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
