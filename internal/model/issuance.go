package model

// IssuancePack is the per-certification issuance document generated for
// approved certifications awaiting dispatch.
type IssuancePack struct {
	PackVersion     string `json:"pack_version"`
	CertificationID string `json:"certification_id"`
	EntityName      string `json:"entity_name"`
	Jurisdiction    string `json:"jurisdiction"`
	IssuedDate      string `json:"issued_date"`
	ExpirationDate  string `json:"expiration_date"`
	Scope           string `json:"scope"`
	GeneratedUTC    string `json:"generated_utc"`
	Statement       string `json:"statement"`
}
