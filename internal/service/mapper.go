package service

import (
	"regexp"
	"strings"

	"github.com/afgc/registry/internal/model"
	"github.com/afgc/registry/internal/normalize"
)

// certIDPattern is the fixed-width certification identifier shape. Fixed
// width also makes lexicographic ordering a total numeric order.
var certIDPattern = regexp.MustCompile(`^AFGC-\d{4}-\d{4}$`)

// Published field width caps
const (
	maxEntityLegalName = 200
	maxJurisdiction    = 120
	maxScopeHighLevel  = 280
	maxNotesPublic     = 240
)

// Mapper transforms one raw source record into one registry entry. Mapping is
// a pure transform: any invariant violation is returned as an error and fails
// the whole batch — a public compliance registry must never silently omit or
// silently admit a malformed entry.
type Mapper struct{}

// NewMapper creates a new Mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map validates and normalizes a raw record. The required-date invariant is
// checked first so the error names the offending record by certification ID
// whenever one is present, valid or not.
func (m *Mapper) Map(rec model.RawRecord) (model.RegistryEntry, error) {
	certID := strings.TrimSpace(rec.Field("Certification_ID"))

	issued, ok := normalize.Date(rec.Field("Issued_Date"))
	if !ok {
		return model.RegistryEntry{}, &MissingRequiredFieldError{CertificationID: certID, Field: "Issued_Date"}
	}

	expiration, ok := normalize.Date(rec.Field("Expiration_Date"))
	if !ok {
		return model.RegistryEntry{}, &MissingRequiredFieldError{CertificationID: certID, Field: "Expiration_Date"}
	}

	if !certIDPattern.MatchString(certID) {
		return model.RegistryEntry{}, &MalformedIdentifierError{Value: certID}
	}

	return model.RegistryEntry{
		CertificationID: certID,
		EntityLegalName: normalize.Clamp(rec.Field("Entity_Name"), maxEntityLegalName),
		Jurisdiction:    normalize.Clamp(rec.Field("Jurisdiction"), maxJurisdiction),
		EntityType:      normalize.EntityType(rec.Field("Entity_Type")),
		Status:          normalize.Status(rec.Field("Status")),
		IssuedDate:      issued,
		ExpirationDate:  expiration,
		ScopeHighLevel:  normalize.Clamp(rec.Field("High_Level_Scope"), maxScopeHighLevel),
		NotesPublic:     normalize.Clamp(rec.Field("Public_Note"), maxNotesPublic),
	}, nil
}
