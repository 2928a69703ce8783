package domain

// FieldMap is one listing row as extracted: source-defined column label
// (lowercased, whitespace folded) to cell text.
type FieldMap map[string]string

// Canonical column names, in export order.
const (
	FieldCompany     = "company"
	FieldRole        = "role"
	FieldLocation    = "location"
	FieldApplication = "application"
	FieldStatus      = "status"
	FieldDateToken   = "date_token"
	FieldSourceRepo  = "source_repo"
)

var CanonicalFields = []string{
	FieldCompany,
	FieldRole,
	FieldLocation,
	FieldApplication,
	FieldStatus,
	FieldDateToken,
	FieldSourceRepo,
}

// Position is the normalized output unit. It is built once by the
// normalizer and not mutated afterwards.
type Position struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Location    string `json:"location"`
	Application string `json:"application"`
	Status      string `json:"status"`
	DateToken   string `json:"date_token"`
	SourceRepo  string `json:"source_repo"`

	// Extra holds raw columns that did not map onto a canonical field.
	Extra map[string]string `json:"extra,omitempty"`
}

// Field returns the value of a canonical or extra column by name.
func (p Position) Field(name string) string {
	switch name {
	case FieldCompany:
		return p.Company
	case FieldRole:
		return p.Role
	case FieldLocation:
		return p.Location
	case FieldApplication:
		return p.Application
	case FieldStatus:
		return p.Status
	case FieldDateToken:
		return p.DateToken
	case FieldSourceRepo:
		return p.SourceRepo
	default:
		return p.Extra[name]
	}
}
