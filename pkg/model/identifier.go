package model

import "fmt"

type IdentifierKind int

const (
	KindBookAndCase IdentifierKind = iota
	KindNYSID
)

// BookAndCaseLength is the exact number of digits in a book & case number.
const BookAndCaseLength = 10

func (k IdentifierKind) String() string {
	switch k {
	case KindBookAndCase:
		return "bookAndCase"
	case KindNYSID:
		return "nysid"
	default:
		return fmt.Sprintf("IdentifierKind(%d)", int(k))
	}
}

// QueryParam is the /api/pic-lookup query parameter for this kind.
func (k IdentifierKind) QueryParam() string {
	return k.String()
}

// Identifier names a person in custody by exactly one of the two identifiers
// the directory knows.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

func NYSID(v string) Identifier {
	return Identifier{Kind: KindNYSID, Value: v}
}

func BookAndCase(v string) Identifier {
	return Identifier{Kind: KindBookAndCase, Value: v}
}

func (id Identifier) String() string {
	return id.Kind.String() + "=" + id.Value
}

// Subject is a custody record resolved from the directory service.
type Subject struct {
	FirstName   string `json:"picFirstName"`
	LastName    string `json:"picLastName"`
	NYSID       string `json:"nysid"`
	BookAndCase string `json:"bookAndCase"`
	Facility    string `json:"facility"`
}
