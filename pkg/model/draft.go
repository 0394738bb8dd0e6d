package model

// TrapField is the hidden honeypot input. Humans never fill it in.
const TrapField = "fax"

// Draft is the in-progress intake record held by the wizard. Field names match
// the JSON body accepted by POST /api/submit.
type Draft struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	FirmName    string `json:"firmName"`
	FirmAddress string `json:"firmAddress"`

	PICFirstName string `json:"picFirstName"`
	PICLastName  string `json:"picLastName"`
	NYSID        string `json:"nysid"`
	BookAndCase  string `json:"bookAndCase"`
	Facility     string `json:"facility"`

	PreferredDate       string `json:"preferredDate"`
	PreferredTime       string `json:"preferredTime"`
	PreferredDuration   string `json:"preferredDuration"`
	AlternativeDate     string `json:"alternativeDate"`
	AlternativeTime     string `json:"alternativeTime"`
	AlternativeDuration string `json:"alternativeDuration"`

	Message         string `json:"message"`
	MessageCategory string `json:"messageCategory"`

	Fax string `json:"fax"`
}

// SetIdentifier stores id in its field and clears the other one, so a draft
// never carries both a NYSID and a book & case number.
func (d *Draft) SetIdentifier(id Identifier) {
	switch id.Kind {
	case KindNYSID:
		d.NYSID = id.Value
		d.BookAndCase = ""
	case KindBookAndCase:
		d.BookAndCase = id.Value
		d.NYSID = ""
	}
}

// KeepIdentifier clears the field of the other kind and leaves kind's field
// as it is.
func (d *Draft) KeepIdentifier(kind IdentifierKind) {
	if kind == KindNYSID {
		d.BookAndCase = ""
		return
	}
	d.NYSID = ""
}

// Identifier returns the populated identifier. ok is false when neither field
// is set.
func (d *Draft) Identifier() (id Identifier, ok bool) {
	switch {
	case d.NYSID != "":
		return Identifier{Kind: KindNYSID, Value: d.NYSID}, true
	case d.BookAndCase != "":
		return Identifier{Kind: KindBookAndCase, Value: d.BookAndCase}, true
	default:
		return Identifier{}, false
	}
}

func (d *Draft) HasTrap() bool {
	return d.Fax != ""
}

// Payload is the body sent to the submission proxy, without the trap field.
func (d *Draft) Payload() map[string]string {
	return map[string]string{
		"firstName":           d.FirstName,
		"lastName":            d.LastName,
		"email":               d.Email,
		"phone":               d.Phone,
		"firmName":            d.FirmName,
		"firmAddress":         d.FirmAddress,
		"picFirstName":        d.PICFirstName,
		"picLastName":         d.PICLastName,
		"nysid":               d.NYSID,
		"bookAndCase":         d.BookAndCase,
		"facility":            d.Facility,
		"preferredDate":       d.PreferredDate,
		"preferredTime":       d.PreferredTime,
		"preferredDuration":   d.PreferredDuration,
		"alternativeDate":     d.AlternativeDate,
		"alternativeTime":     d.AlternativeTime,
		"alternativeDuration": d.AlternativeDuration,
		"message":             d.Message,
		"messageCategory":     d.MessageCategory,
	}
}
