package leadform

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"leadcapture/internal/domain"
)

// Field names a lead form input
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
	FieldCompany Field = "company"
	FieldMessage Field = "message"
)

// Fields lists the form inputs in display order. Focus after a failed
// submit goes to the first invalid field in this order.
var Fields = []Field{FieldName, FieldEmail, FieldPhone, FieldCompany, FieldMessage}

// Validation messages shown next to an invalid field
const (
	ErrNameTooShort    = "Name must be at least 2 characters"
	ErrEmailInvalid    = "Please enter a valid email"
	ErrPhoneInvalid    = "Please enter a valid phone number"
	ErrCompanyTooShort = "Company name must be at least 2 characters"
	ErrMessageTooShort = "Message must be at least 10 characters"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)
)

// FieldErrors maps a field to its current error message. A missing or
// empty entry means the field is valid.
type FieldErrors map[Field]string

// First returns the first field in display order that carries an error.
func (e FieldErrors) First() (Field, bool) {
	for _, f := range Fields {
		if e[f] != "" {
			return f, true
		}
	}
	return "", false
}

// Clone returns a copy without empty entries.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for f, msg := range e {
		if msg != "" {
			out[f] = msg
		}
	}
	return out
}

type rule struct {
	tag string
	msg string
}

// rules holds the validator tag and message for each field.
var rules = map[Field]rule{
	FieldName:    {tag: "min=2", msg: ErrNameTooShort},
	FieldEmail:   {tag: "leademail", msg: ErrEmailInvalid},
	FieldPhone:   {tag: "leadphone", msg: ErrPhoneInvalid},
	FieldCompany: {tag: "min=2", msg: ErrCompanyTooShort},
	FieldMessage: {tag: "min=10", msg: ErrMessageTooShort},
}

var validate = newValidator()

// newValidator registers the lead specific rules. validator's own email
// rule accepts and rejects different addresses than the form does, so
// email and phone are matched against the form's patterns.
func newValidator() *validator.Validate {
	v := validator.New()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(v.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("leadphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(stripSpace(fl.Field().String()))
	}))
	return v
}

// Validate checks a single field value and returns its error message, or
// "" when the value is acceptable. Unknown fields are always valid.
// Lengths are counted in characters.
func Validate(field Field, value string) string {
	r, ok := rules[field]
	if !ok {
		return ""
	}
	if err := validate.Var(value, r.tag); err != nil {
		return r.msg
	}
	return ""
}

// ValidateAll validates every field of lead and returns only the failures.
func ValidateAll(lead domain.Lead) FieldErrors {
	errs := FieldErrors{}
	for _, f := range Fields {
		if msg := Validate(f, Value(lead, f)); msg != "" {
			errs[f] = msg
		}
	}
	return errs
}

// Progress is the percentage of fields holding non-blank text.
func Progress(lead domain.Lead) int {
	filled := 0
	for _, f := range Fields {
		if strings.TrimSpace(Value(lead, f)) != "" {
			filled++
		}
	}
	return filled * 100 / len(Fields)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Value returns the current text of field f in lead.
func Value(lead domain.Lead, f Field) string {
	switch f {
	case FieldName:
		return lead.Name
	case FieldEmail:
		return lead.Email
	case FieldPhone:
		return lead.Phone
	case FieldCompany:
		return lead.Company
	case FieldMessage:
		return lead.Message
	}
	return ""
}

func setValue(lead *domain.Lead, f Field, value string) bool {
	switch f {
	case FieldName:
		lead.Name = value
	case FieldEmail:
		lead.Email = value
	case FieldPhone:
		lead.Phone = value
	case FieldCompany:
		lead.Company = value
	case FieldMessage:
		lead.Message = value
	default:
		return false
	}
	return true
}
