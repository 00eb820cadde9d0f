package assessment

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

// NormalizeUSPhone converts any reasonable US phone input ("(555) 867-5309",
// "555.867.5309", "+1 555 867 5309") to canonical +1XXXXXXXXXX form.
//
// NANP rules enforced: exactly 10 national digits (an optional leading 1 is
// stripped), and both the area code and the exchange code must start with
// 2–9. Anything else is rejected.
func NormalizeUSPhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return "", fmt.Errorf("phone must have 10 digits, got %d", len(d))
	}
	if d[0] < '2' || d[0] > '9' {
		return "", fmt.Errorf("invalid area code %q", d[:3])
	}
	if d[3] < '2' || d[3] > '9' {
		return "", fmt.Errorf("invalid exchange code %q", d[3:6])
	}

	return "+1" + d, nil
}

// validEmail reports whether s parses as a bare RFC 5322 address with a
// dotted domain. mail.ParseAddress accepts "a@b" which no real mail provider
// resolves, so the domain must contain at least one dot.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil || addr.Address != strings.TrimSpace(s) {
		return false
	}
	at := strings.LastIndex(addr.Address, "@")
	return at > 0 && strings.Contains(addr.Address[at+1:], ".")
}

// validateContact checks the step-12 block: names at least 2 characters,
// valid email, normalizable US phone, explicit consent.
func validateContact(c Contact) ValidationErrors {
	var errs ValidationErrors

	if len(strings.TrimSpace(c.FirstName)) < 2 {
		errs = append(errs, FieldError{Field: "contact.first_name", Message: "first name must be at least 2 characters"})
	}
	if len(strings.TrimSpace(c.LastName)) < 2 {
		errs = append(errs, FieldError{Field: "contact.last_name", Message: "last name must be at least 2 characters"})
	}
	if !validEmail(c.Email) {
		errs = append(errs, FieldError{Field: "contact.email", Message: "a valid email address is required"})
	}
	if _, err := NormalizeUSPhone(c.Phone); err != nil {
		errs = append(errs, FieldError{Field: "contact.phone", Message: "a valid US phone number is required"})
	}
	if !c.Consent {
		errs = append(errs, FieldError{Field: "contact.consent", Message: "consent is required"})
	}

	return errs
}
