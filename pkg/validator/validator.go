package validator

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// ValidationErrors maps a request field to the problem found with it
type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// Error joins the messages in field order so output is deterministic.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, v[f])
	}
	return strings.Join(msgs, "; ")
}

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

// NormalizePhone trims the number and drops the spaces and dashes people type
// between digit groups.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
}

// ValidatePhone checks an already normalized phone number.
func ValidatePhone(phone string) ValidationErrors {
	errs := make(ValidationErrors)
	if phone == "" {
		errs.Add("phoneNumber", "phoneNumber is required")
	} else if !phoneRegex.MatchString(phone) {
		errs.Add("phoneNumber", "phoneNumber must contain 6 to 15 digits with an optional leading +")
	}
	return errs
}

// maxFieldLength bounds name and location in characters, not bytes.
const maxFieldLength = 100

func ValidateProfile(phone, name, location string) ValidationErrors {
	errs := ValidatePhone(phone)

	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "name is required")
	} else if utf8.RuneCountInString(name) > maxFieldLength {
		errs.Add("name", "name is too long")
	}

	location = strings.TrimSpace(location)
	if location == "" {
		errs.Add("location", "location is required")
	} else if utf8.RuneCountInString(location) > maxFieldLength {
		errs.Add("location", "location is too long")
	}

	return errs
}
