package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	nameMinLength    = 2
	nameMaxLength    = 100
	messageMinLength = 10
	messageMaxLength = 1000
)

// local@domain.tld shape only, not RFC 5322.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var markupStripper = strings.NewReplacer("<", "", ">", "")

// SubmissionRequest is a contact form submission as received from a client.
// Nothing in it is trusted.
type SubmissionRequest struct {
	Name    string
	Email   string
	Message string
	// VerificationToken is the human-verification token, if the client sent one.
	VerificationToken string
	// Timestamp is the client's submission time, either an RFC 3339 string or
	// Unix milliseconds. Empty when absent.
	Timestamp string
}

// ValidatedSubmission holds sanitized fields that passed validation.
type ValidatedSubmission struct {
	Name            string
	Email           string
	Message         string
	ClientTimestamp *time.Time
}

// Sanitize removes '<' and '>' and surrounding whitespace. Applying it twice
// gives the same result as applying it once.
func Sanitize(s string) string {
	return strings.TrimSpace(markupStripper.Replace(s))
}

// ValidateSubmission sanitizes req and checks every field, reporting all
// violations at once.
func ValidateSubmission(req SubmissionRequest) (*ValidatedSubmission, error) {
	fields := make(map[string]string)

	name := Sanitize(req.Name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		fields["name"] = "Name is required."
	case n < nameMinLength || n > nameMaxLength:
		fields["name"] = "Name must be 2-100 characters."
	}

	email := Sanitize(req.Email)
	switch {
	case email == "":
		fields["email"] = "Email is required."
	case !emailPattern.MatchString(email):
		fields["email"] = "Invalid email address."
	}

	message := Sanitize(req.Message)
	switch n := utf8.RuneCountInString(message); {
	case n == 0:
		fields["message"] = "Message is required."
	case n < messageMinLength || utf8.RuneCountInString(req.Message) > messageMaxLength:
		fields["message"] = "Message must be 10-1000 characters."
	}

	ts, err := ParseClientTimestamp(req.Timestamp)
	if err != nil {
		fields["timestamp"] = "Timestamp must be an ISO-8601 date or Unix milliseconds."
	}

	if len(fields) > 0 {
		return nil, NewValidationError(fields)
	}
	return &ValidatedSubmission{
		Name:            name,
		Email:           strings.ToLower(email),
		Message:         message,
		ClientTimestamp: ts,
	}, nil
}

// maxUnixMillis bounds millisecond timestamps to what time.Duration can span.
const maxUnixMillis = math.MaxInt64 / 1e6

// ParseClientTimestamp reads an RFC 3339 time or a Unix millisecond count.
// An empty string yields nil.
func ParseClientTimestamp(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if ms, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(ms) || math.IsInf(ms, 0) {
			return nil, fmt.Errorf("timestamp %q is not a finite number", raw)
		}
		if math.Abs(ms) > maxUnixMillis {
			return nil, fmt.Errorf("timestamp %q is out of range", raw)
		}
		t := time.UnixMilli(int64(ms)).UTC()
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
