package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "portfolio/pkg/errors"
)

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"plain":                "plain",
		"  padded  ":           "padded",
		"<b>bold</b>":          "bbold/b",
		" <script>x</script> ": "scriptx/script",
		"a < b > c":            "a  b  c",
		"< leading":            "leading",
		"\t\n":                 "",
		"émoji 🚀 <3":           "émoji 🚀 3",
	}
	for in, want := range tests {
		got := Sanitize(in)
		assert.Equal(t, want, got, "Sanitize(%q)", in)
		assert.Equal(t, got, Sanitize(got), "Sanitize is not idempotent for %q", in)
	}
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	return appErr.Fields
}

func TestValidateSubmission_ReportsEveryField(t *testing.T) {
	_, err := ValidateSubmission(SubmissionRequest{Name: "A", Email: "bad-email", Message: "short", Timestamp: "yesterday"})
	fields := validationFields(t, err)

	assert.Equal(t, "Name must be 2-100 characters.", fields["name"])
	assert.Equal(t, "Invalid email address.", fields["email"])
	assert.Equal(t, "Message must be 10-1000 characters.", fields["message"])
	assert.Contains(t, fields, "timestamp")
	assert.Equal(t,
		"VALIDATION_ERROR: Name must be 2-100 characters. Invalid email address. Message must be 10-1000 characters. Timestamp must be an ISO-8601 date or Unix milliseconds.",
		err.Error())
}

func TestValidateSubmission_Required(t *testing.T) {
	_, err := ValidateSubmission(SubmissionRequest{Name: "  ", Message: "<>"})
	fields := validationFields(t, err)

	assert.Equal(t, "Name is required.", fields["name"])
	assert.Equal(t, "Email is required.", fields["email"])
	assert.Equal(t, "Message is required.", fields["message"])
	assert.NotContains(t, fields, "timestamp")
}

func TestValidateSubmission_Bounds(t *testing.T) {
	base := SubmissionRequest{Name: "Al", Email: "al@x.com", Message: "0123456789"}

	tests := []struct {
		name    string
		mutate  func(*SubmissionRequest)
		invalid string
	}{
		{name: "minimum lengths", mutate: func(*SubmissionRequest) {}},
		{name: "name at 100", mutate: func(r *SubmissionRequest) { r.Name = strings.Repeat("n", 100) }},
		{name: "name at 101", mutate: func(r *SubmissionRequest) { r.Name = strings.Repeat("n", 101) }, invalid: "name"},
		{name: "name counts runes", mutate: func(r *SubmissionRequest) { r.Name = strings.Repeat("é", 100) }},
		{name: "message at 1000", mutate: func(r *SubmissionRequest) { r.Message = strings.Repeat("m", 1000) }},
		{name: "message at 1001", mutate: func(r *SubmissionRequest) { r.Message = strings.Repeat("m", 1001) }, invalid: "message"},
		{name: "message 9 after trim", mutate: func(r *SubmissionRequest) { r.Message = "   123456789   " }, invalid: "message"},
		{
			name:    "raw message over 1000 with padding",
			mutate:  func(r *SubmissionRequest) { r.Message = strings.Repeat("m", 995) + strings.Repeat(" ", 10) },
			invalid: "message",
		},
		{name: "email without tld", mutate: func(r *SubmissionRequest) { r.Email = "al@x" }, invalid: "email"},
		{name: "email with space", mutate: func(r *SubmissionRequest) { r.Email = "a l@x.com" }, invalid: "email"},
		{name: "email with two ats", mutate: func(r *SubmissionRequest) { r.Email = "a@b@x.com" }, invalid: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			got, err := ValidateSubmission(req)
			if tt.invalid == "" {
				require.NoError(t, err)
				require.NotNil(t, got)
				return
			}
			fields := validationFields(t, err)
			assert.Len(t, fields, 1)
			assert.Contains(t, fields, tt.invalid)
		})
	}
}

func TestValidateSubmission_Normalizes(t *testing.T) {
	got, err := ValidateSubmission(SubmissionRequest{
		Name:      " Grace ",
		Email:     "Grace@Example.ORG",
		Message:   "  Let's build something.  ",
		Timestamp: "2026-03-01T11:59:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.Name)
	assert.Equal(t, "grace@example.org", got.Email)
	assert.Equal(t, "Let's build something.", got.Message)
	require.NotNil(t, got.ClientTimestamp)
	assert.True(t, got.ClientTimestamp.Equal(time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC)))
}

func TestParseClientTimestamp(t *testing.T) {
	ts, err := ParseClientTimestamp("")
	require.NoError(t, err)
	assert.Nil(t, ts)

	ts, err = ParseClientTimestamp("1772366400000")
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.UnixMilli(1772366400000)))

	ts, err = ParseClientTimestamp("2026-03-01T12:00:00.123+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, 10, ts.Hour())

	for _, bad := range []string{"yesterday", "NaN", "Inf", "-Inf", "2026-03-01", "1e17", "-1e17", "1e300"} {
		_, err := ParseClientTimestamp(bad)
		assert.Error(t, err, bad)
	}
}
