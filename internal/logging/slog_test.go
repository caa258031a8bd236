package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{name: "regular address", email: "alice@example.com"},
		{name: "address with dots", email: "john.smith@techcorp.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeEmail(tt.email)
			assert.True(t, strings.HasPrefix(got, "user:"))
			assert.NotContains(t, got, tt.email)
			// Same input must hash to the same value for correlation.
			assert.Equal(t, got, AnonymizeEmail(tt.email))
		})
	}
}

func TestAnonymizeEmailEmpty(t *testing.T) {
	assert.Equal(t, "", AnonymizeEmail(""))
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{name: "regular address", email: "bob@example.org", expected: "example.org"},
		{name: "no at sign", email: "not-an-email", expected: ""},
		{name: "multiple at signs", email: "a@b@c", expected: ""},
		{name: "empty", email: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractDomain(tt.email))
		})
	}
}

func TestErrNilOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("message", Err(nil))
	assert.NotContains(t, buf.String(), KeyError)
}

func TestErrIncluded(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("message", Err(assert.AnError))
	require.Contains(t, buf.String(), KeyError)
	assert.Contains(t, buf.String(), assert.AnError.Error())
}

func TestWithOperationAddsAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOperation(slog.New(slog.NewTextHandler(&buf, nil)), "categorize")

	logger.Info("paced")
	assert.Contains(t, buf.String(), "operation=categorize")
}

func TestWithServiceAddsAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := WithService(slog.New(slog.NewTextHandler(&buf, nil)), "store")

	logger.Info("loaded")
	assert.Contains(t, buf.String(), "service=store")
}
