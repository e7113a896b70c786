package mimetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	m, ok := Parse("Text/HTML; charset=UTF-8")
	assert.True(t, ok)
	assert.Equal(t, "text", m.Type)
	assert.Equal(t, "html", m.Subtype)
	assert.Equal(t, "UTF-8", m.Params["charset"])
	assert.Equal(t, "text/html", m.String())

	m, ok = Parse("multipart/mixed; boundary=\"ab\";;")
	assert.True(t, ok)
	assert.Equal(t, "multipart/mixed", m.String())

	_, ok = Parse("")
	assert.False(t, ok)
}

func TestMatches(t *testing.T) {
	tests := []struct {
		pattern     string
		contentType string
		want        bool
	}{
		{"text/plain", "text/plain", true},
		{"text/plain", "text/plain; charset=utf-8", true},
		{"text/*", "text/html", true},
		{"text/html", "text/*", true},
		{"text/*", "application/json", false},
		{"application/json", "application/xml", false},
		{"*/*", "image/png", true},
		{"application/json", "APPLICATION/JSON", true},
		{"", "text/plain", false},
		{"text/plain", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.pattern, tt.contentType))
		})
	}
}

func TestCharsetAndBase(t *testing.T) {
	assert.Equal(t, "ISO-8859-1", Charset("text/plain; charset=ISO-8859-1"))
	assert.Equal(t, "", Charset("text/plain"))
	assert.Equal(t, "application/json", Base("application/json; charset=utf-8"))
}

func TestIsTextual(t *testing.T) {
	assert.True(t, IsTextual("text/csv"))
	assert.True(t, IsTextual("application/json"))
	assert.True(t, IsTextual("application/vnd.api+json"))
	assert.True(t, IsTextual("application/soap+xml"))
	assert.False(t, IsTextual("image/png"))
	assert.False(t, IsTextual("application/octet-stream"))
}
