package request

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTTP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/users?active=true&tag=a&tag=b", strings.NewReader("name=alice&role="))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	r.Header.Add("X-Trace", "1")
	r.Header.Add("X-Trace", "2")
	r.AddCookie(&http.Cookie{Name: "session", Value: "abc"})

	cr, err := FromHTTP(r, 0)
	require.NoError(t, err)

	assert.Equal(t, MethodPost, cr.Method)
	assert.Equal(t, "/users", cr.Path)
	assert.Equal(t, "http", cr.Scheme)
	assert.Equal(t, "HTTP/1.1", cr.Protocol)
	assert.Equal(t, []string{"a", "b"}, cr.Query["tag"])
	assert.Equal(t, []string{"alice"}, cr.BodyParams["name"])
	assert.Equal(t, []string{""}, cr.BodyParams["role"])
	assert.Equal(t, []string{"1", "2"}, cr.HeaderValues("x-trace"))
	assert.Equal(t, "abc", cr.Cookies["session"].Value)
	assert.Equal(t, "UTF-8", cr.CharacterEncoding)
	assert.Equal(t, []byte("name=alice&role="), cr.Body)
	assert.Equal(t, int64(16), cr.ContentLength)
}

func TestFromHTTP_NoBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}

	cr, err := FromHTTP(r, 0)
	require.NoError(t, err)
	assert.Nil(t, cr.Body)
	assert.Equal(t, "https", cr.Scheme)
	assert.Empty(t, cr.BodyParams)
	assert.Empty(t, cr.Cookies)
}

func TestFromHTTP_BodyTooLarge(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))

	_, err := FromHTTP(r, 4)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestParseMethod(t *testing.T) {
	assert.Equal(t, MethodAny, ParseMethod("any"))
	assert.Equal(t, MethodAny, ParseMethod("*"))
	assert.Equal(t, MethodGet, ParseMethod("get"))
	assert.Equal(t, "ANY", MethodAny.String())
}

func TestMethodAccepts(t *testing.T) {
	assert.True(t, MethodGet.Accepts(MethodGet))
	assert.True(t, MethodAny.Accepts(MethodPost))
	assert.True(t, MethodPut.Accepts(MethodAny))
	assert.False(t, MethodGet.Accepts(MethodPost))
}

func TestCookie_HTTPCookie(t *testing.T) {
	c := Cookie{Value: "v", Domain: "example.com", Path: "/", MaxAge: 60, HTTPOnly: true, Secure: true}
	hc := c.HTTPCookie("id")

	assert.Equal(t, "id", hc.Name)
	assert.Equal(t, "v", hc.Value)
	assert.Equal(t, 60, hc.MaxAge)
	assert.True(t, hc.HttpOnly)
	assert.True(t, hc.Secure)
	assert.False(t, hc.Expires.IsZero())
}

func TestClientRequestString(t *testing.T) {
	cr := &ClientRequest{Method: MethodGet, Path: "/a", Query: map[string][]string{"x": {"1"}}}
	assert.Equal(t, "GET /a?x=1", cr.String())
}
