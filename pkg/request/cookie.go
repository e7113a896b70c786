package request

import (
	"net/http"
	"time"
)

// Cookie is a cookie record as seen on a request or set on a response.
type Cookie struct {
	Value    string `json:"value" yaml:"value"`
	Domain   string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Comment  string `json:"comment,omitempty" yaml:"comment,omitempty"`
	Version  int    `json:"version,omitempty" yaml:"version,omitempty"`
	MaxAge   int    `json:"maxAge,omitempty" yaml:"maxAge,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty" yaml:"httpOnly,omitempty"`
	Secure   bool   `json:"secure,omitempty" yaml:"secure,omitempty"`
}

// HTTPCookie converts c to a net/http cookie named name. The comment and
// version attributes have no Set-Cookie representation and are dropped.
func (c Cookie) HTTPCookie(name string) *http.Cookie {
	hc := &http.Cookie{
		Name:     name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
	}
	if c.MaxAge > 0 {
		hc.MaxAge = c.MaxAge
		hc.Expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
	}
	return hc
}
