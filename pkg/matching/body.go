package matching

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/getmockd/ersatz/pkg/codec"
	"github.com/getmockd/ersatz/pkg/request"
)

// Body matches when the request content type starts with contentType and the
// body, decoded by the decoder chain resolves for contentType, satisfies m.
// A missing decoder or a decoding error is a non-match.
func Body(chain *codec.DecoderChain, contentType string, m Matcher[any]) Predicate {
	return Request(fmt.Sprintf("body (%s) %s", contentType, m), func(r *request.ClientRequest) bool {
		if !strings.HasPrefix(r.ContentType, contentType) {
			return false
		}
		decode := chain.Resolve(contentType)
		if decode == nil {
			return false
		}
		v, err := decode(r.Body, &codec.DecodingContext{
			ContentLength:     r.ContentLength,
			ContentType:       r.ContentType,
			CharacterEncoding: r.CharacterEncoding,
			Chain:             chain,
		})
		if err != nil {
			return false
		}
		return m.Match(v)
	})
}

// RawBody matches the undecoded body bytes.
func RawBody(m Matcher[[]byte]) Predicate {
	return Request("raw body "+m.String(), func(r *request.ClientRequest) bool {
		return m.Match(r.Body)
	})
}

// BytesEqual matches byte slices equal to want.
func BytesEqual(want []byte) Matcher[[]byte] {
	return Func(fmt.Sprintf("equal to %q", want), func(v []byte) bool {
		return bytes.Equal(v, want)
	})
}

// AsString lifts a string matcher to decoded body values. Strings match
// directly, byte slices are converted, and any other value is a non-match.
func AsString(m Matcher[string]) Matcher[any] {
	return Func(m.String(), func(v any) bool {
		switch t := v.(type) {
		case string:
			return m.Match(t)
		case []byte:
			return m.Match(string(t))
		default:
			return false
		}
	})
}
