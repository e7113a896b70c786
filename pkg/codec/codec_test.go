package codec

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func constDecoder(v any) DecoderFunc {
	return func([]byte, *DecodingContext) (any, error) { return v, nil }
}

func constEncoder(s string) EncoderFunc {
	return func(any, string) ([]byte, error) { return []byte(s), nil }
}

func decodeWith(t *testing.T, fn DecoderFunc) any {
	t.Helper()
	require.NotNil(t, fn)
	v, err := fn(nil, nil)
	require.NoError(t, err)
	return v
}

func encodeWith(t *testing.T, fn EncoderFunc) string {
	t.Helper()
	require.NotNil(t, fn)
	b, err := fn(nil, "")
	require.NoError(t, err)
	return string(b)
}

func TestDecoders_RegisterReplacesIdenticalPattern(t *testing.T) {
	d := NewDecoders().
		Register("text/plain", constDecoder("first")).
		Register("text/plain", constDecoder("second"))

	assert.Equal(t, 1, d.Len())
	assert.Equal(t, "second", decodeWith(t, d.Find("text/plain")))
}

func TestDecoders_FindPrefersExactPattern(t *testing.T) {
	d := NewDecoders().
		Register("text/*", constDecoder("wildcard")).
		Register("text/plain", constDecoder("exact"))

	assert.Equal(t, "exact", decodeWith(t, d.Find("text/plain; charset=utf-8")))
	assert.Equal(t, "wildcard", decodeWith(t, d.Find("text/html")))
	assert.Nil(t, d.Find("application/json"))
}

func TestDecoders_FindFirstOfSeveralWildcards(t *testing.T) {
	d := NewDecoders().
		Register("*/*", constDecoder("any")).
		Register("text/*", constDecoder("text"))

	assert.Equal(t, "any", decodeWith(t, d.Find("text/csv")))
}

func TestEncoders_ExactContentTypeBeatsWildcard(t *testing.T) {
	stringType := reflect.TypeFor[string]()
	e := NewEncoders().
		Register("text/*", stringType, constEncoder("wildcard")).
		Register("text/plain", stringType, constEncoder("exact"))

	assert.Equal(t, "exact", encodeWith(t, e.Find("text/plain", stringType)))
	assert.Equal(t, "wildcard", encodeWith(t, e.Find("text/html", stringType)))
}

func TestEncoders_MostSpecificTypeWins(t *testing.T) {
	e := NewEncoders().
		Register("application/json", nil, constEncoder("any")).
		Register("*/*", reflect.TypeFor[io.Reader](), constEncoder("reader")).
		Register("*/*", reflect.TypeFor[*strings.Reader](), constEncoder("strings-reader"))

	assert.Equal(t, "strings-reader", encodeWith(t, e.Find("application/json", reflect.TypeFor[*strings.Reader]())))
	assert.Equal(t, "reader", encodeWith(t, e.Find("application/json", reflect.TypeFor[*os.File]())))
	assert.Equal(t, "any", encodeWith(t, e.Find("application/json", reflect.TypeFor[int]())))
	assert.Nil(t, e.Find("text/plain", reflect.TypeFor[int]()))
}

func TestEncoders_RegisterAppendsAndReplaces(t *testing.T) {
	stringType := reflect.TypeFor[string]()
	e := NewEncoders().
		Register("text/plain", stringType, constEncoder("a")).
		Register("text/plain", nil, constEncoder("b")).
		Register("text/plain", stringType, constEncoder("c"))

	assert.Equal(t, 2, e.Len())
	assert.Equal(t, "c", encodeWith(t, e.Find("text/plain", stringType)))
}

func TestEncoders_Merge(t *testing.T) {
	stringType := reflect.TypeFor[string]()
	base := NewEncoders().Register("text/plain", stringType, constEncoder("base"))
	extra := NewEncoders().
		Register("text/plain", stringType, constEncoder("override")).
		Register("application/json", nil, constEncoder("json"))

	base.Merge(extra)

	assert.Equal(t, 2, base.Len())
	assert.Equal(t, "override", encodeWith(t, base.Find("text/plain", stringType)))
}

func TestDecoderChain_ScopedBeforeGlobal(t *testing.T) {
	global := NewDecoders().
		Register("application/json", constDecoder("global")).
		Register("text/plain", constDecoder("global-text"))
	scoped := NewDecoders().Register("application/json", constDecoder("scoped"))

	chain := NewDecoderChain(scoped, nil, global)

	assert.Equal(t, "scoped", decodeWith(t, chain.Resolve("application/json")))
	assert.Equal(t, "global-text", decodeWith(t, chain.Resolve("text/plain")))
	assert.Nil(t, chain.Resolve("image/png"))
}

func TestDecoderChain_DecodeUnsupported(t *testing.T) {
	chain := NewDecoderChain(NewDecoders())

	_, err := chain.Decode([]byte("x"), &DecodingContext{ContentType: "image/png"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedContentType))
	assert.Contains(t, err.Error(), "image/png")
}

func TestDecoderChain_DecodeSetsChain(t *testing.T) {
	var seen *DecoderChain
	d := NewDecoders().Register("text/plain", func(_ []byte, dc *DecodingContext) (any, error) {
		seen = dc.Chain
		return nil, nil
	})
	chain := NewDecoderChain(d)

	_, err := chain.Decode(nil, &DecodingContext{ContentType: "text/plain"})
	require.NoError(t, err)
	assert.Same(t, chain, seen)
}

func TestEncoderChain_Encode(t *testing.T) {
	chain := NewEncoderChain(NewEncoders(), DefaultEncoders())

	out, err := chain.Encode("application/json", map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(out))

	out, err = chain.Encode("application/json", `{"raw":true}`)
	require.NoError(t, err)
	assert.Equal(t, `{"raw":true}`, string(out))

	_, err = NewEncoderChain(NewEncoders()).Encode("image/png", 42)
	var unsupported *UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "image/png", unsupported.ContentType)
	assert.Contains(t, err.Error(), "int")
}

func TestBuiltinDecoders(t *testing.T) {
	chain := NewDecoderChain(DefaultDecoders())

	tests := []struct {
		name        string
		contentType string
		content     string
		check       func(t *testing.T, v any)
	}{
		{
			name:        "json",
			contentType: "application/json",
			content:     `{"name":"alice","tags":["a"]}`,
			check: func(t *testing.T, v any) {
				assert.Equal(t, map[string]any{"name": "alice", "tags": []any{"a"}}, v)
			},
		},
		{
			name:        "yaml",
			contentType: "application/yaml",
			content:     "name: bob\nage: 3\n",
			check: func(t *testing.T, v any) {
				assert.Equal(t, map[string]any{"name": "bob", "age": 3}, v)
			},
		},
		{
			name:        "form",
			contentType: "application/x-www-form-urlencoded",
			content:     "a=1&a=2&b=",
			check: func(t *testing.T, v any) {
				assert.Equal(t, url.Values{"a": {"1", "2"}, "b": {""}}, v)
			},
		},
		{
			name:        "xml",
			contentType: "application/xml",
			content:     `<user><name>carol</name></user>`,
			check: func(t *testing.T, v any) {
				doc, ok := v.(*etree.Document)
				require.True(t, ok)
				assert.Equal(t, "carol", doc.FindElement("//name").Text())
			},
		},
		{
			name:        "text",
			contentType: "text/csv",
			content:     "a,b",
			check: func(t *testing.T, v any) {
				assert.Equal(t, "a,b", v)
			},
		},
		{
			name:        "octet",
			contentType: "application/octet-stream",
			content:     "\x00\x01",
			check: func(t *testing.T, v any) {
				assert.Equal(t, []byte{0, 1}, v)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := chain.Decode([]byte(tt.content), &DecodingContext{ContentType: tt.contentType})
			require.NoError(t, err)
			tt.check(t, v)
		})
	}
}

func TestStringDecoder_Charset(t *testing.T) {
	v, err := StringDecoder([]byte{'c', 'a', 'f', 0xE9}, &DecodingContext{ContentType: "text/plain; charset=ISO-8859-1"})
	require.NoError(t, err)
	assert.Equal(t, "café", v)

	v, err = CharsetDecoder("utf-8")([]byte("café"), nil)
	require.NoError(t, err)
	assert.Equal(t, "café", v)

	_, err = CharsetDecoder("no-such-charset")([]byte("x"), nil)
	assert.Error(t, err)
}

func TestTextEncoder_Charset(t *testing.T) {
	out, err := TextEncoder("café", "text/plain; charset=ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xE9}, out)

	out, err = TextEncoder(42, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "42", string(out))
}

func TestXMLEncoder(t *testing.T) {
	doc := etree.NewDocument()
	doc.CreateElement("ok").SetText("yes")

	out, err := XMLEncoder(doc, "application/xml")
	require.NoError(t, err)
	assert.Equal(t, "<ok>yes</ok>", string(out))

	out, err = XMLEncoder(doc.Root(), "application/xml")
	require.NoError(t, err)
	assert.Equal(t, "<ok>yes</ok>", string(out))
}

func TestBase64AndBytesEncoders(t *testing.T) {
	out, err := Base64Encoder([]byte("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", string(out))

	_, err = Base64Encoder("hello", "text/plain")
	assert.Error(t, err)

	out, err = BytesEncoder([]byte{1, 2}, "")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, out)
}

func TestContentEncoder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "body.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))

	out, err := ContentEncoder(File(path), "")
	require.NoError(t, err)
	assert.Equal(t, "from file", string(out))

	out, err = ContentEncoder(FSFile{FS: fstest.MapFS{"a.txt": {Data: []byte("from fs")}}, Name: "a.txt"}, "")
	require.NoError(t, err)
	assert.Equal(t, "from fs", string(out))

	out, err = ContentEncoder(strings.NewReader("from reader"), "")
	require.NoError(t, err)
	assert.Equal(t, "from reader", string(out))

	chain := NewEncoderChain(DefaultEncoders())
	out, err = chain.Encode("image/png", File(path))
	require.NoError(t, err)
	assert.Equal(t, "from file", string(out))
}

func TestProtobufCodec(t *testing.T) {
	chain := NewEncoderChain(DefaultEncoders())
	msg := wrapperspb.String("hello")

	out, err := chain.Encode("application/x-protobuf", msg)
	require.NoError(t, err)

	decoded, err := ProtobufDecoder(func() proto.Message { return &wrapperspb.StringValue{} })(out, nil)
	require.NoError(t, err)
	assert.True(t, proto.Equal(msg, decoded.(proto.Message)))
}
