package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"reflect"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/htmlindex"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/ersatz/pkg/mimetype"
)

// File is a path whose contents become the response body.
type File string

// FSFile names a file inside an fs.FS whose contents become the response body.
type FSFile struct {
	FS   fs.FS
	Name string
}

// PassthroughDecoder returns the content bytes unchanged.
func PassthroughDecoder(content []byte, _ *DecodingContext) (any, error) {
	return content, nil
}

// UTF8Decoder returns the content as a string without transcoding.
func UTF8Decoder(content []byte, _ *DecodingContext) (any, error) {
	return string(content), nil
}

// StringDecoder returns the content as a string, transcoding from the
// character encoding of the decoding context when one is declared.
func StringDecoder(content []byte, dc *DecodingContext) (any, error) {
	charset := ""
	if dc != nil {
		charset = dc.CharacterEncoding
		if charset == "" {
			charset = mimetype.Charset(dc.ContentType)
		}
	}
	return decodeCharset(content, charset)
}

// CharsetDecoder returns a decoder that always transcodes from charset.
func CharsetDecoder(charset string) DecoderFunc {
	return func(content []byte, _ *DecodingContext) (any, error) {
		return decodeCharset(content, charset)
	}
}

func decodeCharset(content []byte, charset string) (string, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(content), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	out, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("decoding %s content: %w", charset, err)
	}
	return string(out), nil
}

// URLEncodedDecoder parses an application/x-www-form-urlencoded body into
// url.Values.
func URLEncodedDecoder(content []byte, _ *DecodingContext) (any, error) {
	values, err := url.ParseQuery(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing form body: %w", err)
	}
	return values, nil
}

// JSONDecoder unmarshals JSON into maps, slices and scalars.
func JSONDecoder(content []byte, _ *DecodingContext) (any, error) {
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("parsing JSON body: %w", err)
	}
	return v, nil
}

// YAMLDecoder unmarshals YAML into maps, slices and scalars.
func YAMLDecoder(content []byte, _ *DecodingContext) (any, error) {
	var v any
	if err := yaml.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("parsing YAML body: %w", err)
	}
	return v, nil
}

// XMLDecoder parses the body into an *etree.Document.
func XMLDecoder(content []byte, _ *DecodingContext) (any, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("parsing XML body: %w", err)
	}
	return doc, nil
}

// ProtobufDecoder returns a decoder unmarshalling into a fresh message from
// factory.
func ProtobufDecoder(factory func() proto.Message) DecoderFunc {
	return func(content []byte, _ *DecodingContext) (any, error) {
		msg := factory()
		if err := proto.Unmarshal(content, msg); err != nil {
			return nil, fmt.Errorf("parsing protobuf body: %w", err)
		}
		return msg, nil
	}
}

// TextEncoder renders strings, byte slices and fmt.Stringer values,
// transcoding to the charset of the content type when it is not UTF-8.
func TextEncoder(v any, contentType string) ([]byte, error) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(v)
	}

	charset := mimetype.Charset(contentType)
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return []byte(s), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	out, err := enc.NewEncoder().String(s)
	if err != nil {
		return nil, fmt.Errorf("encoding text as %s: %w", charset, err)
	}
	return []byte(out), nil
}

// JSONEncoder marshals v as JSON.
func JSONEncoder(v any, _ string) ([]byte, error) {
	return json.Marshal(v)
}

// YAMLEncoder marshals v as YAML.
func YAMLEncoder(v any, _ string) ([]byte, error) {
	return yaml.Marshal(v)
}

// XMLEncoder serializes etree documents and elements; other values go
// through encoding/xml.
func XMLEncoder(v any, _ string) ([]byte, error) {
	switch t := v.(type) {
	case *etree.Document:
		return t.WriteToBytes()
	case *etree.Element:
		doc := etree.NewDocument()
		doc.SetRoot(t.Copy())
		return doc.WriteToBytes()
	default:
		return xml.Marshal(v)
	}
}

// Base64Encoder renders a byte slice as standard base64 text.
func Base64Encoder(v any, _ string) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("base64 encoder: unsupported type %T", v)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(b)))
	base64.StdEncoding.Encode(out, b)
	return out, nil
}

// BytesEncoder returns a byte slice unchanged.
func BytesEncoder(v any, _ string) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("bytes encoder: unsupported type %T", v)
	}
	return b, nil
}

// ContentEncoder reads the body from an io.Reader, a File path or an
// FSFile.
func ContentEncoder(v any, _ string) ([]byte, error) {
	switch t := v.(type) {
	case File:
		return os.ReadFile(string(t))
	case FSFile:
		return fs.ReadFile(t.FS, t.Name)
	case io.Reader:
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(t); err != nil {
			return nil, fmt.Errorf("reading content: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("content encoder: unsupported type %T", v)
	}
}

// ProtobufEncoder marshals a proto.Message.
func ProtobufEncoder(v any, _ string) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("protobuf encoder: unsupported type %T", v)
	}
	return proto.Marshal(msg)
}

// DefaultDecoders returns a registry with the built-in decoders.
func DefaultDecoders() *Decoders {
	return NewDecoders().
		Register(mimetype.TextPlain, StringDecoder).
		Register("text/*", StringDecoder).
		Register(mimetype.ApplicationJSON, JSONDecoder).
		Register(mimetype.TextJSON, JSONDecoder).
		Register(mimetype.ApplicationYAML, YAMLDecoder).
		Register("application/x-yaml", YAMLDecoder).
		Register(mimetype.ApplicationXML, XMLDecoder).
		Register(mimetype.TextXML, XMLDecoder).
		Register(mimetype.ApplicationURLForm, URLEncodedDecoder).
		Register(mimetype.ApplicationOctet, PassthroughDecoder)
}

// DefaultEncoders returns a registry with the built-in encoders.
func DefaultEncoders() *Encoders {
	stringType := reflect.TypeFor[string]()
	return NewEncoders().
		Register("*/*", stringType, TextEncoder).
		Register("*/*", reflect.TypeFor[[]byte](), BytesEncoder).
		Register("*/*", reflect.TypeFor[io.Reader](), ContentEncoder).
		Register("*/*", reflect.TypeFor[File](), ContentEncoder).
		Register("*/*", reflect.TypeFor[FSFile](), ContentEncoder).
		Register(mimetype.ApplicationJSON, nil, JSONEncoder).
		Register(mimetype.TextJSON, nil, JSONEncoder).
		Register(mimetype.ApplicationYAML, nil, YAMLEncoder).
		Register(mimetype.ApplicationXML, nil, XMLEncoder).
		Register(mimetype.TextXML, nil, XMLEncoder).
		Register(mimetype.ApplicationProto, reflect.TypeFor[proto.Message](), ProtobufEncoder).
		Register("text/*", nil, TextEncoder)
}
