package codec

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnsupportedContentType indicates that no codec is registered for a
// content type (and object type, for encoders).
var ErrUnsupportedContentType = errors.New("unsupported content type")

// UnsupportedError names the content type and object type that could not be
// resolved. It wraps ErrUnsupportedContentType.
type UnsupportedError struct {
	ContentType string
	Type        reflect.Type
}

func (e *UnsupportedError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("no decoder found for content-type (%s)", e.ContentType)
	}
	return fmt.Sprintf("no encoder found for content-type (%s) and object type (%s)", e.ContentType, e.Type)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupportedContentType
}
