package codec

import (
	"reflect"
	"strings"
	"sync"

	"github.com/getmockd/ersatz/pkg/mimetype"
)

// EncoderFunc serializes v for the given content type.
type EncoderFunc func(v any, contentType string) ([]byte, error)

var anyType = reflect.TypeFor[any]()

type encoderEntry struct {
	pattern string
	typ     reflect.Type
	fn      EncoderFunc
}

// Encoders is an ordered registry of (content-type pattern, Go type) to
// EncoderFunc. It is safe for concurrent use.
type Encoders struct {
	mu      sync.RWMutex
	entries []encoderEntry
}

// NewEncoders returns an empty registry.
func NewEncoders() *Encoders {
	return &Encoders{}
}

// Register maps pattern and typ to fn. A nil typ means any value. An entry
// with the identical pattern and type is replaced; otherwise fn is appended.
func (e *Encoders) Register(pattern string, typ reflect.Type, fn EncoderFunc) *Encoders {
	if typ == nil {
		typ = anyType
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.entries {
		if e.entries[i].pattern == pattern && e.entries[i].typ == typ {
			e.entries[i].fn = fn
			return e
		}
	}
	e.entries = append(e.entries, encoderEntry{pattern: pattern, typ: typ, fn: fn})
	return e
}

// typeRank scores how specifically entry covers typ: 0 identical, 1
// assignable (interfaces), 2 the empty interface, -1 not applicable.
func typeRank(entry, typ reflect.Type) int {
	switch {
	case entry == anyType:
		return 2
	case typ == nil:
		return -1
	case entry == typ:
		return 0
	case typ.AssignableTo(entry):
		return 1
	default:
		return -1
	}
}

// Find returns the encoder for contentType and typ, or nil. Candidates whose
// pattern matches the content type and whose type accepts typ are ranked by
// type specificity, then by exact pattern equality over wildcard matches,
// then by registration order.
func (e *Encoders) Find(contentType string, typ reflect.Type) EncoderFunc {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	base := mimetype.Base(contentType)
	var (
		best      EncoderFunc
		bestScore = -1
	)
	for _, entry := range e.entries {
		if !mimetype.Matches(entry.pattern, contentType) {
			continue
		}
		rank := typeRank(entry.typ, typ)
		if rank < 0 {
			continue
		}
		score := rank * 2
		if !strings.EqualFold(entry.pattern, base) {
			score++
		}
		if best == nil || score < bestScore {
			best, bestScore = entry.fn, score
		}
	}
	return best
}

// Len returns the number of registered entries.
func (e *Encoders) Len() int {
	if e == nil {
		return 0
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}

// Merge registers every entry of other into e, replacing identical
// (pattern, type) pairs.
func (e *Encoders) Merge(other *Encoders) *Encoders {
	if other == nil || other == e {
		return e
	}
	other.mu.RLock()
	entries := append([]encoderEntry(nil), other.entries...)
	other.mu.RUnlock()

	for _, entry := range entries {
		e.Register(entry.pattern, entry.typ, entry.fn)
	}
	return e
}

// EncoderChain resolves encoders from an ordered list of registries.
type EncoderChain struct {
	registries []*Encoders
}

// NewEncoderChain builds a chain consulting registries in order. Nil
// registries are skipped.
func NewEncoderChain(registries ...*Encoders) *EncoderChain {
	c := &EncoderChain{}
	for _, r := range registries {
		if r != nil {
			c.registries = append(c.registries, r)
		}
	}
	return c
}

// Resolve returns the first encoder any registry yields.
func (c *EncoderChain) Resolve(contentType string, typ reflect.Type) EncoderFunc {
	if c == nil {
		return nil
	}
	for _, r := range c.registries {
		if fn := r.Find(contentType, typ); fn != nil {
			return fn
		}
	}
	return nil
}

// Encode resolves an encoder for contentType and the dynamic type of v and
// applies it. It returns an *UnsupportedError when nothing matches.
func (c *EncoderChain) Encode(contentType string, v any) ([]byte, error) {
	typ := reflect.TypeOf(v)
	fn := c.Resolve(contentType, typ)
	if fn == nil {
		return nil, &UnsupportedError{ContentType: contentType, Type: typOrAny(typ)}
	}
	return fn(v, contentType)
}

func typOrAny(t reflect.Type) reflect.Type {
	if t == nil {
		return anyType
	}
	return t
}
