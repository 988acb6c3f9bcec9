// Package save provides the save-game document model, the save/load events
// modules hook into, and stores for encoded saves
package save

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/rotisserie/eris"
)

// Document is a string-keyed map that remembers insertion order
// Nested maps decode as *Document
type Document struct {
	keys []string
	vals map[string]any
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{vals: make(map[string]any)}
}

// Set stores v under key; a new key goes to the end, an existing key keeps its place
func (d *Document) Set(key string, v any) {
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = v
}

// Get returns the raw value under key
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.vals[key]
	return v, ok
}

// Has reports whether key is present
func (d *Document) Has(key string) bool {
	_, ok := d.vals[key]
	return ok
}

// Delete removes key
func (d *Document) Delete(key string) {
	if _, ok := d.vals[key]; !ok {
		return
	}
	delete(d.vals, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of keys
func (d *Document) Len() int { return len(d.keys) }

// Sub returns the nested document under key, creating it when absent
// A non-document value under key is replaced
func (d *Document) Sub(key string) *Document {
	if v, ok := d.vals[key]; ok {
		if sub, ok := v.(*Document); ok {
			return sub
		}
	}
	sub := NewDocument()
	d.Set(key, sub)
	return sub
}

// TrySub returns the nested document under key without creating it
func (d *Document) TrySub(key string) (*Document, bool) {
	sub, ok := d.vals[key].(*Document)
	return sub, ok
}

// Read converts the value under key to T
// Values stored as T come back directly; decoded values are converted through CBOR
func Read[T any](d *Document, key string) (T, error) {
	var out T
	v, ok := d.vals[key]
	if !ok {
		return out, eris.Wrapf(ErrNotFound, "key %q", key)
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	data, err := cbor.Marshal(v)
	if err != nil {
		return out, eris.Wrapf(err, "key %q", key)
	}
	if err := decMode().Unmarshal(data, &out); err != nil {
		return out, eris.Wrapf(ErrMalformed, "key %q as %T: %v", key, out, err)
	}
	return out, nil
}

var (
	decOnce sync.Once
	dec     cbor.DecMode
)

// decMode decodes maps inside arrays as map[string]any
func decMode() cbor.DecMode {
	decOnce.Do(func() {
		var err error
		dec, err = cbor.DecOptions{
			DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		}.DecMode()
		if err != nil {
			panic(err)
		}
	})
	return dec
}

// MarshalCBOR encodes the document as a definite-length map in key order
func (d *Document) MarshalCBOR() ([]byte, error) {
	var buf bytes.Buffer
	writeHead(&buf, 5, uint64(len(d.keys)))
	for _, k := range d.keys {
		kb, err := cbor.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		vb, err := cbor.Marshal(d.vals[k])
		if err != nil {
			return nil, eris.Wrapf(err, "encode %q", k)
		}
		buf.Write(vb)
	}
	return buf.Bytes(), nil
}

// UnmarshalCBOR decodes a map, keeping key order and turning nested maps into documents
func (d *Document) UnmarshalCBOR(data []byte) error {
	rest, err := d.decode(data)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return eris.Wrap(ErrMalformed, "trailing bytes")
	}
	return nil
}

func (d *Document) decode(data []byte) ([]byte, error) {
	if d.vals == nil {
		d.vals = make(map[string]any)
	}
	d.keys = d.keys[:0]
	clear(d.vals)

	n, indefinite, rest, err := readMapHead(data)
	if err != nil {
		return nil, err
	}

	for i := uint64(0); indefinite || i < n; i++ {
		if indefinite {
			if len(rest) == 0 {
				return nil, eris.Wrap(ErrMalformed, "unterminated map")
			}
			if rest[0] == 0xff {
				rest = rest[1:]
				break
			}
		}

		var key string
		rest, err = cbor.UnmarshalFirst(rest, &key)
		if err != nil {
			return nil, eris.Wrapf(ErrMalformed, "key: %v", err)
		}

		if len(rest) > 0 && rest[0]>>5 == 5 {
			sub := NewDocument()
			rest, err = sub.decode(rest)
			if err != nil {
				return nil, err
			}
			d.Set(key, sub)
			continue
		}

		var v any
		rest, err = decMode().UnmarshalFirst(rest, &v)
		if err != nil {
			return nil, eris.Wrapf(ErrMalformed, "value %q: %v", key, err)
		}
		d.Set(key, v)
	}
	return rest, nil
}

// MarshalJSON encodes the document as a JSON object in key order
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(jsonSafe(d.vals[k]))
		if err != nil {
			return nil, eris.Wrapf(err, "encode %q", k)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonSafe rewrites decoded values JSON cannot encode, such as map[any]any
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				kb, _ := json.Marshal(k)
				ks = string(kb)
			}
			out[ks] = jsonSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonSafe(val)
		}
		return out
	}
	return v
}

// writeHead writes a CBOR major type header
func writeHead(buf *bytes.Buffer, major byte, n uint64) {
	m := major << 5
	switch {
	case n < 24:
		buf.WriteByte(m | byte(n))
	case n <= 0xff:
		buf.WriteByte(m | 24)
		buf.WriteByte(byte(n))
	case n <= 0xffff:
		buf.WriteByte(m | 25)
		buf.Write(binary.BigEndian.AppendUint16(nil, uint16(n)))
	case n <= 0xffffffff:
		buf.WriteByte(m | 26)
		buf.Write(binary.BigEndian.AppendUint32(nil, uint32(n)))
	default:
		buf.WriteByte(m | 27)
		buf.Write(binary.BigEndian.AppendUint64(nil, n))
	}
}

// readMapHead parses a CBOR map header
func readMapHead(data []byte) (n uint64, indefinite bool, rest []byte, err error) {
	if len(data) == 0 || data[0]>>5 != 5 {
		return 0, false, nil, eris.Wrap(ErrMalformed, "not a map")
	}
	info := data[0] & 0x1f
	data = data[1:]
	switch {
	case info < 24:
		return uint64(info), false, data, nil
	case info == 31:
		return 0, true, data, nil
	case info > 27:
		return 0, false, nil, eris.Wrap(ErrMalformed, "bad map length")
	}

	size := 1 << (info - 24)
	if len(data) < size {
		return 0, false, nil, eris.Wrap(ErrMalformed, "short map length")
	}
	switch size {
	case 1:
		n = uint64(data[0])
	case 2:
		n = uint64(binary.BigEndian.Uint16(data))
	case 4:
		n = uint64(binary.BigEndian.Uint32(data))
	case 8:
		n = binary.BigEndian.Uint64(data)
	}
	return n, false, data[size:], nil
}
