package dump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

const sentinelLiteral = "firestore.SERVER_TIMESTAMP"

// Serializer renders translated document data as indented JSON. Warnings
// about values that defeat every rendering strategy go to diag, never to the
// primary output.
type Serializer struct {
	diag *log.Logger
}

// NewSerializer returns a Serializer whose fallback warnings go to diag.
func NewSerializer(diag *log.Logger) *Serializer {
	return &Serializer{diag: diag}
}

// MarshalDocument pretty-prints a document's field mapping with two-space
// indentation. Non-ASCII characters pass through unescaped.
func (s *Serializer) MarshalDocument(data map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Render(Translate(data))); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Render reduces a Value to something encoding/json can emit directly.
func (s *Serializer) Render(v Value) interface{} {
	switch v.Kind {
	case KindTimestamp:
		// UTC, millisecond precision, literal Z suffix.
		return v.Time.UTC().Format("2006-01-02T15:04:05.000") + "Z"
	case KindReference:
		return fmt.Sprintf("Reference(path='%s')", v.Path)
	case KindGeoPoint:
		return map[string]interface{}{"latitude": v.Lat, "longitude": v.Lng}
	case KindSentinel:
		return sentinelLiteral
	case KindDatetime:
		// Plain datetimes keep their zone and precision, unlike store
		// timestamps above.
		return v.Time.Format(time.RFC3339Nano)
	case KindMap:
		m := make(map[string]interface{}, len(v.Map))
		for k, elem := range v.Map {
			m[k] = s.Render(elem)
		}
		return m
	case KindList:
		list := make([]interface{}, len(v.List))
		for i, elem := range v.List {
			list[i] = s.Render(elem)
		}
		return list
	case KindOpaque:
		return s.renderOpaque(v.Raw)
	default:
		return v.Prim
	}
}

// renderOpaque is the last-resort path: let the generic encoder try, then the
// value's string form, then a placeholder.
func (s *Serializer) renderOpaque(raw interface{}) interface{} {
	if _, err := json.Marshal(raw); err == nil {
		return raw
	}
	if str, ok := stringify(raw); ok {
		return str
	}
	s.diag.Printf("Warning: Could not serialize object of type %T", raw)
	return fmt.Sprintf("Unserializable(%T)", raw)
}

func stringify(v interface{}) (str string, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fmt.Sprintf("%v", v), true
}
