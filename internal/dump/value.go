package dump

import (
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/genproto/googleapis/type/latlng"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Kind tags the closed set of shapes a document field value can take once it
// has been translated out of the client library's native types.
type Kind int

const (
	KindPrimitive Kind = iota
	KindMap
	KindList
	KindTimestamp
	KindReference
	KindGeoPoint
	KindSentinel
	KindDatetime
	KindOpaque
)

// Value is the store-agnostic form of a document field. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Prim interface{}
	Map  map[string]Value
	List []Value
	Time time.Time
	Path string
	Lat  float64
	Lng  float64
	Raw  interface{}
}

// Translate converts a Firestore-native field value into a Value, recursing
// through maps and lists. This is the only place that knows about the client
// library's value types.
//
// The dispatch order matters: the wire timestamp type is checked before the
// server-timestamp sentinel because the two can be indistinguishable by type
// in some client versions. The sentinel check compares by equality rather
// than type, so an ordinary value that happens to compare equal to the
// sentinel would mis-render; that long-standing behavior is kept as is.
func Translate(v interface{}) Value {
	switch x := v.(type) {
	case *timestamppb.Timestamp:
		return Value{Kind: KindTimestamp, Time: x.AsTime()}
	case *firestore.DocumentRef:
		return Value{Kind: KindReference, Path: referencePath(x.Path)}
	case *latlng.LatLng:
		return Value{Kind: KindGeoPoint, Lat: x.GetLatitude(), Lng: x.GetLongitude()}
	}

	if v == firestore.ServerTimestamp {
		return Value{Kind: KindSentinel}
	}

	switch x := v.(type) {
	case time.Time:
		return Value{Kind: KindDatetime, Time: x}
	case map[string]interface{}:
		m := make(map[string]Value, len(x))
		for k, elem := range x {
			m[k] = Translate(elem)
		}
		return Value{Kind: KindMap, Map: m}
	case []interface{}:
		list := make([]Value, len(x))
		for i, elem := range x {
			list[i] = Translate(elem)
		}
		return Value{Kind: KindList, List: list}
	case nil, bool, string, int, int32, int64, float32, float64:
		return Value{Kind: KindPrimitive, Prim: x}
	default:
		return Value{Kind: KindOpaque, Raw: v}
	}
}

// referencePath strips the resource-name prefix the client library carries
// ("projects/<p>/databases/<d>/documents/") so references render relative to
// the document root.
func referencePath(full string) string {
	const marker = "/documents/"
	if i := strings.Index(full, marker); i >= 0 {
		return full[i+len(marker):]
	}
	return full
}
