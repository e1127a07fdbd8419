package scheduler

import (
	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	"github.com/pkg/errors"
)

// ErrUnknownValueKind indicates a resource or attribute carried a value
// type outside of SCALAR, RANGES, SET and TEXT. An offer containing such a
// value cannot be normalized and is dropped.
var ErrUnknownValueKind = errors.New("unknown value kind")

// Range is the JSON representation of a single Mesos value range, as the
// decision service expects it.
type Range struct {
	Begin uint64 `json:"begin"`
	End   uint64 `json:"end"`
}

// DecodeResource converts a Mesos resource into its name and a generic
// value suitable for JSON serialization.
func DecodeResource(r *mesos.Resource) (string, interface{}, error) {
	value, err := decodeValue(r.GetType(), r.GetScalar(), r.GetRanges(), r.GetSet(), nil)
	if err != nil {
		return "", nil, errors.WithMessagef(err, "resource %q", r.GetName())
	}
	return r.GetName(), value, nil
}

// DecodeAttribute converts a Mesos attribute into its name and a generic
// value suitable for JSON serialization.
func DecodeAttribute(a *mesos.Attribute) (string, interface{}, error) {
	value, err := decodeValue(a.GetType(), a.GetScalar(), a.GetRanges(), a.GetSet(), a.GetText())
	if err != nil {
		return "", nil, errors.WithMessagef(err, "attribute %q", a.GetName())
	}
	return a.GetName(), value, nil
}

// decodeValue maps the Mesos tagged union onto plain Go values: float64,
// []Range, []string or string. Resources never carry a text payload, so
// their callers pass a nil text.
func decodeValue(kind mesos.Value_Type, scalar *mesos.Value_Scalar, ranges *mesos.Value_Ranges, set *mesos.Value_Set, text *mesos.Value_Text) (interface{}, error) {
	switch kind {
	case mesos.Value_SCALAR:
		return scalar.GetValue(), nil
	case mesos.Value_RANGES:
		decoded := make([]Range, 0, len(ranges.GetRange()))
		for _, r := range ranges.GetRange() {
			decoded = append(decoded, Range{Begin: r.GetBegin(), End: r.GetEnd()})
		}
		return decoded, nil
	case mesos.Value_SET:
		return set.GetItem(), nil
	case mesos.Value_TEXT:
		if text == nil {
			return nil, errors.Wrap(ErrUnknownValueKind, "text value on a non-attribute field")
		}
		return text.GetValue(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownValueKind, "type %s", kind.String())
	}
}
