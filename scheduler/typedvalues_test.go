package scheduler

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	mesos "github.com/mesos/mesos-go/api/v0/mesosproto"
	"github.com/mesos/mesos-go/api/v0/mesosutil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScalarResource(t *testing.T) {
	name, value, err := DecodeResource(mesosutil.NewScalarResource("cpus", 4))
	require.NoError(t, err)
	assert.Equal(t, "cpus", name)
	assert.Equal(t, 4.0, value)
}

func TestDecodeRangesResource(t *testing.T) {
	resource := &mesos.Resource{
		Name: proto.String("ports"),
		Type: mesos.Value_RANGES.Enum(),
		Ranges: &mesos.Value_Ranges{
			Range: []*mesos.Value_Range{
				{Begin: proto.Uint64(31000), End: proto.Uint64(31999)},
				{Begin: proto.Uint64(40000), End: proto.Uint64(40010)},
			},
		},
	}
	name, value, err := DecodeResource(resource)
	require.NoError(t, err)
	assert.Equal(t, "ports", name)
	assert.Equal(t, []Range{
		{Begin: 31000, End: 31999},
		{Begin: 40000, End: 40010},
	}, value)
}

func TestDecodeSetResource(t *testing.T) {
	resource := &mesos.Resource{
		Name: proto.String("disks"),
		Type: mesos.Value_SET.Enum(),
		Set:  &mesos.Value_Set{Item: []string{"sda1", "sdb1"}},
	}
	name, value, err := DecodeResource(resource)
	require.NoError(t, err)
	assert.Equal(t, "disks", name)
	assert.Equal(t, []string{"sda1", "sdb1"}, value)
}

func TestDecodeTextAttribute(t *testing.T) {
	attribute := &mesos.Attribute{
		Name: proto.String("rack"),
		Type: mesos.Value_TEXT.Enum(),
		Text: &mesos.Value_Text{Value: proto.String("rack-12")},
	}
	name, value, err := DecodeAttribute(attribute)
	require.NoError(t, err)
	assert.Equal(t, "rack", name)
	assert.Equal(t, "rack-12", value)
}

func TestDecodeUnknownKind(t *testing.T) {
	resource := &mesos.Resource{
		Name: proto.String("weird"),
		Type: mesos.Value_Type(42).Enum(),
	}
	_, _, err := DecodeResource(resource)
	require.Error(t, err)
	assert.Equal(t, ErrUnknownValueKind, errors.Cause(err))
}

func TestDecodeTextResourceRejected(t *testing.T) {
	// Resources have no text payload; a TEXT-typed resource is a
	// protocol violation just like an unknown tag.
	resource := &mesos.Resource{
		Name: proto.String("label"),
		Type: mesos.Value_TEXT.Enum(),
	}
	_, _, err := DecodeResource(resource)
	require.Error(t, err)
	assert.Equal(t, ErrUnknownValueKind, errors.Cause(err))
}

func TestScalarRoundTrip(t *testing.T) {
	for _, want := range []float64{0, 0.1, 1, 256, 2048} {
		encoded := mesosutil.NewScalarResource("mem", want)
		_, got, err := DecodeResource(encoded)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
