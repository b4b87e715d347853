package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/chargesense/internal/model"
)

func TestAllocateCustomerCharges_Scenario(t *testing.T) {
	segments := []model.Segment{
		{ID: "A", BookingCount: 2, TotalCharge: 250},
		{ID: "B", BookingCount: 3, TotalCharge: 270},
	}

	out := AllocateCustomerCharges(segments, 104)
	require.Len(t, out, 2)
	assert.Equal(t, 208.0, out[0].Predicted)
	assert.Equal(t, 312.0, out[1].Predicted)
	assert.Equal(t, 250.0, out[0].TotalCharge, "own total carried through")
}

func TestAllocateCustomerCharges_IgnoresOwnTotal(t *testing.T) {
	a := AllocateCustomerCharges([]model.Segment{{ID: "A", BookingCount: 2, TotalCharge: 1}}, 12.5)
	b := AllocateCustomerCharges([]model.Segment{{ID: "A", BookingCount: 2, TotalCharge: 9999}}, 12.5)
	assert.Equal(t, a[0].Predicted, b[0].Predicted)
}

func TestAllocateCustomerCharges_Rounding(t *testing.T) {
	out := AllocateCustomerCharges([]model.Segment{{ID: "A", BookingCount: 3}}, 10.0/3)
	assert.Equal(t, 10.0, out[0].Predicted)

	out = AllocateCustomerCharges([]model.Segment{{ID: "A", BookingCount: 1}}, 10.0/3)
	assert.Equal(t, 3.33, out[0].Predicted)
}

func TestAllocateCustomerCharges_ZeroAverage(t *testing.T) {
	out := AllocateCustomerCharges([]model.Segment{{ID: "A", BookingCount: 4}, {ID: "B", BookingCount: 0}}, 0)
	for _, s := range out {
		assert.Zero(t, s.Predicted)
	}
}

func TestTopStudents(t *testing.T) {
	students := make([]model.CustomerSegment, 12)
	for i := range students {
		students[i].BookingCount = i
	}
	top := TopStudents(students, 10)
	require.Len(t, top, 10)
	assert.Equal(t, 0, top[0].BookingCount, "keeps input order")
	assert.Len(t, TopStudents(students, 0), 12)
	assert.Len(t, TopStudents(students[:3], 10), 3)
}
