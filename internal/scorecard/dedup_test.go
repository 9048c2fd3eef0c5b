package scorecard

import (
	"testing"

	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicate_EarliestArrivalWins(t *testing.T) {
	late := rawRow(1, "L1", "Acme")
	late.PickTimeArrived = "01/06/2025 08:05:00"
	late.PickupDelayCode = "Weather"

	early := rawRow(2, "L1", "ACME")
	early.PickTimeArrived = "01/06/2025 08:00:00"

	unknown := rawRow(3, "L1", "Acme")
	unknown.PickTimeArrived = ""

	events := Deduplicate(Classify(Normalize([]models.RawShipment{unknown, late, early})))
	require.Len(t, events, 3)

	assert.Equal(t, int64(2), events[0].ID)
	assert.True(t, events[0].KeepForPickup)
	assert.Equal(t, int64(1), events[1].ID)
	assert.False(t, events[1].KeepForPickup)

	// unknown arrival sorts last and is keyed on its own empty date
	assert.Equal(t, int64(3), events[2].ID)
	assert.True(t, events[2].KeepForPickup)

	pick, drop := DuplicateCounts(events)
	assert.Equal(t, 1, pick)
	assert.Equal(t, 2, drop)
}

func TestDeduplicate_ExactlyOneCanonicalPerKey(t *testing.T) {
	var raw []models.RawShipment
	arrivals := []string{"09:40:00", "09:10:00", "09:10:00", "09:55:00"}
	for i, a := range arrivals {
		r := rawRow(int64(i+1), "L9", "Acme")
		r.PickTimeArrived = "01/06/2025 " + a
		raw = append(raw, r)
	}
	other := rawRow(10, "L9", "Acme")
	other.PickLocationName = "Plant Z"
	raw = append(raw, other)

	events := Deduplicate(Normalize(raw))

	kept := map[string][]int64{}
	for _, e := range events {
		if e.KeepForPickup {
			kept[e.Pick.LocationName] = append(kept[e.Pick.LocationName], e.ID)
		}
	}
	// tie at 09:10 goes to the earlier input row
	assert.Equal(t, []int64{2}, kept["Plant A"])
	assert.Equal(t, []int64{10}, kept["Plant Z"])
}

func TestDeduplicate_DoesNotMutateInput(t *testing.T) {
	in := Normalize([]models.RawShipment{rawRow(2, "L1", "Acme"), rawRow(1, "L1", "Acme")})
	_ = Deduplicate(in)
	assert.False(t, in[0].KeepForPickup)
	assert.Equal(t, int64(2), in[0].ID)
}

func TestImputeDelayCodes(t *testing.T) {
	late := rawRow(1, "L1", "Acme")
	late.PickTimeArrived = "01/06/2025 11:00:00"
	late.DropTimeArrived = "01/07/2025 15:00:00"
	late.DeliveryDelayCode = "Traffic"

	onTime := rawRow(2, "L2", "Acme")

	unknown := rawRow(3, "L3", "Acme")
	unknown.PickTimeArrived = ""

	events, n := ImputeDelayCodes(Classify(Normalize([]models.RawShipment{late, onTime, unknown})))

	assert.Equal(t, DefaultDelayCode, events[0].Pick.DelayCode)
	assert.Equal(t, "Traffic", events[0].Drop.DelayCode)
	assert.Empty(t, events[1].Pick.DelayCode)
	assert.Empty(t, events[2].Pick.DelayCode)
	assert.Equal(t, Imputed{Pickup: 1, Delivery: 0}, n)
}

func TestPrepare_DiscardedCodeDoesNotLeak(t *testing.T) {
	a := rawRow(1, "L1", "Acme")
	a.PickTimeArrived = "01/06/2025 08:05:00"
	a.PickWindowTo = "01/06/2025 08:00:00"
	a.PickupDelayCode = "Weather"

	b := rawRow(2, "L1", "Acme")
	b.PickTimeArrived = "01/06/2025 08:00:00"
	b.PickWindowTo = "01/06/2025 08:00:00"

	p := Prepare([]models.RawShipment{a, b})
	require.Len(t, p.Events, 2)

	canonical := p.Events[0]
	assert.Equal(t, int64(2), canonical.ID)
	assert.True(t, canonical.KeepForPickup)
	assert.Equal(t, models.PunctualityLate, canonical.OTP)
	assert.Equal(t, DefaultDelayCode, canonical.Pick.DelayCode)
	assert.Equal(t, 1, p.PickupDuplicates)

	analysis, err := AnalyzeDelays(p.Events)
	require.NoError(t, err)
	require.Len(t, analysis.Pickup.Codes, 1)
	assert.Equal(t, DefaultDelayCode, analysis.Pickup.Codes[0].Code)
}
