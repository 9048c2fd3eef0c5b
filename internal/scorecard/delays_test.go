package scorecard

import (
	"encoding/json"
	"testing"

	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lateRow(id int64, load, pickCode string) models.RawShipment {
	r := rawRow(id, load, "Acme")
	r.PickTimeArrived = "01/06/2025 10:15:00"
	r.PickupDelayCode = pickCode
	return r
}

func TestAnalyzeDelays(t *testing.T) {
	raw := []models.RawShipment{
		lateRow(1, "L1", "Weather"),
		lateRow(2, "L2", ""),
		lateRow(3, "L3", "Weather"),
		lateRow(4, "L4", "Shipper"),
		lateRow(5, "L5", ""),
		rawRow(6, "L6", "Acme"),
		rawRow(7, "L7", "Acme"),
		rawRow(8, "L8", "Acme"),
	}
	failed := rawRow(9, "L9", "Acme")
	failed.PickStatus = "Failed"
	failed.PickTimeArrived = "01/06/2025 11:00:00"
	raw = append(raw, failed)

	a, err := AnalyzeDelays(Prepare(raw).Events)
	require.NoError(t, err)

	pick := a.Pickup
	assert.Equal(t, 8, pick.TotalShipments)
	require.Len(t, pick.Codes, 3)
	// Weather and Carrier Failure tie at 2; Weather appears first after sorting by arrival
	assert.Equal(t, "Weather", pick.Codes[0].Code)
	assert.Equal(t, 2, pick.Codes[0].Count)
	assert.Equal(t, DefaultDelayCode, pick.Codes[1].Code)
	assert.Equal(t, "Shipper", pick.Codes[2].Code)
	assert.Equal(t, PercentValue(25), pick.Codes[0].PctOfTotal)
	assert.Equal(t, PercentValue(12.5), pick.Codes[2].PctOfTotal)

	assert.Equal(t, OnTimeBucket, pick.OnTime.Code)
	assert.Equal(t, 3, pick.OnTime.Count)
	assert.Equal(t, PercentValue(37.5), pick.OnTime.PctOfTotal)
	assert.Equal(t, pick.TotalShipments, pick.OnTime.Count+pick.Delayed())

	all := pick.WithOnTime()
	require.Len(t, all, 4)
	assert.Equal(t, OnTimeBucket, all[0].Code)

	require.Len(t, pick.Details, 5)
	d := pick.Details[0]
	assert.Equal(t, "ORD-L1", d.OrderCode)
	assert.Equal(t, "Weather", d.DelayCode)
	assert.Equal(t, "Dallas, TX > Austin, TX", d.Lane)
	assert.Equal(t, "01/06/2025 08:00:00 - 10:00:00", d.Window)
	assert.Equal(t, "01/06/2025 10:15:00", d.Arrived)
	assert.Equal(t, "01/06/2025 09:30:00", d.Departed)
	assert.Equal(t, "YES", d.Tracking)

	assert.Equal(t, 9, a.Delivery.TotalShipments)
	assert.Empty(t, a.Delivery.Codes)
	assert.Equal(t, 9, a.Delivery.OnTime.Count)
	assert.Equal(t, 9, a.TotalRoutes)
}

func TestAnalyzeDelays_Empty(t *testing.T) {
	a, err := AnalyzeDelays(nil)
	require.NoError(t, err)
	assert.Zero(t, a.Pickup.TotalShipments)
	assert.Zero(t, a.Pickup.OnTime.Count)
	assert.False(t, a.Pickup.OnTime.PctOfTotal.Valid())
	assert.Empty(t, a.Pickup.Details)
}

func TestAnalyzeDelays_OnTimeCodeCountsAsDelayed(t *testing.T) {
	// code present on an on-time stop still lands in the frequency table
	r := rawRow(1, "L1", "Acme")
	r.PickupDelayCode = "Customer"

	a, err := AnalyzeDelays(Prepare([]models.RawShipment{r}).Events)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Pickup.OnTime.Count)
	assert.Equal(t, 1, a.Pickup.Delayed())
}

func TestLaneMissingParts(t *testing.T) {
	e := models.ShipmentEvent{
		Pick: models.Stop{City: "Dallas"},
		Drop: models.Stop{State: "TX"},
	}
	assert.Equal(t, "Dallas,  > , TX", Lane(e))
}

func TestFormatWindow(t *testing.T) {
	assert.Equal(t, "01/05/2025 08:00:00 - 10:00:00",
		FormatWindow("01/05/2025 08:00:00", "01/05/2025 10:00:00"))
	assert.Equal(t, "01/05/2025 22:00:00 - 01/06/2025 02:00:00",
		FormatWindow("01/05/2025 22:00:00", "01/06/2025 02:00:00"))
	assert.Equal(t, " - 01/06/2025 02:00:00", FormatWindow("", "01/06/2025 02:00:00"))
}

func TestBuildReport_Deterministic(t *testing.T) {
	raw := []models.RawShipment{
		lateRow(3, "L1", ""),
		lateRow(1, "L1", "Weather"),
		rawRow(2, "L2", "Acme"),
		lateRow(4, "L4", "Shipper"),
	}
	weeks := []models.WeekKey{{Year: 2025, Week: 1}, w02}

	first, err := BuildReport(Prepare(raw).Events, "Acme", weeks)
	require.NoError(t, err)
	second, err := BuildReport(Prepare(raw).Events, "Acme", weeks)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Contains(t, string(a), `"otpPct":null`)
}
