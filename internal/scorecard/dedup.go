package scorecard

import (
	"slices"
	"strings"
	"time"

	"github.com/BearBump/ScoreBox/internal/models"
)

// eventKey identifies one physical truck visit. Date is "" when the arrival
// is unknown, so all unknown-time rows of a load/location share one key.
type eventKey struct {
	loadID   string
	carrier  string
	location string
	date     string
}

func pickupKey(e models.ShipmentEvent) eventKey {
	return eventKey{
		loadID:   e.LoadID,
		carrier:  strings.ToLower(e.CarrierName),
		location: e.Pick.LocationName,
		date:     e.Pick.ArrivalDate(),
	}
}

func deliveryKey(e models.ShipmentEvent) eventKey {
	return eventKey{
		loadID:   e.LoadID,
		carrier:  strings.ToLower(e.CarrierName),
		location: e.Drop.LocationName,
		date:     e.Drop.ArrivalDate(),
	}
}

// Deduplicate returns the events sorted by (pickup arrival, delivery arrival)
// with unknown times last, and marks the first row of every pickup key and
// every delivery key as canonical. No row is removed.
func Deduplicate(events []models.ShipmentEvent) []models.ShipmentEvent {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b models.ShipmentEvent) int {
		if c := compareArrival(a.Pick.Arrived, b.Pick.Arrived); c != 0 {
			return c
		}
		return compareArrival(a.Drop.Arrived, b.Drop.Arrived)
	})

	seenPick := make(map[eventKey]struct{}, len(out))
	seenDrop := make(map[eventKey]struct{}, len(out))
	for i := range out {
		pk := pickupKey(out[i])
		_, dup := seenPick[pk]
		out[i].KeepForPickup = !dup
		seenPick[pk] = struct{}{}

		dk := deliveryKey(out[i])
		_, dup = seenDrop[dk]
		out[i].KeepForDelivery = !dup
		seenDrop[dk] = struct{}{}
	}
	return out
}

func compareArrival(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

// DuplicateCounts reports how many rows were marked non-canonical per side.
func DuplicateCounts(events []models.ShipmentEvent) (pickup, delivery int) {
	for _, e := range events {
		if !e.KeepForPickup {
			pickup++
		}
		if !e.KeepForDelivery {
			delivery++
		}
	}
	return pickup, delivery
}
