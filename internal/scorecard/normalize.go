package scorecard

import (
	"strings"
	"time"

	"github.com/BearBump/ScoreBox/internal/models"
)

// SourceTimeLayout is the otp_reports string format for window and actual times.
const SourceTimeLayout = "01/02/2006 15:04:05"

var fallbackLayouts = []string{
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006-01-02",
}

// ParseTimestamp converts a source time string. Empty or unparsable values
// return nil; they never fail the row.
func ParseTimestamp(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(SourceTimeLayout, s); err == nil {
		return &t
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Normalize turns source rows into shipment events: every time field is
// parsed and string flags become enums. Order is preserved.
func Normalize(raw []models.RawShipment) []models.ShipmentEvent {
	out := make([]models.ShipmentEvent, 0, len(raw))
	for _, r := range raw {
		e := models.ShipmentEvent{
			ID:           r.ID,
			OrderCode:    r.OrderCode,
			LoadID:       r.LoadID,
			CarrierName:  r.CarrierName,
			MainShipment: strings.EqualFold(strings.TrimSpace(r.MainShipment), "YES"),
			Pick: normalizeStop(r.PickLocationName, r.PickCity, r.PickState,
				r.PickWindowFrom, r.PickWindowTo, r.PickTimeArrived, r.PickTimeDeparted,
				r.PickStatus, r.PickupDelayCode),
			Drop: normalizeStop(r.DropLocationName, r.DropCity, r.DropState,
				r.DropWindowFrom, r.DropWindowTo, r.DropTimeArrived, r.DropTimeDeparted,
				r.DropStatus, r.DeliveryDelayCode),
			LoadStatus: models.ParseLoadStatus(r.LoadStatus),
			Tracking:   models.ParseTracking(r.IsTracking),
		}
		if e.Pick.WindowFrom != nil {
			e.Week = models.WeekOf(*e.Pick.WindowFrom)
		}
		out = append(out, e)
	}
	return out
}

func normalizeStop(location, city, state, from, to, arrived, departed, status, delayCode string) models.Stop {
	return models.Stop{
		LocationName:  location,
		City:          city,
		State:         state,
		WindowFromRaw: from,
		WindowToRaw:   to,
		ArrivedRaw:    arrived,
		DepartedRaw:   departed,
		WindowFrom:    ParseTimestamp(from),
		WindowTo:      ParseTimestamp(to),
		Arrived:       ParseTimestamp(arrived),
		Departed:      ParseTimestamp(departed),
		Status:        models.ParseStopStatus(status),
		DelayCode:     delayCode,
	}
}
