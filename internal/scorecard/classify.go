package scorecard

import "github.com/BearBump/ScoreBox/internal/models"

// Classify sets OTP and OTD on a copy of the events. Arrival exactly at the
// window end is Late.
func Classify(events []models.ShipmentEvent) []models.ShipmentEvent {
	out := make([]models.ShipmentEvent, len(events))
	for i, e := range events {
		e.OTP = classifyStop(e.Pick)
		e.OTD = classifyStop(e.Drop)
		out[i] = e
	}
	return out
}

func classifyStop(s models.Stop) models.Punctuality {
	if s.Arrived == nil || s.WindowTo == nil {
		return models.PunctualityUnknown
	}
	if s.Arrived.Before(*s.WindowTo) {
		return models.PunctualityOnTime
	}
	return models.PunctualityLate
}
