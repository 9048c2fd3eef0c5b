package scorecard

import "github.com/BearBump/ScoreBox/internal/models"

// DefaultDelayCode is attributed to late stops that carry no delay code.
const DefaultDelayCode = "Carrier Failure"

type Imputed struct {
	Pickup   int
	Delivery int
}

// ImputeDelayCodes fills empty delay codes of Late stops with DefaultDelayCode.
// On Time and unknown stops are left untouched.
func ImputeDelayCodes(events []models.ShipmentEvent) ([]models.ShipmentEvent, Imputed) {
	var n Imputed
	out := make([]models.ShipmentEvent, len(events))
	for i, e := range events {
		if e.OTP == models.PunctualityLate && e.Pick.DelayCode == "" {
			e.Pick.DelayCode = DefaultDelayCode
			n.Pickup++
		}
		if e.OTD == models.PunctualityLate && e.Drop.DelayCode == "" {
			e.Drop.DelayCode = DefaultDelayCode
			n.Delivery++
		}
		out[i] = e
	}
	return out, n
}
