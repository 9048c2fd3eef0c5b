package scorecard

import (
	"slices"
	"strings"

	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type WeekMetrics struct {
	Week      models.WeekKey `json:"week"`
	Shipments int            `json:"shipments"`
	Routes    int            `json:"routes"`
	OTP       Percent        `json:"otpPct"`
	OTD       Percent        `json:"otdPct"`
	Tracking  Percent        `json:"trackingPct"`
}

// Scorecard is the per-carrier weekly metrics record.
type Scorecard struct {
	Carrier string        `json:"carrier"`
	Weeks   []WeekMetrics `json:"weeks"`
}

// Week returns the metrics of one week, if it was requested.
func (s *Scorecard) Week(k models.WeekKey) (WeekMetrics, bool) {
	for _, w := range s.Weeks {
		if w.Week == k {
			return w, true
		}
	}
	return WeekMetrics{}, false
}

// SelectCarrier returns the carrier's events within weeks, in input order.
// Carrier names compare case-insensitively.
func SelectCarrier(events []models.ShipmentEvent, carrier string, weeks []models.WeekKey) []models.ShipmentEvent {
	want := make(map[models.WeekKey]struct{}, len(weeks))
	for _, w := range weeks {
		want[w] = struct{}{}
	}
	return lo.Filter(events, func(e models.ShipmentEvent, _ int) bool {
		if _, ok := want[e.Week]; !ok {
			return false
		}
		return strings.EqualFold(e.CarrierName, carrier)
	})
}

// Carriers lists carrier display names present in weeks. Case variants of one
// name collapse to the first spelling seen; the result is sorted.
func Carriers(events []models.ShipmentEvent, weeks []models.WeekKey) []string {
	want := make(map[models.WeekKey]struct{}, len(weeks))
	for _, w := range weeks {
		want[w] = struct{}{}
	}
	names := make([]string, 0)
	for _, e := range events {
		if _, ok := want[e.Week]; !ok || strings.TrimSpace(e.CarrierName) == "" {
			continue
		}
		names = append(names, e.CarrierName)
	}
	names = lo.UniqBy(names, strings.ToLower)
	sortFold(names)
	return names
}

// AggregateWeekly computes the scorecard of one carrier for the given weeks,
// in the order given. The display name is the first matching row's spelling.
func AggregateWeekly(events []models.ShipmentEvent, carrier string, weeks []models.WeekKey) (*Scorecard, error) {
	if len(weeks) == 0 {
		return nil, ErrNoWeeks
	}
	rows := SelectCarrier(events, carrier, weeks)
	if len(rows) == 0 {
		return nil, errors.Wrapf(ErrCarrierNotFound, "%q in weeks %v", carrier, weeks)
	}

	sc := &Scorecard{
		Carrier: rows[0].CarrierName,
		Weeks:   make([]WeekMetrics, 0, len(weeks)),
	}
	for _, w := range weeks {
		sc.Weeks = append(sc.Weeks, weekMetrics(rows, w))
	}
	return sc, nil
}

func weekMetrics(rows []models.ShipmentEvent, week models.WeekKey) WeekMetrics {
	m := WeekMetrics{Week: week}
	routes := make(map[string]struct{})
	var otpOnTime, otpTotal int
	var otdOnTime, otdTotal int
	var tracked, trackTotal int

	for _, e := range rows {
		if e.Week != week {
			continue
		}
		if e.LoadStatus == models.LoadStatusCompleted && e.LoadID != "" {
			routes[e.LoadID] = struct{}{}
		}

		if e.KeepForDelivery && e.Drop.Succeeded() {
			m.Shipments++
			if e.OTD.Known() {
				otdTotal++
				if e.OTD == models.PunctualityOnTime {
					otdOnTime++
				}
			}
		}

		if e.KeepForPickup && e.Pick.Succeeded() {
			if e.OTP.Known() {
				otpTotal++
				if e.OTP == models.PunctualityOnTime {
					otpOnTime++
				}
			}
			if e.Tracking.Known() {
				trackTotal++
				if e.Tracking == models.TrackingEnabled {
					tracked++
				}
			}
		}
	}

	m.Routes = len(routes)
	m.OTP = Ratio(otpOnTime, otpTotal)
	m.OTD = Ratio(otdOnTime, otdTotal)
	m.Tracking = Ratio(tracked, trackTotal)
	return m
}

func sortFold(names []string) {
	slices.SortStableFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
}
