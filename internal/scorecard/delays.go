package scorecard

import (
	"fmt"
	"slices"

	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/pkg/errors"
)

// OnTimeBucket is the code of the synthesized bucket of shipments without a delay code.
const OnTimeBucket = "On-Time"

type DelayBucket struct {
	Code       string  `json:"code"`
	Count      int     `json:"count"`
	PctOfTotal Percent `json:"pctOfTotal"`
}

// DelayDetail is the display projection of one delayed row.
type DelayDetail struct {
	OrderCode string `json:"orderCode"`
	DelayCode string `json:"delayCode"`
	Lane      string `json:"lane"`
	Departed  string `json:"departed"`
	Arrived   string `json:"arrived"`
	Window    string `json:"window"`
	Tracking  string `json:"tracking"`
}

// DelaySide is the delay-code analysis of one side (pickup or delivery).
type DelaySide struct {
	// canonical rows of this side with a Succeeded stop
	TotalShipments int           `json:"totalShipments"`
	Codes          []DelayBucket `json:"codes"`
	OnTime         DelayBucket   `json:"onTime"`
	Details        []DelayDetail `json:"details"`
}

// WithOnTime returns the On-Time bucket followed by the delay codes.
func (s DelaySide) WithOnTime() []DelayBucket {
	out := make([]DelayBucket, 0, len(s.Codes)+1)
	out = append(out, s.OnTime)
	return append(out, s.Codes...)
}

func (s DelaySide) Delayed() int {
	n := 0
	for _, c := range s.Codes {
		n += c.Count
	}
	return n
}

type DelayAnalysis struct {
	Pickup      DelaySide `json:"pickup"`
	Delivery    DelaySide `json:"delivery"`
	TotalRoutes int       `json:"totalRoutes"`
}

type side struct {
	name string
	keep func(models.ShipmentEvent) bool
	stop func(models.ShipmentEvent) models.Stop
}

var (
	pickupSide = side{
		name: "pickup",
		keep: func(e models.ShipmentEvent) bool { return e.KeepForPickup },
		stop: func(e models.ShipmentEvent) models.Stop { return e.Pick },
	}
	deliverySide = side{
		name: "delivery",
		keep: func(e models.ShipmentEvent) bool { return e.KeepForDelivery },
		stop: func(e models.ShipmentEvent) models.Stop { return e.Drop },
	}
)

// AnalyzeDelays builds the pickup and delivery delay-code analyses over
// deduplicated, imputed events (usually one carrier's target weeks).
func AnalyzeDelays(events []models.ShipmentEvent) (*DelayAnalysis, error) {
	pick, err := analyzeSide(events, pickupSide)
	if err != nil {
		return nil, err
	}
	drop, err := analyzeSide(events, deliverySide)
	if err != nil {
		return nil, err
	}

	routes := make(map[string]struct{})
	for _, e := range events {
		if e.LoadStatus == models.LoadStatusCompleted && e.LoadID != "" {
			routes[e.LoadID] = struct{}{}
		}
	}
	return &DelayAnalysis{Pickup: pick, Delivery: drop, TotalRoutes: len(routes)}, nil
}

func analyzeSide(events []models.ShipmentEvent, sd side) (DelaySide, error) {
	var out DelaySide
	counts := make(map[string]int)
	var order []string

	for _, e := range events {
		st := sd.stop(e)
		if !sd.keep(e) || !st.Succeeded() {
			continue
		}
		out.TotalShipments++
		if st.DelayCode == "" {
			continue
		}
		if _, ok := counts[st.DelayCode]; !ok {
			order = append(order, st.DelayCode)
		}
		counts[st.DelayCode]++
		out.Details = append(out.Details, detail(e, st))
	}

	delayed := 0
	out.Codes = make([]DelayBucket, 0, len(order))
	for _, code := range order {
		n := counts[code]
		delayed += n
		out.Codes = append(out.Codes, DelayBucket{
			Code:       code,
			Count:      n,
			PctOfTotal: RoundedRatio(n, out.TotalShipments),
		})
	}
	// ties keep first-seen order
	slices.SortStableFunc(out.Codes, func(a, b DelayBucket) int { return b.Count - a.Count })

	onTime := out.TotalShipments - delayed
	if onTime < 0 {
		return DelaySide{}, errors.Wrapf(ErrInvariantViolation,
			"%s on-time bucket is negative: %d shipments, %d delayed", sd.name, out.TotalShipments, delayed)
	}
	out.OnTime = DelayBucket{
		Code:       OnTimeBucket,
		Count:      onTime,
		PctOfTotal: RoundedRatio(onTime, out.TotalShipments),
	}
	return out, nil
}

func detail(e models.ShipmentEvent, st models.Stop) DelayDetail {
	return DelayDetail{
		OrderCode: e.OrderCode,
		DelayCode: st.DelayCode,
		Lane:      Lane(e),
		Departed:  st.DepartedRaw,
		Arrived:   st.ArrivedRaw,
		Window:    FormatWindow(st.WindowFromRaw, st.WindowToRaw),
		Tracking:  e.Tracking.String(),
	}
}

// Lane renders "PickCity, PickState > DropCity, DropState"; missing parts stay empty.
func Lane(e models.ShipmentEvent) string {
	return fmt.Sprintf("%s, %s > %s, %s", e.Pick.City, e.Pick.State, e.Drop.City, e.Drop.State)
}
