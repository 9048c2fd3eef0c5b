package scorecard

import (
	"context"
	"strings"

	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/pkg/errors"
)

// Prepared is the output of the row-level stages.
type Prepared struct {
	Events             []models.ShipmentEvent
	PickupDuplicates   int
	DeliveryDuplicates int
	Imputed            Imputed
}

// Prepare runs normalization, classification, deduplication and delay-code
// imputation, in that order.
func Prepare(raw []models.RawShipment) Prepared {
	events := Classify(Normalize(raw))
	events = Deduplicate(events)
	events, imputed := ImputeDelayCodes(events)
	pick, drop := DuplicateCounts(events)
	return Prepared{
		Events:             events,
		PickupDuplicates:   pick,
		DeliveryDuplicates: drop,
		Imputed:            imputed,
	}
}

// Report is everything a renderer needs for one carrier.
type Report struct {
	Carrier   string           `json:"carrier"`
	Weeks     []models.WeekKey `json:"weeks"`
	Scorecard *Scorecard       `json:"scorecard"`
	Delays    *DelayAnalysis   `json:"delays"`
}

// BuildReport aggregates prepared events for one carrier.
func BuildReport(events []models.ShipmentEvent, carrier string, weeks []models.WeekKey) (*Report, error) {
	if strings.TrimSpace(carrier) == "" || models.IsAllCarriers(carrier) {
		return nil, errors.New("carrier is required")
	}
	sc, err := AggregateWeekly(events, carrier, weeks)
	if err != nil {
		return nil, err
	}
	delays, err := AnalyzeDelays(SelectCarrier(events, carrier, weeks))
	if err != nil {
		return nil, err
	}
	return &Report{
		Carrier:   sc.Carrier,
		Weeks:     append([]models.WeekKey(nil), weeks...),
		Scorecard: sc,
		Delays:    delays,
	}, nil
}

// BuildAll builds one report per carrier present in weeks, sorted by name.
func BuildAll(events []models.ShipmentEvent, weeks []models.WeekKey) ([]*Report, error) {
	if len(weeks) == 0 {
		return nil, ErrNoWeeks
	}
	names := Carriers(events, weeks)
	if len(names) == 0 {
		return nil, errors.Wrapf(ErrCarrierNotFound, "no carriers in weeks %v", weeks)
	}
	out := make([]*Report, 0, len(names))
	for _, name := range names {
		r, err := BuildReport(events, name, weeks)
		if err != nil {
			return nil, errors.Wrapf(err, "carrier %q", name)
		}
		out = append(out, r)
	}
	return out, nil
}

// Run is the whole batch transform over an already fetched row set. The
// context is checked once; stages are not interruptible.
func Run(ctx context.Context, raw []models.RawShipment, carrier string, weeks []models.WeekKey) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BuildReport(Prepare(raw).Events, carrier, weeks)
}
