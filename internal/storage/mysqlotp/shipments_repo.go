package mysqlotp

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/pkg/errors"
)

// FetchShipments returns rows matching the filter, newest id first.
func (s *Storage) FetchShipments(ctx context.Context, f models.ShipmentFilter) ([]models.RawShipment, error) {
	q, args, err := shipmentsQuery(s.table, f)
	if err != nil {
		return nil, errors.Wrap(err, "build shipments query")
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select shipments")
	}
	defer rows.Close()

	out := make([]models.RawShipment, 0, 1024)
	for rows.Next() {
		r, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate shipments")
	}
	return out, nil
}

func scanShipment(rows *sql.Rows) (models.RawShipment, error) {
	var r models.RawShipment
	var (
		orderCode, loadID, carrier, mainShipment                       sql.NullString
		pickLoc, pickCity, pickState                                   sql.NullString
		pickFrom, pickTo, pickArrived, pickDeparted, pickStatus, pickDC sql.NullString
		dropLoc, dropCity, dropState                                   sql.NullString
		dropFrom, dropTo, dropArrived, dropDeparted, dropStatus, dropDC sql.NullString
		loadStatus, isTracking                                         sql.NullString
	)
	if err := rows.Scan(
		&r.ID, &orderCode, &loadID, &carrier, &mainShipment,
		&pickLoc, &pickCity, &pickState,
		&pickFrom, &pickTo, &pickArrived, &pickDeparted,
		&pickStatus, &pickDC,
		&dropLoc, &dropCity, &dropState,
		&dropFrom, &dropTo, &dropArrived, &dropDeparted,
		&dropStatus, &dropDC,
		&loadStatus, &isTracking,
	); err != nil {
		return r, errors.Wrap(err, "scan shipment")
	}

	r.OrderCode = orderCode.String
	r.LoadID = loadID.String
	r.CarrierName = carrier.String
	r.MainShipment = mainShipment.String
	r.PickLocationName = pickLoc.String
	r.PickCity = pickCity.String
	r.PickState = pickState.String
	r.PickWindowFrom = pickFrom.String
	r.PickWindowTo = pickTo.String
	r.PickTimeArrived = pickArrived.String
	r.PickTimeDeparted = pickDeparted.String
	r.PickStatus = pickStatus.String
	r.PickupDelayCode = strings.TrimSpace(pickDC.String)
	r.DropLocationName = dropLoc.String
	r.DropCity = dropCity.String
	r.DropState = dropState.String
	r.DropWindowFrom = dropFrom.String
	r.DropWindowTo = dropTo.String
	r.DropTimeArrived = dropArrived.String
	r.DropTimeDeparted = dropDeparted.String
	r.DropStatus = dropStatus.String
	r.DeliveryDelayCode = strings.TrimSpace(dropDC.String)
	r.LoadStatus = loadStatus.String
	if isTracking.Valid {
		v := isTracking.String
		r.IsTracking = &v
	}
	return r, nil
}

// ListCarriers returns distinct non-empty carrier names with shipments since the floor.
func (s *Storage) ListCarriers(ctx context.Context, since time.Time) ([]string, error) {
	q, args, err := carriersQuery(s.table, since)
	if err != nil {
		return nil, errors.Wrap(err, "build carriers query")
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select carriers")
	}
	defer rows.Close()

	out := make([]string, 0, 64)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan carrier")
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate carriers")
	}
	return out, nil
}

// ActiveCarriers returns carriers with at least minShipments rows since the floor,
// busiest first.
func (s *Storage) ActiveCarriers(ctx context.Context, since time.Time, minShipments int) ([]models.CarrierActivity, error) {
	q, args, err := activeCarriersQuery(s.table, since, minShipments)
	if err != nil {
		return nil, errors.Wrap(err, "build active carriers query")
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select active carriers")
	}
	defer rows.Close()

	out := make([]models.CarrierActivity, 0, 64)
	for rows.Next() {
		var a models.CarrierActivity
		var last sql.NullString
		if err := rows.Scan(&a.Name, &a.Shipments, &last); err != nil {
			return nil, errors.Wrap(err, "scan active carrier")
		}
		if last.Valid {
			if t, err := time.Parse(mysqlDateTime, last.String); err == nil {
				a.LastShipment = &t
			}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate active carriers")
	}
	return out, nil
}
