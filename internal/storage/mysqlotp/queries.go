package mysqlotp

import (
	"time"

	"github.com/BearBump/ScoreBox/internal/models"
	sq "github.com/Masterminds/squirrel"
)

// pickWindowFrom is stored as MM/DD/YYYY HH:MM:SS text.
const pickWindowStart = "STR_TO_DATE(pickWindowFrom, '%m/%d/%Y %H:%i:%s')"

const mysqlDateTime = "2006-01-02 15:04:05"

var shipmentColumns = []string{
	"id", "orderCode", "loadId", "carrierName", "mainShipment",
	"pickLocationName", "pickCity", "pickState",
	"pickWindowFrom", "pickWindowTo", "pickTimeArrived", "pickTimeDeparted",
	"pickStatus", "pickupDelayCode",
	"dropLocationName", "dropCity", "dropState",
	"dropWindowFrom", "dropWindowTo", "dropTimeArrived", "dropTimeDeparted",
	"dropStatus", "deliveryDelayCode",
	"loadStatus", "isTracking",
}

func sinceFloor(b sq.SelectBuilder, since time.Time) sq.SelectBuilder {
	if since.IsZero() {
		return b
	}
	return b.Where(sq.Expr(pickWindowStart+" >= ?", since.Format(mysqlDateTime)))
}

func shipmentsQuery(table string, f models.ShipmentFilter) (string, []any, error) {
	b := sq.Select(shipmentColumns...).From(table)
	b = sinceFloor(b, f.Since)
	if !f.AllCarriers() {
		b = b.Where(sq.Expr("LOWER(carrierName) = LOWER(?)", f.Carrier))
	}
	return b.OrderBy("id DESC").ToSql()
}

func carriersQuery(table string, since time.Time) (string, []any, error) {
	b := sq.Select("DISTINCT carrierName").
		From(table).
		Where(sq.NotEq{"carrierName": nil}).
		Where(sq.NotEq{"carrierName": ""})
	b = sinceFloor(b, since)
	return b.OrderBy("carrierName").ToSql()
}

func activeCarriersQuery(table string, since time.Time, minShipments int) (string, []any, error) {
	b := sq.Select("carrierName", "COUNT(*) AS shipment_count", "MAX("+pickWindowStart+") AS last_shipment").
		From(table).
		Where(sq.NotEq{"carrierName": nil}).
		Where(sq.NotEq{"carrierName": ""})
	b = sinceFloor(b, since)
	return b.GroupBy("carrierName").
		Having("COUNT(*) >= ?", minShipments).
		OrderBy("shipment_count DESC", "carrierName").
		ToSql()
}
