package models

import (
	"fmt"
	"strings"
	"time"
)

// AllCarriers is the carrier filter value that selects every carrier.
const AllCarriers = "ALL_CARRIERS"

// Raw status values as they arrive from otp_reports.
const (
	rawStopSucceeded   = "succeeded"
	rawStopFailed      = "failed"
	rawLoadCompleted   = "completed"
	rawTrackingEnabled = "YES"
)

// RawShipment is one otp_reports row as fetched from the source store.
// Time fields are kept as the source strings (MM/DD/YYYY HH:MM:SS).
type RawShipment struct {
	ID           int64
	OrderCode    string
	LoadID       string
	CarrierName  string
	MainShipment string

	PickLocationName string
	PickCity         string
	PickState        string
	PickWindowFrom   string
	PickWindowTo     string
	PickTimeArrived  string
	PickTimeDeparted string
	PickStatus       string
	PickupDelayCode  string

	DropLocationName  string
	DropCity          string
	DropState         string
	DropWindowFrom    string
	DropWindowTo      string
	DropTimeArrived   string
	DropTimeDeparted  string
	DropStatus        string
	DeliveryDelayCode string

	LoadStatus string
	// nil when the column is NULL.
	IsTracking *string
}

// ShipmentFilter selects rows from the source store.
type ShipmentFilter struct {
	// Carrier is matched case-insensitively. Empty, "*" and AllCarriers select everything.
	Carrier string
	// Since is the floor applied to the scheduled pickup window start.
	Since time.Time
}

func (f ShipmentFilter) AllCarriers() bool {
	return IsAllCarriers(f.Carrier)
}

func IsAllCarriers(carrier string) bool {
	c := strings.TrimSpace(carrier)
	return c == "" || c == "*" || strings.EqualFold(c, AllCarriers)
}

type StopStatus uint8

const (
	StopStatusOther StopStatus = iota
	StopStatusSucceeded
	StopStatusFailed
)

func ParseStopStatus(raw string) StopStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case rawStopSucceeded:
		return StopStatusSucceeded
	case rawStopFailed:
		return StopStatusFailed
	default:
		return StopStatusOther
	}
}

type LoadStatus uint8

const (
	LoadStatusOther LoadStatus = iota
	LoadStatusCompleted
)

func ParseLoadStatus(raw string) LoadStatus {
	if strings.EqualFold(strings.TrimSpace(raw), rawLoadCompleted) {
		return LoadStatusCompleted
	}
	return LoadStatusOther
}

// Tracking is the normalized isTracking flag. The source stores "YES" for
// tracked loads; any other non-NULL value means not tracked.
type Tracking uint8

const (
	TrackingUnknown Tracking = iota
	TrackingEnabled
	TrackingDisabled
)

func ParseTracking(raw *string) Tracking {
	if raw == nil {
		return TrackingUnknown
	}
	if strings.TrimSpace(*raw) == rawTrackingEnabled {
		return TrackingEnabled
	}
	return TrackingDisabled
}

func (t Tracking) Known() bool { return t != TrackingUnknown }

func (t Tracking) String() string {
	switch t {
	case TrackingEnabled:
		return "YES"
	case TrackingDisabled:
		return "NO"
	default:
		return ""
	}
}

// Punctuality is the OTP/OTD classification of one stop.
type Punctuality uint8

const (
	PunctualityUnknown Punctuality = iota
	PunctualityOnTime
	PunctualityLate
)

func (p Punctuality) Known() bool { return p != PunctualityUnknown }

func (p Punctuality) String() string {
	switch p {
	case PunctualityOnTime:
		return "On Time"
	case PunctualityLate:
		return "Late"
	default:
		return ""
	}
}

// Stop is one side (pickup or delivery) of a shipment event.
type Stop struct {
	LocationName string
	City         string
	State        string

	// Source strings, kept for display.
	WindowFromRaw string
	WindowToRaw   string
	ArrivedRaw    string
	DepartedRaw   string

	// nil when the source value is missing or unparsable.
	WindowFrom *time.Time
	WindowTo   *time.Time
	Arrived    *time.Time
	Departed   *time.Time

	Status    StopStatus
	DelayCode string
}

// ArrivalDate is the calendar date of the actual arrival, "" when unknown.
func (s Stop) ArrivalDate() string {
	if s.Arrived == nil {
		return ""
	}
	return s.Arrived.Format("2006-01-02")
}

func (s Stop) Succeeded() bool { return s.Status == StopStatusSucceeded }

// ShipmentEvent is a normalized row plus the fields derived while a report is built.
type ShipmentEvent struct {
	ID           int64
	OrderCode    string
	LoadID       string
	CarrierName  string
	MainShipment bool

	Pick Stop
	Drop Stop

	LoadStatus LoadStatus
	Tracking   Tracking

	OTP  Punctuality
	OTD  Punctuality
	Week WeekKey

	KeepForPickup   bool
	KeepForDelivery bool
}

// WeekKey is an ISO week qualified by its ISO year.
type WeekKey struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

func WeekOf(t time.Time) WeekKey {
	y, w := t.ISOWeek()
	return WeekKey{Year: y, Week: w}
}

func (k WeekKey) IsZero() bool { return k.Year == 0 && k.Week == 0 }

func (k WeekKey) String() string {
	return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
}

// Label is the short column label used in rendered reports.
func (k WeekKey) Label() string {
	return fmt.Sprintf("W%d", k.Week)
}

// Before orders week keys chronologically.
func (k WeekKey) Before(o WeekKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Week < o.Week
}

// CarrierActivity is one carrier's volume over a recent period.
type CarrierActivity struct {
	Name         string     `json:"name"`
	Shipments    int        `json:"shipments"`
	LastShipment *time.Time `json:"lastShipment,omitempty"`
}
