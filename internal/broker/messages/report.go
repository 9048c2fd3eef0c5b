package messages

import (
	"time"

	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/BearBump/ScoreBox/internal/scorecard"
)

// ReportRequested asks the service to build a scorecard asynchronously.
type ReportRequested struct {
	RequestID   string    `json:"request_id" validate:"required"`
	Carrier     string    `json:"carrier" validate:"required,max=255"`
	Weeks       []string  `json:"weeks,omitempty" validate:"max=53,dive,required"`
	RequestedAt time.Time `json:"requested_at"`
}

type ReportGenerated struct {
	RequestID   string    `json:"request_id"`
	ReportID    string    `json:"report_id,omitempty"`
	Carrier     string    `json:"carrier"`
	GeneratedAt time.Time `json:"generated_at"`

	Weeks     []models.WeekKey         `json:"weeks,omitempty"`
	Scorecard *scorecard.Scorecard     `json:"scorecard,omitempty"`
	Delays    *scorecard.DelayAnalysis `json:"delays,omitempty"`

	Error *string `json:"error,omitempty"`
	// not_found | data_unavailable | invalid | internal
	ErrorKind string `json:"error_kind,omitempty"`
}
