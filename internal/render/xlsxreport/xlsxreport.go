package xlsxreport

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BearBump/ScoreBox/internal/scorecard"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetSummary         = "Summary"
	SheetDeliveryCodes   = "Delivery Delay Codes"
	SheetPickupCodes     = "Pickup Delay Codes"
	SheetDeliveryDetails = "Delivery Delay Details"
	SheetPickupDetails   = "Pickup Delay Details"
)

var detailHeaders = []any{"Order Code", "Delay Code", "Lane", "Window", "Departed", "Arrived", "Tracking"}

var gradeColors = map[scorecard.Grade]string{
	scorecard.GradeMeetsTarget:   "C6EFCE",
	scorecard.GradeSlightlyBelow: "FFEB9C",
	scorecard.GradeConcerning:    "FFD8A8",
	scorecard.GradePoor:          "FFC7CE",
	scorecard.GradeCritical:      "FF8A8A",
}

// FileName is the download name of a carrier workbook.
func FileName(carrier string) string {
	name := strings.TrimSpace(carrier)
	name = strings.ReplaceAll(name, "&", "and")
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "_")
	return "carrier_report_" + name + ".xlsx"
}

type renderer struct {
	f       *excelize.File
	targets scorecard.Targets
	bold    int
	pct     int
	graded  map[scorecard.Grade]int
}

// Render builds the workbook of one report. The caller closes the file.
func Render(r *scorecard.Report, targets scorecard.Targets) (*excelize.File, error) {
	if r == nil || r.Scorecard == nil || r.Delays == nil {
		return nil, errors.New("report is incomplete")
	}
	f := excelize.NewFile()
	rr := &renderer{f: f, targets: targets, graded: make(map[scorecard.Grade]int)}
	if err := rr.styles(); err != nil {
		_ = f.Close()
		return nil, err
	}

	steps := []func() error{
		func() error { return rr.summary(r) },
		func() error { return rr.codes(SheetDeliveryCodes, "Delivery Delay Code", r.Delays.Delivery) },
		func() error { return rr.codes(SheetPickupCodes, "Pickup Delay Code", r.Delays.Pickup) },
		func() error { return rr.details(SheetDeliveryDetails, r.Delays.Delivery.Details) },
		func() error { return rr.details(SheetPickupDetails, r.Delays.Pickup.Details) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = f.Close()
			return nil, errors.Wrap(err, "render workbook")
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write renders the report straight into w.
func Write(w io.Writer, r *scorecard.Report, targets scorecard.Targets) error {
	f, err := Render(r, targets)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

// SaveFile writes the workbook into dir and returns its path.
func SaveFile(dir string, r *scorecard.Report, targets scorecard.Targets) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output dir")
	}
	f, err := Render(r, targets)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	path := filepath.Join(dir, FileName(r.Carrier))
	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrap(err, "save workbook")
	}
	return path, nil
}

func (rr *renderer) styles() error {
	var err error
	if rr.bold, err = rr.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return errors.Wrap(err, "bold style")
	}
	pctFmt := `0.0"%"`
	if rr.pct, err = rr.f.NewStyle(&excelize.Style{CustomNumFmt: &pctFmt}); err != nil {
		return errors.Wrap(err, "percent style")
	}
	for g, color := range gradeColors {
		id, err := rr.f.NewStyle(&excelize.Style{
			CustomNumFmt: &pctFmt,
			Fill:         excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return errors.Wrap(err, "grade style")
		}
		rr.graded[g] = id
	}
	return nil
}

func (rr *renderer) sheet(name string, first bool) error {
	if first {
		return rr.f.SetSheetName("Sheet1", name)
	}
	_, err := rr.f.NewSheet(name)
	return err
}

func (rr *renderer) header(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := rr.f.SetSheetRow(sheet, cell, &values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return rr.f.SetCellStyle(sheet, cell, last, rr.bold)
}

func (rr *renderer) summary(r *scorecard.Report) error {
	const sheet = SheetSummary
	if err := rr.sheet(sheet, true); err != nil {
		return err
	}
	if err := rr.f.SetSheetRow(sheet, "A1", &[]any{"Carrier", r.Scorecard.Carrier}); err != nil {
		return err
	}
	if err := rr.f.SetCellStyle(sheet, "A1", "A1", rr.bold); err != nil {
		return err
	}

	head := []any{"Metric"}
	for _, w := range r.Scorecard.Weeks {
		head = append(head, w.Week.String())
	}
	if err := rr.header(sheet, 3, head); err != nil {
		return err
	}

	type metric struct {
		name   string
		target float64
		count  func(scorecard.WeekMetrics) int
		pct    func(scorecard.WeekMetrics) scorecard.Percent
	}
	metrics := []metric{
		{name: "Shipments", count: func(m scorecard.WeekMetrics) int { return m.Shipments }},
		{name: "Routes", count: func(m scorecard.WeekMetrics) int { return m.Routes }},
		{name: "OTP %", target: rr.targets.OTP, pct: func(m scorecard.WeekMetrics) scorecard.Percent { return m.OTP }},
		{name: "OTD %", target: rr.targets.OTD, pct: func(m scorecard.WeekMetrics) scorecard.Percent { return m.OTD }},
		{name: "Tracking %", target: rr.targets.Tracking, pct: func(m scorecard.WeekMetrics) scorecard.Percent { return m.Tracking }},
	}

	for i, m := range metrics {
		row := 4 + i
		if err := rr.f.SetCellValue(sheet, cellName(1, row), m.name); err != nil {
			return err
		}
		for j, w := range r.Scorecard.Weeks {
			cell := cellName(2+j, row)
			if m.count != nil {
				if err := rr.f.SetCellValue(sheet, cell, m.count(w)); err != nil {
					return err
				}
				continue
			}
			if err := rr.percentCell(sheet, cell, m.pct(w), m.target); err != nil {
				return err
			}
		}
	}

	row := 4 + len(metrics) + 1
	if err := rr.f.SetSheetRow(sheet, cellName(1, row), &[]any{"Total routes", r.Delays.TotalRoutes}); err != nil {
		return err
	}
	return rr.f.SetColWidth(sheet, "A", "A", 18)
}

// percentCell writes "-" for no data, otherwise the value with its grade fill.
func (rr *renderer) percentCell(sheet, cell string, p scorecard.Percent, target float64) error {
	v, ok := p.Value()
	if !ok {
		return rr.f.SetCellStr(sheet, cell, p.String())
	}
	if err := rr.f.SetCellFloat(sheet, cell, v, -1, 64); err != nil {
		return err
	}
	style := rr.pct
	if id, ok := rr.graded[scorecard.GradeOf(p, target)]; ok {
		style = id
	}
	return rr.f.SetCellStyle(sheet, cell, cell, style)
}

func (rr *renderer) codes(sheet, title string, side scorecard.DelaySide) error {
	if err := rr.sheet(sheet, false); err != nil {
		return err
	}
	if err := rr.header(sheet, 1, []any{title, "Count", "% of Total Shipments"}); err != nil {
		return err
	}
	for i, b := range side.WithOnTime() {
		row := 2 + i
		if err := rr.f.SetSheetRow(sheet, cellName(1, row), &[]any{b.Code, b.Count}); err != nil {
			return err
		}
		cell := cellName(3, row)
		v, ok := b.PctOfTotal.Value()
		if !ok {
			if err := rr.f.SetCellStr(sheet, cell, b.PctOfTotal.String()); err != nil {
				return err
			}
			continue
		}
		if err := rr.f.SetCellFloat(sheet, cell, v, 1, 64); err != nil {
			return err
		}
		if err := rr.f.SetCellStyle(sheet, cell, cell, rr.pct); err != nil {
			return err
		}
	}
	return rr.f.SetColWidth(sheet, "A", "C", 24)
}

func (rr *renderer) details(sheet string, rows []scorecard.DelayDetail) error {
	if err := rr.sheet(sheet, false); err != nil {
		return err
	}
	if err := rr.header(sheet, 1, detailHeaders); err != nil {
		return err
	}
	for i, d := range rows {
		values := []any{d.OrderCode, d.DelayCode, d.Lane, d.Window, d.Departed, d.Arrived, d.Tracking}
		if err := rr.f.SetSheetRow(sheet, cellName(1, 2+i), &values); err != nil {
			return err
		}
	}
	if err := rr.f.SetColWidth(sheet, "A", "B", 18); err != nil {
		return err
	}
	if err := rr.f.SetColWidth(sheet, "C", "D", 36); err != nil {
		return err
	}
	return rr.f.SetColWidth(sheet, "E", "G", 20)
}

func cellName(col, row int) string {
	c, _ := excelize.CoordinatesToCellName(col, row)
	return c
}
