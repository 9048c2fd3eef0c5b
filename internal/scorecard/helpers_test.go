package scorecard

import "github.com/BearBump/ScoreBox/internal/models"

func yes() *string { s := "YES"; return &s }

// rawRow is a succeeded, completed, tracked shipment in 2025-W02 with pickup
// window 08:00-10:00 on 01/06 and delivery window 12:00-14:00 on 01/07.
func rawRow(id int64, load, carrier string) models.RawShipment {
	return models.RawShipment{
		ID:               id,
		OrderCode:        "ORD-" + load,
		LoadID:           load,
		CarrierName:      carrier,
		MainShipment:     "YES",
		PickLocationName: "Plant A",
		PickCity:         "Dallas",
		PickState:        "TX",
		PickWindowFrom:   "01/06/2025 08:00:00",
		PickWindowTo:     "01/06/2025 10:00:00",
		PickTimeArrived:  "01/06/2025 09:00:00",
		PickTimeDeparted: "01/06/2025 09:30:00",
		PickStatus:       "Succeeded",

		DropLocationName: "DC B",
		DropCity:         "Austin",
		DropState:        "TX",
		DropWindowFrom:   "01/07/2025 12:00:00",
		DropWindowTo:     "01/07/2025 14:00:00",
		DropTimeArrived:  "01/07/2025 13:00:00",
		DropTimeDeparted: "01/07/2025 13:30:00",
		DropStatus:       "Succeeded",

		LoadStatus: "Completed",
		IsTracking: yes(),
	}
}

var w02 = models.WeekKey{Year: 2025, Week: 2}
