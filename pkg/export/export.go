// Package export serializes plan results for external consumption.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/evroute/core/model"
)

// WriteJSON writes a plan result or trip report to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteStopsCSV writes the charging stops to w as CSV rows.
func WriteStopsCSV(w io.Writer, stops []model.ChargingStop) error {
	cw := csv.NewWriter(w)
	header := []string{
		"station_id", "station_name", "distance_from_start_km",
		"soc_before_percent", "soc_after_percent", "energy_added_kwh",
		"charge_time_min", "station_power_kw",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range stops {
		rec := []string{
			s.StationID,
			s.StationName,
			formatFloat(s.DistanceFromStartKm),
			formatFloat(s.SOCBeforePercent),
			formatFloat(s.SOCAfterPercent),
			formatFloat(s.EnergyAddedKWh),
			formatFloat(s.ChargeTimeMin),
			formatFloat(s.StationPowerKW),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
