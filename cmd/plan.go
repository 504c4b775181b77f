package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evroute/app"
	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/pkg/export"
)

var planFlags struct {
	origin       string
	destination  string
	vehicleName  string
	batteryKWh   float64
	consumption  float64
	connector    string
	maxChargeKW  float64
	regen        float64
	startSOC     float64
	radiusKm     float64
	alternatives bool
	format       string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan one trip and print the result as JSON",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planFlags.origin, "origin", "", "origin as lat,lng")
	planCmd.Flags().StringVar(&planFlags.destination, "destination", "", "destination as lat,lng")
	planCmd.Flags().StringVar(&planFlags.vehicleName, "vehicle", "vehicle", "vehicle name")
	planCmd.Flags().Float64Var(&planFlags.batteryKWh, "battery", 60, "battery capacity in kWh")
	planCmd.Flags().Float64Var(&planFlags.consumption, "consumption", 17, "consumption in kWh per 100 km")
	planCmd.Flags().StringVar(&planFlags.connector, "connector", "CCS", "connector type (Type2, CCS, CHAdeMO)")
	planCmd.Flags().Float64Var(&planFlags.maxChargeKW, "max-charge", 0, "vehicle charging limit in kW, 0 for none")
	planCmd.Flags().Float64Var(&planFlags.regen, "regen", 0.6, "fraction of descent energy recovered")
	planCmd.Flags().Float64Var(&planFlags.startSOC, "soc", 0, "start SOC percent, 0 for the configured default")
	planCmd.Flags().Float64Var(&planFlags.radiusKm, "radius", 0, "first search radius in km, 0 for the default")
	planCmd.Flags().BoolVar(&planFlags.alternatives, "alternatives", false, "include one plan per strategy")
	planCmd.Flags().StringVar(&planFlags.format, "format", "json", "output format: json or csv")
	_ = planCmd.MarkFlagRequired("origin")
	_ = planCmd.MarkFlagRequired("destination")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	origin, err := parseCoordinate(planFlags.origin)
	if err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	destination, err := parseCoordinate(planFlags.destination)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	connector, err := model.ParseConnectorType(planFlags.connector)
	if err != nil {
		return err
	}

	report, err := svc.PlanTrip(context.Background(), app.TripRequest{
		Vehicle: model.VehicleProfile{
			Name:                 planFlags.vehicleName,
			BatteryCapacityKWh:   planFlags.batteryKWh,
			ConsumptionKWhPer100: planFlags.consumption,
			Connector:            connector,
			MaxChargeKW:          planFlags.maxChargeKW,
			RegenEfficiency:      planFlags.regen,
		},
		Origin:          origin,
		Destination:     destination,
		StartSOCPercent: planFlags.startSOC,
		SearchRadiusKm:  planFlags.radiusKm,
		Alternatives:    planFlags.alternatives,
	})
	if err != nil {
		return err
	}

	switch planFlags.format {
	case "csv":
		return export.WriteStopsCSV(os.Stdout, report.Plan.Stops)
	case "json":
		return export.WriteJSON(os.Stdout, report)
	default:
		return fmt.Errorf("unknown format %q", planFlags.format)
	}
}

func parseCoordinate(s string) (model.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Coordinate{}, fmt.Errorf("expected lat,lng: %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("invalid longitude: %w", err)
	}
	return model.Coordinate{Latitude: lat, Longitude: lng}, nil
}
