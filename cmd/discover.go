package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evroute/app"
	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/core/discovery"
	"github.com/kilianp07/evroute/core/model"
)

var discoverFlags struct {
	origin      string
	destination string
	radiusKm    float64
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find charging stations along a route and print them as JSON",
	RunE:  runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&discoverFlags.origin, "origin", "", "origin as lat,lng")
	discoverCmd.Flags().StringVar(&discoverFlags.destination, "destination", "", "destination as lat,lng")
	discoverCmd.Flags().Float64Var(&discoverFlags.radiusKm, "radius", 0, "first search radius in km, 0 for the default")
	_ = discoverCmd.MarkFlagRequired("origin")
	_ = discoverCmd.MarkFlagRequired("destination")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	origin, err := parseCoordinate(discoverFlags.origin)
	if err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	destination, err := parseCoordinate(discoverFlags.destination)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	stations, stats, err := svc.DiscoverStations(context.Background(), origin, destination, discoverFlags.radiusKm)
	if err != nil {
		return err
	}

	out := struct {
		Stations []model.Station `json:"stations"`
		Stats    discovery.Stats `json:"stats"`
	}{Stations: stations, Stats: stats}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
