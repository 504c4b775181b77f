package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/evroute/core/model"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario files found")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestParseConnector(t *testing.T) {
	if parseConnector("CHAdeMO") != model.ConnectorCHAdeMO {
		t.Error("CHAdeMO did not parse")
	}
	if parseConnector("") != model.ConnectorCCS {
		t.Error("empty connector should default to CCS")
	}
}

func TestRouteDistanceOverride(t *testing.T) {
	sc := Scenario{
		Points:     []PointDef{{Lat: 48.8, Lng: 2.35}, {Lat: 47.9, Lng: 1.9}},
		DistanceKm: 120,
	}
	if got := sc.Route().TotalDistanceKm(); got != 120 {
		t.Errorf("distance = %v, want 120", got)
	}
	sc.DistanceKm = 0
	if got := sc.Route().TotalDistanceKm(); got <= 0 {
		t.Errorf("haversine fallback = %v, want positive", got)
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	tmp, err := os.CreateTemp(t.TempDir(), "bad*.yml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.WriteString(":"); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmp.Name()); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
