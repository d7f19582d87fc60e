package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaulted_FillsZeroFields(t *testing.T) {
	tun := Tuning{}.Defaulted()
	if tun.TickRateHz != 10 || tun.AutonomyEveryTicks != 50 || tun.DesignationSweepTicks != 100 {
		t.Fatalf("cadences = %+v", tun)
	}
	if tun.Jobs.MaxCompletedHistory != 100 {
		t.Fatalf("history = %d", tun.Jobs.MaxCompletedHistory)
	}
	if tun.Autonomy.MaxTotalJobs != 20 || tun.Autonomy.MinJobSpacing != 3 {
		t.Fatalf("autonomy = %+v", tun.Autonomy)
	}
	if tun.Needs.HungerDeath != 2400 || tun.Needs.ThirstCritical != 500 {
		t.Fatalf("needs = %+v", tun.Needs)
	}
	if tun.Speed.BaseActionDelay != 10 || tun.Speed.MinPercent != 50 || tun.Speed.MaxPercent != 200 {
		t.Fatalf("speed = %+v", tun.Speed)
	}
	if tun.Threat.DetectRadius != 8 {
		t.Fatalf("threat = %+v", tun.Threat)
	}
}

func TestDefaulted_KeepsExplicitValues(t *testing.T) {
	tun := Tuning{TickRateHz: 2}
	tun.Autonomy.MaxTotalJobs = 5
	tun = tun.Defaulted()
	if tun.TickRateHz != 2 || tun.Autonomy.MaxTotalJobs != 5 {
		t.Fatalf("explicit values overwritten: %+v", tun)
	}
	if tun.Autonomy.MinJobSpacing != 3 {
		t.Fatal("sibling default not applied")
	}
}

func TestLoad_MergesFileWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := []byte("tick_rate_hz: 4\nautonomy:\n  max_total_jobs: 7\nneeds:\n  thirst_critical: 999\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	tun, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tun.TickRateHz != 4 || tun.Autonomy.MaxTotalJobs != 7 || tun.Needs.ThirstCritical != 999 {
		t.Fatalf("overrides lost: %+v", tun)
	}
	if tun.AutonomyEveryTicks != 50 || tun.Needs.HungerDeath != 2400 {
		t.Fatalf("defaults missing: %+v", tun)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: [nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}
