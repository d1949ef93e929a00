package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const appYAML = `
debug:
  log: true
logSaveDirectory: logs
server:
  enabled: true
  host: localhost
  port: 8087
discord:
  enabled: true
  token: ""
  channelId: ""
telegram:
  enabled: false
captureMonitor:
  enabled: true
`

const profileYAML = `
window:
  display: 0
templates:
  dir: templates
  candidates: [herb_guam, herb_ranarr]
  processed: herb_clean
vision:
  threshold: 0.85
  scaleMin: 0.9
  scaleMax: 1.1
  scaleSteps: 3
  prefilterTopK: 2
timing:
  clickItem: {mean: 300, std: 80, min: 180, max: 600}
breaks:
  microIntervalMinutes: {min: 5, max: 10}
fatigue:
  onsetMinutes: 20
task:
  maxSessionHours: 4
seed: 42
`

func writeConfigTree(t *testing.T, appCfg, profileCfg string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config", "main"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "grimleaf.yaml"), []byte(appCfg), 0o644); err != nil {
		t.Fatalf("write app config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "main", "profile.yaml"), []byte(profileCfg), 0o644); err != nil {
		t.Fatalf("write profile config: %v", err)
	}
	t.Chdir(dir)
}

func TestLoadReadsAppAndProfiles(t *testing.T) {
	writeConfigTree(t, appYAML, profileYAML)

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !Grimleaf.Debug.Log {
		t.Error("debug.log not read")
	}
	if Grimleaf.Server.Port != 8087 {
		t.Errorf("server port = %d, want 8087", Grimleaf.Server.Port)
	}
	// Discord enabled without token or webhook gets switched off.
	if Grimleaf.Discord.Enabled {
		t.Error("discord should be disabled when no token is configured")
	}
	if Grimleaf.CaptureMonitor.HighLatencyMs != 500 {
		t.Errorf("capture monitor latency default = %d, want 500", Grimleaf.CaptureMonitor.HighLatencyMs)
	}

	p, ok := GetProfile("main")
	if !ok {
		t.Fatal("profile main not loaded")
	}
	if p.ProfileFolderName != "main" {
		t.Errorf("ProfileFolderName = %q", p.ProfileFolderName)
	}
	if p.Seed != 42 {
		t.Errorf("seed = %d, want 42", p.Seed)
	}
	if got := p.Templates.Candidates; len(got) != 2 || got[0] != "herb_guam" {
		t.Errorf("candidates = %v", got)
	}
}

func TestProfileAccessorsOverrideAndDefault(t *testing.T) {
	writeConfigTree(t, appYAML, profileYAML)
	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, _ := GetProfile("main")

	m := p.MatcherConfig()
	if m.Threshold != 0.85 || m.ScaleMin != 0.9 || m.ScaleMax != 1.1 || m.ScaleSteps != 3 {
		t.Errorf("matcher config = %+v", m)
	}

	tc := p.TimingConfig()
	if tc.ClickItemMean != 300 || tc.ClickItemMax != 600 {
		t.Errorf("click item timing = %+v", tc)
	}
	// Unset sections keep component defaults.
	if tc.BankActionMean != 800 {
		t.Errorf("bank action mean = %.0f, want default 800", tc.BankActionMean)
	}

	bc := p.BreakConfig()
	if bc.MicroInterval.Min != 5*time.Minute || bc.MicroInterval.Max != 10*time.Minute {
		t.Errorf("micro interval = %+v", bc.MicroInterval)
	}
	if bc.LongInterval.Min != 45*time.Minute {
		t.Errorf("long interval min = %v, want default 45m", bc.LongInterval.Min)
	}

	bhv := p.BehaviorConfig()
	if bhv.FatigueOnset != 20*time.Minute {
		t.Errorf("fatigue onset = %v", bhv.FatigueOnset)
	}

	cc := p.ControllerConfig()
	if cc.Session != "main" {
		t.Errorf("controller session = %q", cc.Session)
	}
	if cc.ProcessedTemplate != "herb_clean" {
		t.Errorf("processed template = %q", cc.ProcessedTemplate)
	}
	if cc.MaxRecoveries != 5 {
		t.Errorf("max recoveries = %d, want default 5", cc.MaxRecoveries)
	}

	if got := p.SessionCap(); got != 4*time.Hour {
		t.Errorf("session cap = %v", got)
	}

	inv := p.InventoryConfig()
	if inv.Rows != 7 || inv.Cols != 4 {
		t.Errorf("inventory defaults = %dx%d", inv.Rows, inv.Cols)
	}
}

func TestValidateRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(p *ProfileCfg)
		wantSub string
	}{
		{
			name:    "threshold above one",
			mutate:  func(p *ProfileCfg) { p.Vision.Threshold = 1.5 },
			wantSub: "threshold",
		},
		{
			name: "scale range inverted",
			mutate: func(p *ProfileCfg) {
				p.Vision.ScaleMin = 1.4
				p.Vision.ScaleMax = 0.9
			},
			wantSub: "scaleMin",
		},
		{
			name: "click delay min above max",
			mutate: func(p *ProfileCfg) {
				p.Timing.ClickItem = Delay{Mean: 250, Std: 75, Min: 700, Max: 500}
			},
			wantSub: "clickItem",
		},
		{
			name: "break interval inverted",
			mutate: func(p *ProfileCfg) {
				p.Breaks.MicroIntervalMinutes = Range{Min: 20, Max: 10}
			},
			wantSub: "microIntervalMinutes",
		},
		{
			name:    "negative session cap",
			mutate:  func(p *ProfileCfg) { p.Task.MaxSessionHours = -1 },
			wantSub: "maxSessionHours",
		},
		{
			name:    "no candidates",
			mutate:  func(p *ProfileCfg) { p.Templates.Candidates = nil },
			wantSub: "candidates",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := ProfileCfg{}
			p.Templates.Candidates = []string{"herb_guam"}
			tc.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("Validate accepted invalid profile")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestLoadFailsFastOnInvalidProfile(t *testing.T) {
	bad := strings.Replace(profileYAML, "threshold: 0.85", "threshold: 2.0", 1)
	writeConfigTree(t, appYAML, bad)

	if err := Load(); err == nil {
		t.Fatal("Load accepted invalid profile config")
	}
}

func TestCreateFromTemplate(t *testing.T) {
	writeConfigTree(t, appYAML, profileYAML)
	if err := os.MkdirAll(filepath.Join("config", "template"), 0o755); err != nil {
		t.Fatalf("mkdir template: %v", err)
	}
	if err := os.WriteFile(filepath.Join("config", "template", "profile.yaml"), []byte(profileYAML), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	if err := CreateFromTemplate("alt"); err != nil {
		t.Fatalf("CreateFromTemplate: %v", err)
	}
	if _, ok := GetProfile("alt"); !ok {
		t.Error("profile alt not present after bootstrap")
	}

	if err := CreateFromTemplate("alt"); err == nil {
		t.Error("duplicate profile name accepted")
	}
	if err := CreateFromTemplate(""); err == nil {
		t.Error("empty profile name accepted")
	}
}
