package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cp "github.com/otiai10/copy"
	"gopkg.in/yaml.v3"

	"github.com/grimleaf/grimleaf/internal/bot"
	"github.com/grimleaf/grimleaf/internal/humanize"
	"github.com/grimleaf/grimleaf/internal/input"
	"github.com/grimleaf/grimleaf/internal/vision"
)

var (
	cfgMux   sync.RWMutex
	Grimleaf *GrimleafCfg
	Profiles map[string]*ProfileCfg
	Version  = "dev"
)

// GrimleafCfg is the application-level configuration, loaded from
// config/grimleaf.yaml. Profile directories next to it hold the
// per-session tuning.
type GrimleafCfg struct {
	Debug struct {
		Log bool `yaml:"log"`
	} `yaml:"debug"`
	FirstRun         bool   `yaml:"firstRun"`
	LogSaveDirectory string `yaml:"logSaveDirectory"`
	Server           struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"server"`
	Discord struct {
		Enabled             bool     `yaml:"enabled"`
		EnableBreakMessages bool     `yaml:"enableBreakMessages"`
		EnableCycleMessages bool     `yaml:"enableCycleMessages"`
		EnableErrorMessages bool     `yaml:"enableErrorMessages"`
		BotAdmins           []string `yaml:"botAdmins"`
		ChannelID           string   `yaml:"channelId"`
		Token               string   `yaml:"token"`
		UseWebhook          bool     `yaml:"useWebhook"`
		WebhookURL          string   `yaml:"webhookUrl"`
	} `yaml:"discord"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		ChatID  int64  `yaml:"chatId"`
		Token   string `yaml:"token"`
	} `yaml:"telegram"`
	CaptureMonitor struct {
		Enabled            bool `yaml:"enabled"`
		HighLatencyMs      int  `yaml:"highLatencyMs"`
		SustainedDurationS int  `yaml:"sustainedDurationS"`
	} `yaml:"captureMonitor"`
}

// Range is a min/max pair used by the timing and break sections.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Delay describes one right-skewed delay distribution in milliseconds.
type Delay struct {
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// ProfileCfg is one session profile, loaded from
// config/<name>/profile.yaml. Zero fields fall back to the component
// defaults when the typed accessors build the runtime configs.
type ProfileCfg struct {
	ProfileFolderName string `yaml:"-"`

	Window struct {
		Display int `yaml:"display"`
		Region  struct {
			X      int `yaml:"x"`
			Y      int `yaml:"y"`
			Width  int `yaml:"width"`
			Height int `yaml:"height"`
		} `yaml:"region"`
	} `yaml:"window"`

	Templates struct {
		Dir        string   `yaml:"dir"`
		Candidates []string `yaml:"candidates"`
		Processed  string   `yaml:"processed"`
	} `yaml:"templates"`

	Vision struct {
		Threshold     float64 `yaml:"threshold"`
		ScaleMin      float64 `yaml:"scaleMin"`
		ScaleMax      float64 `yaml:"scaleMax"`
		ScaleSteps    int     `yaml:"scaleSteps"`
		PrefilterTopK int     `yaml:"prefilterTopK"`
	} `yaml:"vision"`

	Inventory struct {
		Rows           int     `yaml:"rows"`
		Cols           int     `yaml:"cols"`
		SlotWidth      int     `yaml:"slotWidth"`
		SlotHeight     int     `yaml:"slotHeight"`
		PanelTemplate  string  `yaml:"panelTemplate"`
		PanelThreshold float64 `yaml:"panelThreshold"`
		FallbackX      float64 `yaml:"fallbackX"`
		FallbackY      float64 `yaml:"fallbackY"`
		EdgeMargin     int     `yaml:"edgeMargin"`
		SlotThreshold  float64 `yaml:"slotThreshold"`
	} `yaml:"inventory"`

	Bank struct {
		AnchorTemplate  string   `yaml:"anchorTemplate"`
		DepositTemplate string   `yaml:"depositTemplate"`
		BoothTemplates  []string `yaml:"boothTemplates"`
		OffsetLeft      int      `yaml:"offsetLeft"`
		OffsetDown      int      `yaml:"offsetDown"`
		PanelWidth      int      `yaml:"panelWidth"`
		PanelHeight     int      `yaml:"panelHeight"`
	} `yaml:"bank"`

	Timing struct {
		ClickItem      Delay   `yaml:"clickItem"`
		BankAction     Delay   `yaml:"bankAction"`
		AfterOpenBank  float64 `yaml:"afterOpenBankMs"`
		AfterDeposit   float64 `yaml:"afterDepositMs"`
		AfterWithdraw  float64 `yaml:"afterWithdrawMs"`
		AfterCloseBank float64 `yaml:"afterCloseBankMs"`
		ClickHold      Delay   `yaml:"clickHold"`
		ThinkChance    float64 `yaml:"thinkChance"`
		MicroChance    float64 `yaml:"microChance"`
	} `yaml:"timing"`

	Breaks struct {
		MicroIntervalMinutes Range `yaml:"microIntervalMinutes"`
		MicroDurationSeconds Range `yaml:"microDurationSeconds"`
		LongIntervalMinutes  Range `yaml:"longIntervalMinutes"`
		LongDurationMinutes  Range `yaml:"longDurationMinutes"`
	} `yaml:"breaks"`

	Fatigue struct {
		OnsetMinutes     float64 `yaml:"onsetMinutes"`
		MaxSlowdown      float64 `yaml:"maxSlowdown"`
		MisclickRateBase float64 `yaml:"misclickRateBase"`
		MisclickRateMax  float64 `yaml:"misclickRateMax"`
	} `yaml:"fatigue"`

	Attention struct {
		DriftChance float64 `yaml:"driftChance"`
	} `yaml:"attention"`

	Motion struct {
		SpeedMin        float64 `yaml:"speedMin"`
		SpeedMax        float64 `yaml:"speedMax"`
		OvershootChance float64 `yaml:"overshootChance"`
		OvershootMin    float64 `yaml:"overshootMin"`
		OvershootMax    float64 `yaml:"overshootMax"`
		CurveVariance   float64 `yaml:"curveVariance"`
		PathPoints      int     `yaml:"pathPoints"`
	} `yaml:"motion"`

	Task struct {
		MaxRecoveries      int     `yaml:"maxRecoveries"`
		RecoveryBaseS      float64 `yaml:"recoveryBaseS"`
		RecoveryMaxS       float64 `yaml:"recoveryMaxS"`
		SkipSlotChance     float64 `yaml:"skipSlotChance"`
		EscCloseChance     float64 `yaml:"escCloseChance"`
		DepositClickChance float64 `yaml:"depositClickChance"`
		MaxSessionHours    float64 `yaml:"maxSessionHours"`
	} `yaml:"task"`

	Seed int64 `yaml:"seed"`
}

func GetProfile(name string) (*ProfileCfg, bool) {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	p, exists := Profiles[name]
	return p, exists
}

func GetProfiles() map[string]*ProfileCfg {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	out := make(map[string]*ProfileCfg, len(Profiles))
	for k, v := range Profiles {
		out[k] = v
	}
	return out
}

// Load reads config/grimleaf.yaml plus every profile directory under
// config/ and validates the result. Any error leaves the previous
// configuration untouched.
func Load() error {
	cfgMux.Lock()
	defer cfgMux.Unlock()

	var app *GrimleafCfg
	appPath := getAbsPath("config/grimleaf.yaml")
	r, err := os.Open(appPath)
	if err != nil {
		return fmt.Errorf("error loading grimleaf.yaml: %w", err)
	}
	defer r.Close()

	d := yaml.NewDecoder(r)
	if err = d.Decode(&app); err != nil {
		return fmt.Errorf("error reading config %s: %w", appPath, err)
	}
	if app == nil {
		return fmt.Errorf("config %s is empty", appPath)
	}
	sanitizeNotifierConfig(app)
	if err = app.validate(); err != nil {
		return fmt.Errorf("invalid %s: %w", appPath, err)
	}

	profiles := make(map[string]*ProfileCfg)
	configDir := getAbsPath("config")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		return fmt.Errorf("error reading config directory %s: %w", configDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "template" {
			continue
		}

		profileCfg := ProfileCfg{}

		profilePath := getAbsPath(filepath.Join("config", entry.Name(), "profile.yaml"))
		r, err := os.Open(profilePath)
		if err != nil {
			return fmt.Errorf("error loading profile.yaml: %w", err)
		}

		d := yaml.NewDecoder(r)
		if err = d.Decode(&profileCfg); err != nil {
			_ = r.Close()
			return fmt.Errorf("error reading %s profile config: %w", profilePath, err)
		}
		_ = r.Close()

		profileCfg.ProfileFolderName = entry.Name()
		if err = profileCfg.Validate(); err != nil {
			return fmt.Errorf("invalid profile %s: %w", entry.Name(), err)
		}

		profiles[entry.Name()] = &profileCfg
	}

	Grimleaf = app
	Profiles = profiles
	return nil
}

// CreateFromTemplate copies the template profile directory into a new
// profile and reloads the configuration.
func CreateFromTemplate(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}

	if _, err := os.Stat("config/" + name); !os.IsNotExist(err) {
		return errors.New("profile with that name already exists")
	}

	err := cp.Copy("config/template", "config/"+name)
	if err != nil {
		return fmt.Errorf("error copying template: %w", err)
	}

	return Load()
}

// SaveGrimleafConfig writes the application config back to disk.
func SaveGrimleafConfig(cfg *GrimleafCfg) error {
	if cfg == nil {
		return errors.New("grimleaf config is nil")
	}
	text, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error encoding grimleaf config: %w", err)
	}
	if err := os.WriteFile("config/grimleaf.yaml", text, 0644); err != nil {
		return fmt.Errorf("error writing grimleaf config: %w", err)
	}
	return nil
}

// SaveProfileConfig writes one profile back to its directory and
// reloads the configuration.
func SaveProfileConfig(name string, cfg *ProfileCfg) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	filePath := filepath.Join("config", name, "profile.yaml")
	err = os.WriteFile(filePath, d, 0644)
	if err != nil {
		return fmt.Errorf("error writing profile config: %w", err)
	}

	return Load()
}

func sanitizeNotifierConfig(cfg *GrimleafCfg) {
	if cfg == nil {
		return
	}
	if cfg.Discord.Enabled {
		useWebhook := cfg.Discord.UseWebhook
		webhookURL := strings.TrimSpace(cfg.Discord.WebhookURL)
		token := strings.TrimSpace(cfg.Discord.Token)
		channelID := strings.TrimSpace(cfg.Discord.ChannelID)

		if (useWebhook && webhookURL == "") || (!useWebhook && (token == "" || channelID == "")) {
			cfg.Discord.Enabled = false
		}
	}
	if cfg.Telegram.Enabled {
		if strings.TrimSpace(cfg.Telegram.Token) == "" || cfg.Telegram.ChatID == 0 {
			cfg.Telegram.Enabled = false
		}
	}
}

func (c *GrimleafCfg) validate() error {
	if c.LogSaveDirectory == "" {
		c.LogSaveDirectory = "logs"
	}
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return fmt.Errorf("server port %d out of range", c.Server.Port)
		}
		if c.Server.Host == "" {
			c.Server.Host = "localhost"
		}
	}
	if c.CaptureMonitor.Enabled {
		if c.CaptureMonitor.HighLatencyMs <= 0 {
			c.CaptureMonitor.HighLatencyMs = 500
		}
		if c.CaptureMonitor.SustainedDurationS <= 0 {
			c.CaptureMonitor.SustainedDurationS = 30
		}
	}
	return nil
}

// Validate rejects parameter combinations the pipeline cannot run with.
// It only checks fields that are set; zero fields take component
// defaults later.
func (p *ProfileCfg) Validate() error {
	if p.Vision.Threshold < 0 || p.Vision.Threshold > 1 {
		return fmt.Errorf("vision threshold %.2f outside [0, 1]", p.Vision.Threshold)
	}
	if p.Vision.ScaleMin < 0 || p.Vision.ScaleMax < 0 {
		return errors.New("vision scale range must be positive")
	}
	if p.Vision.ScaleMin > 0 && p.Vision.ScaleMax > 0 && p.Vision.ScaleMin > p.Vision.ScaleMax {
		return fmt.Errorf("vision scaleMin %.2f above scaleMax %.2f", p.Vision.ScaleMin, p.Vision.ScaleMax)
	}
	if p.Vision.ScaleSteps < 0 {
		return errors.New("vision scaleSteps must be positive")
	}
	if p.Vision.PrefilterTopK < 0 {
		return errors.New("vision prefilterTopK must be positive")
	}

	if p.Inventory.Rows < 0 || p.Inventory.Cols < 0 {
		return errors.New("inventory grid dimensions must be positive")
	}

	for _, d := range []struct {
		name string
		d    Delay
	}{{"clickItem", p.Timing.ClickItem}, {"bankAction", p.Timing.BankAction}, {"clickHold", p.Timing.ClickHold}} {
		if d.d.Min < 0 || d.d.Max < 0 || d.d.Mean < 0 || d.d.Std < 0 {
			return fmt.Errorf("timing %s values must be positive", d.name)
		}
		if d.d.Max > 0 && d.d.Min >= d.d.Max {
			return fmt.Errorf("timing %s min %.0f must be below max %.0f", d.name, d.d.Min, d.d.Max)
		}
	}
	if p.Timing.ThinkChance < 0 || p.Timing.ThinkChance > 1 || p.Timing.MicroChance < 0 || p.Timing.MicroChance > 1 {
		return errors.New("timing pause chances must be within [0, 1]")
	}

	for _, r := range []struct {
		name string
		r    Range
	}{
		{"microIntervalMinutes", p.Breaks.MicroIntervalMinutes},
		{"microDurationSeconds", p.Breaks.MicroDurationSeconds},
		{"longIntervalMinutes", p.Breaks.LongIntervalMinutes},
		{"longDurationMinutes", p.Breaks.LongDurationMinutes},
	} {
		if r.r.Min < 0 || r.r.Max < 0 {
			return fmt.Errorf("breaks %s values must be positive", r.name)
		}
		if r.r.Max > 0 && r.r.Min > r.r.Max {
			return fmt.Errorf("breaks %s min %.1f above max %.1f", r.name, r.r.Min, r.r.Max)
		}
	}

	if p.Fatigue.OnsetMinutes < 0 {
		return errors.New("fatigue onsetMinutes must be positive")
	}
	if p.Fatigue.MisclickRateBase < 0 || p.Fatigue.MisclickRateMax > 1 ||
		(p.Fatigue.MisclickRateMax > 0 && p.Fatigue.MisclickRateBase > p.Fatigue.MisclickRateMax) {
		return errors.New("fatigue misclick rates must satisfy 0 <= base <= max <= 1")
	}

	if p.Attention.DriftChance < 0 || p.Attention.DriftChance > 1 {
		return errors.New("attention driftChance must be within [0, 1]")
	}

	if p.Motion.SpeedMin < 0 || p.Motion.SpeedMax < 0 {
		return errors.New("motion speeds must be positive")
	}
	if p.Motion.SpeedMax > 0 && p.Motion.SpeedMin > p.Motion.SpeedMax {
		return fmt.Errorf("motion speedMin %.0f above speedMax %.0f", p.Motion.SpeedMin, p.Motion.SpeedMax)
	}
	if p.Motion.OvershootChance < 0 || p.Motion.OvershootChance > 1 {
		return errors.New("motion overshootChance must be within [0, 1]")
	}
	if p.Motion.PathPoints < 0 || (p.Motion.PathPoints > 0 && p.Motion.PathPoints < 2) {
		return errors.New("motion pathPoints must be at least 2")
	}

	if p.Task.MaxSessionHours < 0 {
		return errors.New("task maxSessionHours must be positive")
	}
	for _, ch := range []float64{p.Task.SkipSlotChance, p.Task.EscCloseChance, p.Task.DepositClickChance} {
		if ch < 0 || ch > 1 {
			return errors.New("task chances must be within [0, 1]")
		}
	}

	if len(p.Templates.Candidates) == 0 {
		return errors.New("templates candidates must name at least one item template")
	}

	return nil
}

// TemplatesDir resolves the template image directory relative to the
// profile directory unless an absolute path was configured.
func (p *ProfileCfg) TemplatesDir() string {
	dir := p.Templates.Dir
	if dir == "" {
		dir = "templates"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return getAbsPath(filepath.Join("config", p.ProfileFolderName, dir))
}

// MatcherConfig builds the runtime matcher tuning, component defaults
// filling any unset field.
func (p *ProfileCfg) MatcherConfig() vision.MatcherConfig {
	cfg := vision.DefaultMatcherConfig()
	if p.Vision.Threshold > 0 {
		cfg.Threshold = p.Vision.Threshold
	}
	if p.Vision.ScaleMin > 0 {
		cfg.ScaleMin = p.Vision.ScaleMin
	}
	if p.Vision.ScaleMax > 0 {
		cfg.ScaleMax = p.Vision.ScaleMax
	}
	if p.Vision.ScaleSteps > 0 {
		cfg.ScaleSteps = p.Vision.ScaleSteps
	}
	return cfg
}

func (p *ProfileCfg) PrefilterTopK() int {
	if p.Vision.PrefilterTopK > 0 {
		return p.Vision.PrefilterTopK
	}
	return 3
}

func (p *ProfileCfg) InventoryConfig() vision.InventoryConfig {
	cfg := vision.DefaultInventoryConfig()
	if p.Inventory.Rows > 0 {
		cfg.Rows = p.Inventory.Rows
	}
	if p.Inventory.Cols > 0 {
		cfg.Cols = p.Inventory.Cols
	}
	if p.Inventory.SlotWidth > 0 {
		cfg.SlotWidth = p.Inventory.SlotWidth
	}
	if p.Inventory.SlotHeight > 0 {
		cfg.SlotHeight = p.Inventory.SlotHeight
	}
	if p.Inventory.PanelTemplate != "" {
		cfg.PanelTemplate = p.Inventory.PanelTemplate
	}
	if p.Inventory.PanelThreshold > 0 {
		cfg.PanelThreshold = p.Inventory.PanelThreshold
	}
	if p.Inventory.FallbackX > 0 {
		cfg.FallbackX = p.Inventory.FallbackX
	}
	if p.Inventory.FallbackY > 0 {
		cfg.FallbackY = p.Inventory.FallbackY
	}
	if p.Inventory.EdgeMargin > 0 {
		cfg.EdgeMargin = p.Inventory.EdgeMargin
	}
	if p.Inventory.SlotThreshold > 0 {
		cfg.SlotThreshold = p.Inventory.SlotThreshold
	}
	return cfg
}

func (p *ProfileCfg) BankConfig() vision.BankConfig {
	cfg := vision.DefaultBankConfig()
	if p.Bank.AnchorTemplate != "" {
		cfg.AnchorTemplate = p.Bank.AnchorTemplate
	}
	if p.Bank.DepositTemplate != "" {
		cfg.DepositTemplate = p.Bank.DepositTemplate
	}
	if len(p.Bank.BoothTemplates) > 0 {
		cfg.BoothTemplates = p.Bank.BoothTemplates
	}
	if p.Bank.OffsetLeft > 0 {
		cfg.OffsetLeft = p.Bank.OffsetLeft
	}
	if p.Bank.OffsetDown > 0 {
		cfg.OffsetDown = p.Bank.OffsetDown
	}
	if p.Bank.PanelWidth > 0 {
		cfg.PanelWidth = p.Bank.PanelWidth
	}
	if p.Bank.PanelHeight > 0 {
		cfg.PanelHeight = p.Bank.PanelHeight
	}
	return cfg
}

func (p *ProfileCfg) TimingConfig() humanize.TimingConfig {
	cfg := humanize.DefaultTimingConfig()
	applyDelay(&cfg.ClickItemMean, &cfg.ClickItemStd, &cfg.ClickItemMin, &cfg.ClickItemMax, p.Timing.ClickItem)
	applyDelay(&cfg.BankActionMean, &cfg.BankActionStd, &cfg.BankActionMin, &cfg.BankActionMax, p.Timing.BankAction)
	if p.Timing.AfterOpenBank > 0 {
		cfg.AfterOpenBank = p.Timing.AfterOpenBank
	}
	if p.Timing.AfterDeposit > 0 {
		cfg.AfterDeposit = p.Timing.AfterDeposit
	}
	if p.Timing.AfterWithdraw > 0 {
		cfg.AfterWithdraw = p.Timing.AfterWithdraw
	}
	if p.Timing.AfterCloseBank > 0 {
		cfg.AfterCloseBank = p.Timing.AfterCloseBank
	}
	if p.Timing.ClickHold.Mean > 0 {
		cfg.ClickHoldMean = p.Timing.ClickHold.Mean
	}
	if p.Timing.ClickHold.Min > 0 {
		cfg.ClickHoldMin = p.Timing.ClickHold.Min
	}
	if p.Timing.ClickHold.Max > 0 {
		cfg.ClickHoldMax = p.Timing.ClickHold.Max
	}
	if p.Timing.ThinkChance > 0 {
		cfg.ThinkChance = p.Timing.ThinkChance
	}
	if p.Timing.MicroChance > 0 {
		cfg.MicroChance = p.Timing.MicroChance
	}
	return cfg
}

func applyDelay(mean, std, min, max *float64, d Delay) {
	if d.Mean > 0 {
		*mean = d.Mean
	}
	if d.Std > 0 {
		*std = d.Std
	}
	if d.Min > 0 {
		*min = d.Min
	}
	if d.Max > 0 {
		*max = d.Max
	}
}

func (p *ProfileCfg) BreakConfig() humanize.BreakConfig {
	cfg := humanize.DefaultBreakConfig()
	applySpan(&cfg.MicroInterval, p.Breaks.MicroIntervalMinutes, time.Minute)
	applySpan(&cfg.MicroDuration, p.Breaks.MicroDurationSeconds, time.Second)
	applySpan(&cfg.LongInterval, p.Breaks.LongIntervalMinutes, time.Minute)
	applySpan(&cfg.LongDuration, p.Breaks.LongDurationMinutes, time.Minute)
	return cfg
}

func applySpan(s *humanize.Span, r Range, unit time.Duration) {
	if r.Min > 0 {
		s.Min = time.Duration(r.Min * float64(unit))
	}
	if r.Max > 0 {
		s.Max = time.Duration(r.Max * float64(unit))
	}
}

func (p *ProfileCfg) BehaviorConfig() humanize.BehaviorConfig {
	cfg := humanize.DefaultBehaviorConfig()
	if p.Fatigue.OnsetMinutes > 0 {
		cfg.FatigueOnset = time.Duration(p.Fatigue.OnsetMinutes * float64(time.Minute))
	}
	if p.Fatigue.MaxSlowdown > 0 {
		cfg.MaxSlowdown = p.Fatigue.MaxSlowdown
	}
	if p.Fatigue.MisclickRateBase > 0 {
		cfg.MisclickRateBase = p.Fatigue.MisclickRateBase
	}
	if p.Fatigue.MisclickRateMax > 0 {
		cfg.MisclickRateMax = p.Fatigue.MisclickRateMax
	}
	return cfg
}

func (p *ProfileCfg) MotionConfig() input.MotionConfig {
	cfg := input.DefaultMotionConfig()
	if p.Motion.SpeedMin > 0 {
		cfg.SpeedMin = p.Motion.SpeedMin
	}
	if p.Motion.SpeedMax > 0 {
		cfg.SpeedMax = p.Motion.SpeedMax
	}
	if p.Motion.OvershootChance > 0 {
		cfg.OvershootChance = p.Motion.OvershootChance
	}
	if p.Motion.OvershootMin > 0 {
		cfg.OvershootMin = p.Motion.OvershootMin
	}
	if p.Motion.OvershootMax > 0 {
		cfg.OvershootMax = p.Motion.OvershootMax
	}
	if p.Motion.CurveVariance > 0 {
		cfg.CurveVariance = p.Motion.CurveVariance
	}
	if p.Motion.PathPoints > 0 {
		cfg.PathPoints = p.Motion.PathPoints
	}
	return cfg
}

func (p *ProfileCfg) ControllerConfig() bot.ControllerConfig {
	cfg := bot.DefaultControllerConfig()
	cfg.Session = p.ProfileFolderName
	cfg.Candidates = p.Templates.Candidates
	cfg.ProcessedTemplate = p.Templates.Processed
	if p.Task.MaxRecoveries > 0 {
		cfg.MaxRecoveries = p.Task.MaxRecoveries
	}
	if p.Task.RecoveryBaseS > 0 {
		cfg.RecoveryBase = time.Duration(p.Task.RecoveryBaseS * float64(time.Second))
	}
	if p.Task.RecoveryMaxS > 0 {
		cfg.RecoveryMax = time.Duration(p.Task.RecoveryMaxS * float64(time.Second))
	}
	if p.Task.SkipSlotChance > 0 {
		cfg.SkipSlotChance = p.Task.SkipSlotChance
	}
	if p.Task.EscCloseChance > 0 {
		cfg.EscCloseChance = p.Task.EscCloseChance
	}
	if p.Task.DepositClickChance > 0 {
		cfg.DepositClickChance = p.Task.DepositClickChance
	}
	return cfg
}

// SessionCap is the hard session length limit; zero means uncapped.
func (p *ProfileCfg) SessionCap() time.Duration {
	if p.Task.MaxSessionHours <= 0 {
		return 0
	}
	return time.Duration(p.Task.MaxSessionHours * float64(time.Hour))
}

func getAbsPath(relPath string) string {
	cwd, err := os.Getwd()
	if err != nil {
		//Error should be checked in the Load function before any calls
		return relPath
	}
	return filepath.Join(cwd, relPath)
}
