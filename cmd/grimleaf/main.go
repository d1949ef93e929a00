package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	sloggger "github.com/grimleaf/grimleaf/cmd/grimleaf/log"
	"github.com/grimleaf/grimleaf/internal/bot"
	"github.com/grimleaf/grimleaf/internal/config"
	"github.com/grimleaf/grimleaf/internal/event"
	"github.com/grimleaf/grimleaf/internal/health"
	"github.com/grimleaf/grimleaf/internal/humanize"
	"github.com/grimleaf/grimleaf/internal/input"
	"github.com/grimleaf/grimleaf/internal/remote/discord"
	"github.com/grimleaf/grimleaf/internal/remote/telegram"
	"github.com/grimleaf/grimleaf/internal/screen"
	"github.com/grimleaf/grimleaf/internal/server"
	"github.com/grimleaf/grimleaf/internal/vision"
)

var profileFlag string

var rootCmd = &cobra.Command{
	Use:           "grimleaf",
	Short:         "Humanized screen-automation agent for the herb banking loop",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one session with the selected profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(profileFlag)
	},
}

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new profile from the template directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}
		if err := config.CreateFromTemplate(args[0]); err != nil {
			return err
		}
		fmt.Printf("profile %q created under config/%s\n", args[0], args[0])
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.Version)
	},
}

func init() {
	runCmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "profile directory name under config/ (default: the only profile)")
	rootCmd.AddCommand(runCmd, initCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// wrapWithRecover wraps a goroutine body with panic recovery so one
// crashing collaborator cannot take the process down silently.
func wrapWithRecover(logger *slog.Logger, f func() error) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, debug.Stack()))
				sloggger.FlushLog()
			}
		}()
		return f()
	}
}

func run(profileName string) error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	profile, err := pickProfile(profileName)
	if err != nil {
		return err
	}

	logger, err := sloggger.NewLogger(config.Grimleaf.Debug.Log, config.Grimleaf.LogSaveDirectory, profile.ProfileFolderName)
	if err != nil {
		return fmt.Errorf("error starting logger: %w", err)
	}
	defer sloggger.FlushAndClose()

	seed := profile.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := humanize.NewRNG(seed)
	logger.Info("starting session", "profile", profile.ProfileFolderName, "seed", seed)

	store, err := vision.LoadStore(profile.TemplatesDir())
	if err != nil {
		return fmt.Errorf("error loading templates from %s: %w", profile.TemplatesDir(), err)
	}

	capturer := screen.NewDisplayCapturer(profile.Window.Display, image.Rect(
		profile.Window.Region.X,
		profile.Window.Region.Y,
		profile.Window.Region.X+profile.Window.Region.Width,
		profile.Window.Region.Y+profile.Window.Region.Height,
	))
	windowBounds, err := capturer.Bounds()
	if err != nil {
		return fmt.Errorf("error resolving capture window: %w", err)
	}
	window := image.Rect(0, 0, windowBounds.Dx(), windowBounds.Dy())

	// Perception stack.
	matcher := vision.NewMatcher(profile.MatcherConfig())
	prefilter := vision.NewPreFilter(store, profile.PrefilterTopK())
	inventory := vision.NewInventoryLocator(matcher, store, profile.InventoryConfig())
	bank := vision.NewBankLocator(matcher, prefilter, store, profile.BankConfig())

	// Humanized execution stack, all drawing from one session RNG.
	behavior := humanize.NewBehavior(profile.BehaviorConfig(), rng)
	timing := humanize.NewTiming(profile.TimingConfig(), rng, behavior)
	breaks := humanize.NewScheduler(profile.BreakConfig(), rng)
	drift := humanize.NewDrift(rng, window)
	if profile.Attention.DriftChance > 0 {
		drift.SetBaseChance(profile.Attention.DriftChance)
	}

	dispatcher := input.NewRobotDispatcher(windowBounds.Min)
	planner := input.NewPlanner(profile.MotionConfig(), rng)
	mouse := input.NewMouse(dispatcher, planner, timing)
	keyboard := input.NewKeyboard(dispatcher, timing)

	stats := bot.NewStats(profile.ProfileFolderName)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if limit := profile.SessionCap(); limit > 0 {
		var capCancel context.CancelFunc
		ctx, capCancel = context.WithTimeout(ctx, limit)
		defer capCancel()
	}

	var controllerCapturer bot.Capturer = capturer
	if config.Grimleaf.CaptureMonitor.Enabled {
		monitor := health.NewCaptureMonitor(
			logger,
			profile.ProfileFolderName,
			capturer,
			time.Duration(config.Grimleaf.CaptureMonitor.HighLatencyMs)*time.Millisecond,
			time.Duration(config.Grimleaf.CaptureMonitor.SustainedDurationS)*time.Second,
		)
		monitor.SetCallback(cancel)
		controllerCapturer = monitor
	}

	controller := bot.NewController(logger, profile.ControllerConfig(), bot.Deps{
		Capturer:  controllerCapturer,
		Inventory: inventory,
		Bank:      bank,
		Store:     store,
		Executor:  bot.NewExecutor(mouse, keyboard, timing),
		Mouse:     mouse,
		Timing:    timing,
		Behavior:  behavior,
		Breaks:    breaks,
		Drift:     drift,
		RNG:       rng,
		Stats:     stats,
	})

	g, gctx := errgroup.WithContext(ctx)

	eventListener := event.NewListener(logger)
	if config.Grimleaf.Discord.Enabled {
		discordBot, err := discord.NewBot(
			config.Grimleaf.Discord.Token,
			config.Grimleaf.Discord.ChannelID,
			stats,
			cancel,
			config.Grimleaf.Discord.UseWebhook,
			config.Grimleaf.Discord.WebhookURL,
		)
		if err != nil {
			return fmt.Errorf("error creating Discord bot: %w", err)
		}
		eventListener.Register(discordBot.Handle)
		g.Go(wrapWithRecover(logger, func() error {
			return discordBot.Start(gctx)
		}))
	}
	if config.Grimleaf.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(config.Grimleaf.Telegram.Token, config.Grimleaf.Telegram.ChatID, stats, cancel, logger)
		if err != nil {
			return fmt.Errorf("error creating Telegram bot: %w", err)
		}
		eventListener.Register(telegramBot.Handle)
		g.Go(wrapWithRecover(logger, func() error {
			defer telegramBot.Close()
			return telegramBot.Start(gctx)
		}))
	}
	if config.Grimleaf.Server.Enabled {
		metrics := server.NewMetrics()
		eventListener.Register(metrics.Handle)
		srv := server.New(logger, stats, metrics, cancel)
		g.Go(wrapWithRecover(logger, func() error {
			return srv.Listen(fmt.Sprintf("%s:%d", config.Grimleaf.Server.Host, config.Grimleaf.Server.Port))
		}))
		g.Go(func() error {
			<-gctx.Done()
			return srv.Stop()
		})
	}

	// All handlers are registered; start draining the bus.
	g.Go(wrapWithRecover(logger, func() error {
		return eventListener.Listen(gctx)
	}))

	event.Send(event.SessionStarted(
		event.Text(profile.ProfileFolderName, "session started"),
		profile.ProfileFolderName,
	))

	runErr := controller.Run(gctx)
	cancel()

	reason := event.FinishedOK
	summary := "session complete"
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		reason = event.FinishedError
		summary = runErr.Error()
		logger.Error("session ended with error", "error", runErr)
	} else if ctx.Err() != nil {
		reason = event.FinishedStopped
		summary = "session stopped"
	}
	event.Send(event.SessionFinished(event.Text(profile.ProfileFolderName, summary), reason))

	if path, err := stats.WriteSummary(config.Grimleaf.LogSaveDirectory, summary); err != nil {
		logger.Warn("could not write session summary", "error", err)
	} else {
		logger.Info("session summary written", "path", path)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("background task error", "error", err)
	}

	return runErr
}

// pickProfile resolves the requested profile, defaulting to the only
// configured one.
func pickProfile(name string) (*config.ProfileCfg, error) {
	profiles := config.GetProfiles()
	if name != "" {
		p, ok := config.GetProfile(name)
		if !ok {
			return nil, fmt.Errorf("profile %q not found under config/", name)
		}
		return p, nil
	}
	if len(profiles) == 1 {
		for _, p := range profiles {
			return p, nil
		}
	}
	if len(profiles) == 0 {
		return nil, errors.New("no profiles configured; create one with 'grimleaf init <name>'")
	}
	return nil, fmt.Errorf("%d profiles configured; pick one with --profile", len(profiles))
}
