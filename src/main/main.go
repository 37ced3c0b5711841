package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"screen-translator/src/clipboard"
	"screen-translator/src/config"
	"screen-translator/src/eventloop"
	"screen-translator/src/hotkey"
	"screen-translator/src/logutil"
	"screen-translator/src/notification"
	"screen-translator/src/overlay"
	"screen-translator/src/prefs"
	"screen-translator/src/render"
	"screen-translator/src/runtimeinit"
	"screen-translator/src/screenshot"
	"screen-translator/src/session"
	"screen-translator/src/singleinstance"
	"screen-translator/src/tray"
)

// Standalone run-once keeps the process alive this long at most while the
// result overlay is on screen.
const standaloneOverlayTimeout = 2 * time.Minute

type mainOptions struct {
	runOnce    bool
	runOnceStd bool
	apiKeyPath string
	language   string
}

func main() {
	// Windows DPI awareness must be set before any window or metric query.
	enableDPIAwareness()

	cmd := newRootCmd(&mainOptions{})
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-translator",
		Short:         "Select a screen region and overlay its translation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.runOnce || opts.runOnceStd {
				return runOnceCommand(cmd.Context(), *opts, cmd.OutOrStdout())
			}
			return runResident(*opts)
		},
	}
	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Translate one region, copy the result to the clipboard and exit")
	cmd.Flags().BoolVar(&opts.runOnceStd, "run-once-std", false, "Translate one region and print the result to stdout")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.language, "lang", "", "Target language code, e.g. it, es, fr")
	cmd.MarkFlagsMutuallyExclusive("run-once", "run-once-std")

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to their GNU form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"screen-translator"}
	}
	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"run-once-std", "run-once", "api-key-path", "lang"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}

func loadConfig(opts mainOptions) (*config.Config, error) {
	lang := ""
	if opts.language != "" {
		if lang = config.NormalizeLanguage(opts.language); lang == "" {
			return nil, fmt.Errorf("invalid language %q", opts.language)
		}
	}
	return runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride:     opts.apiKeyPath,
			TargetLanguageOverride: lang,
		},
		SetupLogging: logutil.Setup,
	})
}

// app holds the wired pipeline.
type app struct {
	cfg      *config.Config
	language *prefs.Language
	renderer *render.Renderer
	orch     *session.Orchestrator
}

func buildApp(cfg *config.Config, language *prefs.Language) (*app, error) {
	clients, err := runtimeinit.NewClients(cfg)
	if err != nil {
		return nil, err
	}
	renderer := render.New(render.NewNativeSurface(), nil, render.FitOptions{
		MaxSize: cfg.FontMaxSize,
		MinSize: cfg.FontMinSize,
	})

	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard unavailable, translations will not be copied: %v", err)
	}

	orch, err := session.New(session.Options{
		Selector:         overlay.NewSelector(),
		Capturer:         screenshot.NewScreenCapturer(),
		Recognizer:       clients.Recognizer,
		Translator:       clients.Translator,
		Presenter:        renderer,
		Language:         language,
		RecognizeTimeout: time.Duration(cfg.RecognizeTimeoutSec) * time.Second,
		TranslateTimeout: time.Duration(cfg.TranslateTimeoutSec) * time.Second,
		RenderEmpty:      cfg.RenderEmpty,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Screen translator initialized: lang=%s hotkey=%s", language.Current(), cfg.Hotkey)
	return &app{cfg: cfg, language: language, renderer: renderer, orch: orch}, nil
}

func runResident(opts mainOptions) error {
	// The tray's message loop needs a fixed OS thread.
	runtime.LockOSThread()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if port, ok := singleinstance.DetectResidentPort(context.Background()); ok {
		fmt.Printf("screen-translator is already running on port %d\n", port)
		return errors.New("resident already running")
	}

	language := prefs.NewLanguage(prefs.NewStore(cfg.StateFile), cfg.TargetLanguage)
	a, err := buildApp(cfg, language)
	if err != nil {
		notification.ShowStartupError(err)
		return err
	}
	logMonitorConfiguration()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	idle := fmt.Sprintf("Screen Translator - press %s to translate", cfg.Hotkey)
	loop := eventloop.New(a.orch, singleinstance.NewServer(), tray.UpdateTooltip)
	loop.SetDefaultTooltip(idle)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error {
		if err := hotkey.Listen(gctx, cfg.Hotkey, func() { loop.Trigger("hotkey") }); err != nil {
			// The tray still works without the hotkey.
			log.Printf("Hotkey disabled: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.orch.Cancel()
		a.renderer.Close()
		tray.Quit()
		return nil
	})

	tray.Run(tray.Config{
		Title:       "Screen Translator",
		Tooltip:     idle,
		Languages:   prefs.SupportedLanguages,
		Current:     language.Current,
		OnTranslate: func() { loop.Trigger("tray") },
		OnLanguage:  language.Set,
		OnExit:      cancel,
	})

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("Screen translator exited")
	return nil
}

func runOnceCommand(ctx context.Context, opts mainOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// .env may move the delegation port range, so load it before probing.
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	req := singleinstance.Request{OutputToStdout: opts.runOnceStd, Language: config.NormalizeLanguage(opts.language)}
	return handleRunOnceWithDelegation(ctx, req, singleinstance.NewClient(), stdout, func() error {
		return runStandalone(ctx, cfg, req, stdout)
	})
}

// handleRunOnceWithDelegation hands the run to a resident when one answers,
// otherwise runs fallback in this process.
func handleRunOnceWithDelegation(ctx context.Context, req singleinstance.Request, client singleinstance.Client, stdout io.Writer, fallback func() error) error {
	resp, err := client.TryRunOnce(ctx, req)
	if !resp.Delegated {
		if err != nil {
			log.Printf("Delegation failed: %v; running standalone", err)
		} else {
			log.Printf("No resident detected, running standalone")
		}
		return fallback()
	}
	if err != nil {
		return err
	}
	if resp.Cancelled {
		log.Printf("Delegated run ended without a translation: %s", resp.Reason)
		return nil
	}
	if req.OutputToStdout {
		fmt.Fprint(stdout, resp.Text)
	}
	log.Printf("Delegated run completed")
	return nil
}

func runStandalone(ctx context.Context, cfg *config.Config, req singleinstance.Request, stdout io.Writer) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	language := prefs.NewLanguage(prefs.NewStore(cfg.StateFile), cfg.TargetLanguage)
	a, err := buildApp(cfg, language)
	if err != nil {
		return err
	}

	ro := session.RunOptions{Language: req.Language}
	if req.OutputToStdout {
		ro.Publisher = session.StdoutPublisher{Writer: stdout}
	}
	res, err := a.orch.Run(ctx, ro)
	if err != nil {
		return err
	}
	if res.Outcome != session.Completed {
		log.Printf("Run ended without a translation: %s", res.Outcome)
		return nil
	}
	waitForDismiss(ctx, a.renderer, standaloneOverlayTimeout)
	a.renderer.Close()
	return nil
}

// waitForDismiss blocks while the overlay is open, up to limit.
func waitForDismiss(ctx context.Context, r *render.Renderer, limit time.Duration) {
	deadline := time.NewTimer(limit)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for r.IsOpen() {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-tick.C:
		}
	}
}
