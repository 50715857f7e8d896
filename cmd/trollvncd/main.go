// Command trollvncd is the RFB/VNC daemon: it captures a display surface,
// streams it to connected VNC clients, bridges the system clipboard in both
// directions, supervises configured helper processes, and polls for
// updates.
//
// Grounded on IntuitionEngine's main.go for the "construct every collaborator,
// wire them together, then block until shutdown" shape, and on
// flga-vnes/cmd/vnes/main.go for flag parsing and signal-driven shutdown
// (IntuitionEngine itself takes configuration from bare os.Args with no flags
// at all, which this daemon's config file plus watchdog list doesn't fit).
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/trollvnc/trollvncd/internal/applog"
	"github.com/trollvnc/trollvncd/internal/capture"
	"github.com/trollvnc/trollvncd/internal/clipboard"
	"github.com/trollvnc/trollvncd/internal/config"
	"github.com/trollvnc/trollvncd/internal/ghrelease"
	"github.com/trollvnc/trollvncd/internal/hid"
	"github.com/trollvnc/trollvncd/internal/pasteboard"
	"github.com/trollvnc/trollvncd/internal/procrunner"
	"github.com/trollvnc/trollvncd/internal/rfbserver"
	"github.com/trollvnc/trollvncd/internal/surface"
	"github.com/trollvnc/trollvncd/internal/updater"
	"github.com/trollvnc/trollvncd/internal/watchdog"
	"golang.org/x/term"
)

// defaultHeadlessWidth and defaultHeadlessHeight size the synthetic surface
// used whenever no native capture backend is available.
const (
	defaultHeadlessWidth  = 750
	defaultHeadlessHeight = 1334
)

func main() {
	configPath := flag.String("config", "", "path to a JSON configuration file")
	listenOverride := flag.String("listen", "", "override the configured listen address (host:port)")
	headless := flag.Bool("headless", false, "use in-memory surface/pasteboard providers instead of the OS-backed ones")
	askPassword := flag.Bool("ask-vnc-password", false, "prompt for the VncAuth password on the controlling terminal, overriding the config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "trollvncd: loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *listenOverride != "" {
		cfg.ListenAddress = *listenOverride
	}
	if *askPassword {
		password, err := promptVncPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "trollvncd: reading password: %v\n", err)
			os.Exit(1)
		}
		cfg.VncPassword = password
	}

	log := applog.New(cfg.LoggingEnabled, cfg.VerboseLogging)

	surfaceProvider, display, width, height := newSurfaceProvider(*headless, log)

	hidFacade := hid.New(hid.NewHeadless(log))
	handler := &clientHandler{hid: hidFacade, log: log}

	server := rfbserver.New(rfbserver.Options{
		Width:      width,
		Height:     height,
		ServerName: "trollvncd",
		Auth:       rfbserver.Auth{Password: cfg.VncPassword},
		Log:        log,
	}, handler)

	pasteboardProvider := newPasteboardProvider(*headless)
	bridge := clipboard.New(pasteboardProvider, server.BroadcastCutText)
	handler.bridge = bridge
	bridge.Start()
	defer bridge.Stop()

	pipeline := capture.New(surfaceProvider, display, 0, capture.FPSTriple{Preferred: 30}, 5*time.Second, log)
	pipeline.Start(server.CaptureHandler())
	defer pipeline.Stop()

	runner := procrunner.NewRunner()
	watchdogs := startWatchdogs(cfg.Watchdogs, runner, log)
	defer stopWatchdogs(watchdogs)

	if poller := startUpdater(cfg, log); poller != nil {
		defer poller.Stop()
	}

	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error("trollvncd: listen failed", "address", cfg.ListenAddress, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ln) }()

	log.Info("trollvncd: listening", "address", cfg.ListenAddress, "width", width, "height", height)

	select {
	case <-ctx.Done():
		log.Info("trollvncd: shutting down")
		ln.Close()
		<-serveErr
	case err := <-serveErr:
		if err != nil {
			log.Error("trollvncd: serve failed", "error", err)
		}
	}
}

// promptVncPassword reads a password from the controlling terminal without
// echoing it, the same term.ReadPassword call a CLI credential prompt uses
// anywhere in the ecosystem.
func promptVncPassword() (string, error) {
	fmt.Fprint(os.Stderr, "VNC password: ")
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal")
	}
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// newSurfaceProvider picks the platform-specific backend unless headless is
// requested or unavailable, falling back to a synthetic Headless surface of
// a phone-sized default resolution.
func newSurfaceProvider(headless bool, log *slog.Logger) (surface.Provider, surface.Handle, int, int) {
	if !headless {
		if p := platformSurfaceProvider(); p != nil {
			display := p.MainDisplay()
			if w, h, err := p.DisplaySize(display); err == nil {
				return p, display, w, h
			} else {
				log.Warn("trollvncd: native surface backend unavailable, falling back to headless", "error", err)
			}
		}
	}
	p := surface.NewHeadless(defaultHeadlessWidth, defaultHeadlessHeight)
	return p, p.MainDisplay(), defaultHeadlessWidth, defaultHeadlessHeight
}

func newPasteboardProvider(headless bool) pasteboard.Provider {
	if headless {
		return pasteboard.NewHeadless()
	}
	return &pasteboard.System{}
}

func startWatchdogs(services []config.WatchdogService, runner *procrunner.Runner, log *slog.Logger) []*watchdog.Watchdog {
	watchdogs := make([]*watchdog.Watchdog, 0, len(services))
	for _, svc := range services {
		wd := watchdog.New(watchdog.Config{
			Label:            svc.Label,
			ProgramArguments: svc.ProgramArguments,
			Environment:      svc.Environment,
			WorkingDirectory: svc.WorkingDirectory,
			ThrottleInterval: time.Duration(svc.ThrottleInterval),
			ExitTimeout:      time.Duration(svc.ExitTimeout),
			KeepAlive:        keepAliveFor(svc.KeepAlive),
		}, runner, log)
		if err := wd.Start(); err != nil {
			log.Warn("trollvncd: watchdog start failed", "label", svc.Label, "error", err)
			continue
		}
		watchdogs = append(watchdogs, wd)
	}
	return watchdogs
}

func stopWatchdogs(watchdogs []*watchdog.Watchdog) {
	for _, wd := range watchdogs {
		wd.Stop()
	}
}

func keepAliveFor(enabled bool) watchdog.KeepAlive {
	if enabled {
		return watchdog.Always()
	}
	return watchdog.Never()
}

func startUpdater(cfg *config.Config, log *slog.Logger) *updater.Poller {
	if cfg.UpdateRepo == "" {
		return nil
	}
	fetcher := ghrelease.NewFetcher(nil)
	cache := ghrelease.NewCacheStore(cfg.CacheDirectory)
	poller := updater.New(fetcher, cache, func(ev updater.Event) {
		log.Info("trollvncd: update available", "version", ev.Release.VersionString, "from_cache", ev.FromCache)
	}, log)
	poller.Configure(updater.Strategy{
		RepoFullName:       cfg.UpdateRepo,
		MinCheckInterval:   time.Duration(cfg.UpdateMinCheckInterval),
		MaxRetryCount:      cfg.UpdateMaxRetryCount,
		MinRetryInterval:   time.Duration(cfg.UpdateMinRetryInterval),
		IncludePrereleases: cfg.UpdateIncludePrereleases,
		GithubToken:        cfg.UpdateGithubToken,
	}, cfg.UpdateCurrentVersion)
	poller.Start()
	return poller
}
