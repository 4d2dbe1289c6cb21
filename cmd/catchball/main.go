package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ayusman/catchball/internal/app"
	"github.com/ayusman/catchball/internal/audio"
	"github.com/ayusman/catchball/internal/capture"
	"github.com/ayusman/catchball/internal/config"
	"github.com/ayusman/catchball/internal/detector"
	"github.com/ayusman/catchball/internal/gameplay"
	"github.com/ayusman/catchball/internal/hud"
	"github.com/ayusman/catchball/internal/plugin"
	"github.com/ayusman/catchball/internal/server"
	"github.com/ayusman/catchball/internal/store"
	"github.com/ayusman/catchball/internal/tray"
)

var displayNames = []string{"console", "hud", "tray", "audio"}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides the config)")
	display := flag.String("display", "console", "comma separated sinks: console, hud, tray, audio")
	simulate := flag.Bool("simulate", false, "play with a scripted player instead of the camera")
	writeConfig := flag.String("write-config", "", "write the effective config to this path and exit")
	flag.Parse()

	displays, err := parseDisplays(*display)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if *writeConfig != "" {
		if err := config.Save(*writeConfig, cfg); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Config written to %s\n", *writeConfig)
		return
	}

	if err := run(cfg, displays, *simulate); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config, displays map[string]bool, simulate bool) error {
	if !displays["hud"] {
		fmt.Println("Catchball - raise both hands to play")
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// The HUD owns the terminal, so logs go to a file while it runs.
	if displays["hud"] {
		logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "catchball.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	plugins := plugin.NewManager(cfg.Plugins.Dir, plugin.NewExecutor(cfg.Plugins.Timeout))
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	} else {
		log.Printf("Loaded %d session hooks from %s", len(plugins.List()), cfg.Plugins.Dir)
	}

	camera, det := openInputs(cfg, simulate)

	hub := server.NewHub()
	frames := server.NewFrameBuffer()

	observers := []gameplay.Observer{hub}
	outcomes := []app.OutcomeHandler{hub}
	var scenes []app.SceneSink

	if displays["console"] && !displays["hud"] {
		c := newConsole(os.Stdout)
		observers = append(observers, c)
		outcomes = append(outcomes, c)
	}

	if displays["audio"] {
		player := audio.NewPlayer(cfg.Audio)
		if err := player.Init(); err != nil {
			log.Printf("Audio unavailable: %v", err)
		} else {
			defer player.Close()
			observers = append(observers, player)
			outcomes = append(outcomes, player)
		}
	}

	var h *hud.HUD
	if displays["hud"] {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		if h, err = hud.New(screen, cfg.HUD); err != nil {
			return err
		}
		defer h.Close()
		observers = append(observers, h)
		outcomes = append(outcomes, h)
		scenes = append(scenes, h)
	}

	var t *tray.Tray
	if displays["tray"] {
		t = tray.New()
		observers = append(observers, t)
	}

	a, err := app.New(app.Options{
		Config:    cfg,
		Camera:    camera,
		Detector:  det,
		Store:     st,
		Plugins:   plugins,
		Observers: observers,
		Outcomes:  outcomes,
		Scenes:    scenes,
		Frames:    frames,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(server.Config{
		StaticDir: findWebDir(cfg.Server.StaticDir, cfg.DataDir),
		Store:     st,
		Game:      a,
		Hub:       hub,
		Frames:    frames,
	}).HTTPServer(cfg.Server.Addr)

	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			cancel()
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- a.Run(ctx)
		cancel()
	}()

	if h != nil {
		go h.Run(ctx, func() { a.Stop() }, cancel)
	}

	if t != nil {
		t.OnStop(func() { a.Stop() })
		t.OnDashboard(func() { log.Printf("Dashboard: http://%s/", cfg.Server.Addr) })
		t.OnQuit(cancel)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray needs the main goroutine.
		t.Run()
	}

	<-ctx.Done()
	err = <-runErr

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Printf("Server shutdown: %v", serr)
	}
	return err
}

// openInputs picks the camera and pose detector. Simulation, or a missing
// pose service, falls back to the scripted mock player.
func openInputs(cfg config.Config, simulate bool) (capture.Camera, detector.Detector) {
	script := func() detector.Detector {
		mock := detector.NewMockDetector()
		mock.SetScript(detector.SimulationScript(cfg.Rate.ActiveFPS, cfg.Detector.SceneWidth))
		return mock
	}

	if simulate {
		log.Println("Simulation mode: synthetic camera and scripted player")
		return capture.NewSyntheticCamera(cfg.Camera.Width, cfg.Camera.Height), script()
	}

	camera := capture.NewDevice(cfg.Camera)
	mp, err := detector.NewMediaPipeDetector(cfg.Detector)
	if err != nil {
		log.Printf("MediaPipe not available (%v), using scripted player", err)
		return camera, script()
	}
	log.Println("Using MediaPipe pose detection")
	return camera, mp
}

func parseDisplays(s string) (map[string]bool, error) {
	displays := make(map[string]bool)
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !slices.Contains(displayNames, name) {
			return nil, fmt.Errorf("unknown display %q (want one of %s)", name, strings.Join(displayNames, ", "))
		}
		displays[name] = true
	}
	return displays, nil
}

// findWebDir returns the first existing directory among dir, ../dir and
// dataDir/web, or "" when none exists.
func findWebDir(dir, dataDir string) string {
	if dir == "" {
		return ""
	}
	candidates := []string{dir, filepath.Join("..", dir), filepath.Join(dataDir, "web")}
	if filepath.IsAbs(dir) {
		candidates = candidates[:1]
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
