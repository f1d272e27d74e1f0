package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/rdiaz/vigia/internal/app"
	"github.com/rdiaz/vigia/internal/capture"
	"github.com/rdiaz/vigia/internal/config"
	"github.com/rdiaz/vigia/internal/detector"
	"github.com/rdiaz/vigia/internal/recognize"
	"github.com/rdiaz/vigia/internal/server"
	"github.com/rdiaz/vigia/internal/store"
	"github.com/rdiaz/vigia/internal/tray"
)

func main() {
	fmt.Println("Vigia - Presence Monitor")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	matcher, err := newMatcher(cfg)
	if err != nil {
		log.Fatalf("Failed to create matcher: %v", err)
	}

	monitor, err := app.New(app.Config{
		Store:          st,
		Camera:         capture.NewCamera(cfg.CameraSource, cfg.CameraWidth, cfg.CameraHeight, cfg.CameraFPS),
		Detector:       newDetector(cfg),
		Matcher:        matcher,
		Hysteresis:     cfg.Hysteresis,
		BufferCapacity: cfg.BufferCapacity,
		HooksDir:       cfg.HooksDir,
		HookTimeoutMs:  cfg.HookTimeoutMs,
	})
	if err != nil {
		log.Fatalf("Failed to create monitor: %v", err)
	}

	if err := monitor.LoadGallery(); err != nil {
		log.Fatalf("Failed to load gallery: %v", err)
	}
	if err := monitor.DiscoverHooks(); err != nil {
		log.Printf("Hook discovery failed: %v", err)
	}

	if err := monitor.Start(); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}
	defer monitor.Stop()

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       monitor,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(cfg.HTTPAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if cfg.Tray {
		runTray(monitor, cfg.HTTPAddr)
		return
	}

	// Headless mode: block until interrupted.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fmt.Println("Shutting down")
}

// newMatcher builds the matcher strategy selected in the configuration.
func newMatcher(cfg *config.Config) (recognize.Matcher, error) {
	if cfg.MatcherKind == config.MatcherSimilarity {
		return recognize.NewSimilarityMatcher(cfg.MatchThreshold)
	}
	return recognize.NewGeometricMatcher(cfg.MatchTolerance)
}

// newDetector builds the Haar cascade detector, falling back to the
// mock when the cascade files are unavailable so the HTTP surface still
// comes up for configuration.
func newDetector(cfg *config.Config) detector.Detector {
	haarCfg := detector.HaarConfig{
		FaceCascadeFile: cfg.FaceCascade,
		EyeCascadeFile:  cfg.EyeCascade,
		ProcessEveryN:   cfg.ProcessEveryN,
	}
	if cfg.MatcherKind == config.MatcherSimilarity {
		haarCfg.Embedder = detector.NewHistogramEmbedder()
	}

	d, err := detector.NewHaarDetector(haarCfg)
	if err != nil {
		log.Printf("Haar cascades not available (%v), using mock detector", err)
		return detector.NewMockDetector()
	}
	log.Println("Using Haar cascade face detection")
	return d
}

// runTray runs the system tray loop; it blocks until Quit is chosen.
func runTray(monitor *app.App, httpAddr string) {
	t := tray.New()
	t.OnToggle(func(enabled bool) {
		monitor.SetEnabled(enabled)
	})
	t.OnDashboard(func() {
		openBrowser("http://localhost" + httpAddr)
	})
	t.OnQuit(func() {
		monitor.Stop()
	})

	monitor.AddNotifier(&trayNotifier{tray: t})

	t.Run()
}

// trayNotifier mirrors presence events into the tray menu.
type trayNotifier struct {
	tray *tray.Tray
}

func (n *trayNotifier) Notify(e app.Event) {
	name := e.PersonName
	if name == "" {
		name = "unknown"
	}
	n.tray.SetLastEvent(fmt.Sprintf("%s %s", name, e.Kind))
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.vigia/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".vigia", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
