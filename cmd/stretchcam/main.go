// Command stretchcam counts stretch repetitions from a camera feed and serves
// the scores over HTTP.
//
// Usage:
//
//	stretchcam [flags] {arm|neck|side}
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"

	"github.com/ayusman/stretchcam/internal/app"
	"github.com/ayusman/stretchcam/internal/capture"
	"github.com/ayusman/stretchcam/internal/config"
	"github.com/ayusman/stretchcam/internal/log"
	"github.com/ayusman/stretchcam/internal/server"
	"github.com/ayusman/stretchcam/internal/store"
	"github.com/ayusman/stretchcam/internal/stretch"
	"github.com/ayusman/stretchcam/internal/tray"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stretchcam: %v\n", err)
		os.Exit(2)
	}

	source := flag.String("source", "", "video file or stream URL to read instead of the camera")
	camera := flag.Int("camera", cfg.CameraID, "webcam device index")
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dataDir := flag.String("data", cfg.DataDir, "directory for the session database")
	logLevel := flag.String("log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fps := flag.Int("fps", cfg.FPS, "capture frame rate")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] {%s}\n", filepath.Base(os.Args[0]), exerciseList())
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg.CameraID = *camera
	cfg.Addr = *addr
	cfg.DataDir = *dataDir
	cfg.LogLevel = *logLevel
	cfg.FPS = *fps

	log.Init(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Error("failed to create data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	st, err := store.New(cfg.StorePath())
	if err != nil {
		log.Error("failed to initialize store", "path", cfg.StorePath(), "error", err)
		os.Exit(1)
	}
	defer st.Close()

	cfg.Exercise = chooseExercise(cfg, st, flag.Arg(0))
	if _, err := stretch.Lookup(cfg.Exercise); err != nil {
		fmt.Fprintf(os.Stderr, "stretchcam: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	appCfg := app.DefaultConfig()
	appCfg.Exercise = cfg.Exercise
	appCfg.Camera = capture.DeviceConfig(cfg.CameraID)
	appCfg.Camera.FPS = cfg.FPS
	if *source != "" {
		appCfg.Camera.Source = *source
	}
	appCfg.Store = st
	appCfg.RelayPath = cfg.RelayPath()

	a, err := app.New(appCfg)
	if err != nil {
		log.Error("failed to create app", "error", err)
		os.Exit(1)
	}

	hub := server.NewHub()
	a.Subscribe(func(s app.Stats) { hub.Publish(s) })

	webDir := findWebDir(cfg.DataDir)
	if webDir != "" {
		log.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		RelayPath: appCfg.RelayPath,
		Frames:    a,
		Stats:     hub,
		Exercises: a,
	})

	if err := a.Start(); err != nil {
		log.Error("failed to start pipeline", "error", err)
		os.Exit(1)
	}

	go func() {
		log.Info("starting server", "addr", cfg.Addr, "exercise", cfg.Exercise)
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if *withTray {
		runTray(a, cfg, sigCh)
	} else {
		select {
		case sig := <-sigCh:
			log.Info("shutting down", "signal", sig.String())
		case <-a.Done():
			log.Info("video source finished")
		}
	}

	if err := a.Stop(); err != nil {
		log.Error("failed to save session", "error", err)
	}
}

// chooseExercise picks the exercise from the command line, then the
// environment, then the last one used.
func chooseExercise(cfg config.Config, st *store.Store, arg string) string {
	if arg != "" {
		return arg
	}
	if os.Getenv(config.EnvExercise) != "" {
		return cfg.Exercise
	}

	saved, err := st.Settings().Get(store.SettingExercise)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("failed to read saved exercise", "error", err)
		}
		return cfg.Exercise
	}
	return saved
}

// runTray blocks in the system tray until Quit is picked or a signal arrives.
func runTray(a *app.App, cfg config.Config, sigCh <-chan os.Signal) {
	t := tray.New(exerciseNames(), a.Exercise())
	t.OnToggle(a.SetEnabled)
	t.OnExercise(func(name string) {
		if err := a.SetExercise(name); err != nil {
			log.Error("failed to switch exercise", "exercise", name, "error", err)
		}
	})
	t.OnOpen(func() { openBrowser(dashboardURL(cfg.Addr)) })
	a.Subscribe(func(s app.Stats) { t.SetProgress(s.Reps, s.Points) })

	go func() {
		select {
		case <-sigCh:
		case <-a.Done():
		}
		t.Quit()
	}()

	t.Run()
}

func exerciseNames() []string {
	names := make([]string, 0, 3)
	for name := range stretch.Variants() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func exerciseList() string {
	return strings.Join(exerciseNames(), "|")
}

func dashboardURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

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
		log.Warn("failed to open browser", "url", url, "error", err)
	}
}

// findWebDir searches for the web directory next to the working directory
// and in the data directory. Returns "" when none exists.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
