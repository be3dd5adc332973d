// ABOUTME: Entry point for the Watchbird companion client
// ABOUTME: Parses CLI flags and starts the application
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Watchbird-Live/watchbird-go/internal/app"
	"github.com/Watchbird-Live/watchbird-go/internal/config"
	"github.com/Watchbird-Live/watchbird-go/internal/version"
)

var (
	configPath  = flag.String("config", "", "Config file path (default: per-user config dir)")
	logFile     = flag.String("log-file", "watchbird.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	initConfig  = flag.Bool("init-config", false, "Write a sample config file and exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	path := *configPath
	if path == "" {
		resolved, err := config.DefaultPath()
		if err != nil {
			log.Fatalf("resolve config path: %v", err)
		}
		path = resolved
	}

	if *initConfig {
		if err := config.CreateSample(path); err != nil {
			log.Fatalf("init config: %v", err)
		}
		fmt.Printf("Wrote sample config to %s\n", path)
		return
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Set up logging
	logPath := *logFile
	if cfg.Paths.LogFile != "" {
		logPath = cfg.Paths.LogFile
	}
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if *noTUI {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		// TUI mode: log only to file so the screen stays clean
		log.SetOutput(f)
	}

	log.Printf("Starting %s %s", version.Product, version.Version)
	if cfg.Session.APIKey == "" {
		log.Printf("Warning: no API key configured; sessions will be refused")
	}

	companion := app.New(cfg, *noTUI)

	errCh := make(chan error, 1)
	go func() {
		errCh <- companion.Start()
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Printf("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Companion failed: %v", err)
		}
	}

	companion.Stop()
	log.Printf("Companion stopped")
}
