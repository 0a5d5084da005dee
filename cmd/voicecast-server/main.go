// ABOUTME: Entry point for the Voicecast streaming server
// ABOUTME: Loads config, binds the opus library, and starts the server
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Voicecast-Project/voicecast-go/internal/config"
	"github.com/Voicecast-Project/voicecast-go/internal/server"
	"github.com/Voicecast-Project/voicecast-go/pkg/opus"
)

var (
	configFile = flag.String("config", "", "Config file path (YAML)")
	port       = flag.Int("port", 0, "WebSocket server port (overrides config)")
	name       = flag.String("name", "", "Server friendly name (default: hostname-voicecast-server)")
	logFile    = flag.String("log-file", "", "Log file path (overrides config)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	audioFile  = flag.String("audio", "", "Audio file to stream (MP3, FLAC, WAV). If not specified, plays test tone")
	opusLib    = flag.String("opus-lib", "", "Opus library to load (name or path). If not specified, uses the platform default")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	// Flags override the config file and environment.
	if *port != 0 {
		cfg.Port = *port
	}
	if *name != "" {
		cfg.Name = *name
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *debug {
		cfg.Debug = true
	}
	if *noMDNS {
		cfg.EnableMDNS = false
	}
	if *audioFile != "" {
		cfg.AudioFile = *audioFile
	}
	if *opusLib != "" {
		cfg.OpusLib = *opusLib
	}

	// Set up logging (both file and console)
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	multiWriter := io.MultiWriter(os.Stdout, f)
	log.SetOutput(multiWriter)

	// Determine server name
	serverName := cfg.Name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-voicecast-server", hostname)
	}

	// An explicitly requested library must load; the platform default is
	// best effort and the server falls back to pcm without it.
	if cfg.OpusLib != "" {
		if err := opus.Load(cfg.OpusLib); err != nil {
			log.Fatalf("error loading opus library: %v", err)
		}
		log.Printf("Loaded opus library: %s", cfg.OpusLib)
	} else if opus.IsLoaded() {
		log.Printf("Opus library loaded from platform default")
	} else {
		log.Printf("Opus library not available, streaming pcm only")
	}

	log.Printf("Starting Voicecast Server: %s on port %d", serverName, cfg.Port)
	if cfg.Debug {
		log.Printf("Debug logging enabled")
	}
	log.Printf("Logging to: %s", cfg.LogFile)
	log.Printf("Press Ctrl-C to stop")

	srv := server.New(server.Config{
		Port:       cfg.Port,
		Name:       serverName,
		EnableMDNS: cfg.EnableMDNS,
		Debug:      cfg.Debug,
		AudioFile:  cfg.AudioFile,
	})

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("\nReceived %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}
