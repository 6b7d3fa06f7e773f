package main

import (
	"flag"
	"fmt"
	"os"

	"typerace/internal/logging"
	"typerace/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	gatewayURL := flag.String("gateway", envOr("GATEWAY_URL", "http://localhost:8080"), "gateway base URL")
	username := flag.String("user", "", "username to prefill")
	maxPlayers := flag.Int("max-players", 0, "room size for rooms you create (0 uses the server default)")
	logFile := flag.String("log", "", "write debug logs to this file")
	flag.Parse()

	opts := tui.Options{
		GatewayURL: *gatewayURL,
		Username:   *username,
		MaxPlayers: *maxPlayers,
		Logger:     logging.Discard(),
	}

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		opts.Logger = logging.NewWithWriter(f, "debug", "text")
	}

	p := tea.NewProgram(tui.New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
