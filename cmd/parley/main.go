package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/tui"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to the config file")
	listen := flag.String("listen", "", "Remote control listen address (overrides config)")
	llmBinary := flag.String("llm", "", "LLM CLI binary (overrides config)")
	noRemote := flag.Bool("no-remote", false, "Disable the remote control listener")
	noHistory := flag.Bool("no-history", false, "Skip importing past conversations at startup")
	headless := flag.Bool("headless", false, "Run without a terminal (for CI)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *llmBinary != "" {
		cfg.LLMBinary = *llmBinary
	}
	if *noRemote {
		cfg.ListenAddr = ""
	}
	if *noHistory {
		cfg.LoadHistory = false
	}

	if err := tui.Run(cfg, *headless); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
