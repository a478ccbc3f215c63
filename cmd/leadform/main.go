package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"leadcapture/internal/config"
	"leadcapture/internal/crm"
	"leadcapture/internal/leadform"
	"leadcapture/internal/prompt"
)

func main() {
	log.SetPrefix("[LEADFORM] ")
	log.SetFlags(log.Ldate | log.Ltime)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Prompts own the terminal; log lines only show up in debug mode.
	if !cfg.App.Debug {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := crm.NewClient(&cfg.CRM)
	form := leadform.New(client)

	err = prompt.Run(ctx, prompt.NewSurveyDriver(), form)
	switch {
	case err == nil:
	case errors.Is(err, prompt.ErrAborted), errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "Aborted")
	default:
		fmt.Fprintf(os.Stderr, "Lead form failed: %v\n", err)
		os.Exit(1)
	}
}
