package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/poddle/demotrace/internal/config"
	"github.com/poddle/demotrace/internal/server"
)

func main() {
	// Flags override environment configuration.
	port := flag.String("port", "", "Server port")
	tenant := flag.String("tenant", "", "Tenant to host (bookshop, todo, ecommerce, items)")
	collector := flag.String("collector", "", "OTLP collector endpoint")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *tenant != "" {
		cfg.Service.Tenant = *tenant
	}
	if *collector != "" {
		cfg.Exporter.Endpoint = *collector
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
