package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"luma/internal/config"
	"luma/internal/replay"
)

func main() {
	var configPath string
	var summarizePath string
	flag.StringVar(&configPath, "config", "./luma.yaml", "Path to YAML config")
	flag.StringVar(&summarizePath, "summarize", "", "Print a summary of a ride log and exit")
	flag.Parse()

	if summarizePath != "" {
		recs, err := replay.ReadFile(summarizePath)
		if err != nil {
			log.Fatalf("ride log read failed: %v", err)
		}
		fmt.Print(summarizeRideLog(recs).String())
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("luma starting board=%s rate=%.0fHz sensor=%s leds=%s/%d link=%s",
		cfg.Board, cfg.SampleRateHz, cfg.Sensor.Driver, cfg.LEDs.Driver, cfg.LEDs.Count, cfg.Link.Transport)

	rt, err := newRuntime(cfg)
	if err != nil {
		log.Fatalf("runtime init failed: %v", err)
	}
	defer rt.Close()

	if err := rt.Run(ctx); err != nil {
		log.Printf("runtime stopped: %v", err)
	}
	log.Printf("luma stopping")
}
