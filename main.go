// Starts an http server that mirrors Twitter timelines as Activity Streams
// collections.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/tkrehbiel/activitysift/stream"
	"github.com/tkrehbiel/activitysift/stream/telemetry"
)

func readConfig(filename string) stream.Config {
	var cfg stream.Config
	b, err := os.ReadFile(filename)
	if err != nil {
		telemetry.Error(err, "opening config [%s]", filename)
	} else {
		c, err := stream.ReadConfig(b)
		if err != nil {
			telemetry.Error(err, "parsing config [%s]", filename)
		}
		cfg = c
	}

	return cfg
}

func main() {
	configFile := flag.String("config", "config.json", "config json file")
	port := flag.Int("port", 0, "listen port")

	flag.Parse()

	telemetry.Log("starting activitysift")

	cfg := readConfig(*configFile)
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc := stream.NewService(cfg)

	go func() {
		if err := svc.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			telemetry.Error(err, "http listener")
		}
	}()

	// Wait for ^C
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	<-c
	telemetry.Log("stopping activitysift")
	cancel()

	// Shut down the service
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*60)
	defer shutdownCancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		telemetry.Error(err, "shutting down")
	}
	svc.Close()
	telemetry.Log("stopped activitysift cleanly")
}
