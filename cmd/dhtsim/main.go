// Command dhtsim is a thin demo binary: it loads a YAML configuration,
// builds both the Ring-DHT and Prefix-DHT overlays over the same
// identifier space, drives a handful of insert/lookup/update/delete
// and join/leave calls through the shared dht.Network contract, and
// logs each overlay's hop-count summary. It is not an experiment
// driver: it has no CSV ingestion, no plotting and no result-file
// schema beyond what dhtmetrics.Summary already produces as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"dhtsim/internal/config"
	"dhtsim/internal/dht"
	"dhtsim/internal/domain"
	"dhtsim/internal/logger"
	zapfactory "dhtsim/internal/logger/zap"
	"dhtsim/internal/prefixdht"
	"dhtsim/internal/ringdht"
)

var defaultConfigPath = "config/dhtsim/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var lgr logger.Logger
	if cfg.Logger.Active {
		zapLog, err := zapfactory.New(cfg.Logger)
		if err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
		defer func() { _ = zapLog.Sync() }()
		lgr = zapfactory.NewZapAdapter(zapLog)
	} else {
		lgr = &logger.NopLogger{}
	}
	cfg.LogConfig(lgr)

	space, err := domain.NewSpace(cfg.Overlay.IDBits)
	if err != nil {
		lgr.Error("failed to initialize identifier space", logger.F("err", err))
		return
	}

	ring := ringdht.New(space, ringdht.WithLogger(lgr.Named("ring")))
	prefix := prefixdht.New(space, cfg.Overlay.PrefixLeafSetSize, cfg.Overlay.PrefixHexDigits,
		prefixdht.WithLogger(lgr.Named("prefix")))

	overlays := map[string]dht.Network{
		"chord":  ring,
		"pastry": prefix,
	}

	w := cfg.Workload
	for name, net := range overlays {
		runOverlay(lgr.Named(name), name, net, w)
	}
}

func runOverlay(lgr logger.Logger, name string, net dht.Network, w config.WorkloadConfig) {
	net.Build(w.N, w.Seed)
	lgr.Info("overlay built", logger.F("n", w.N), logger.F("seed", w.Seed))

	for i := 0; i < w.Inserts; i++ {
		title := fmt.Sprintf("movie-%d", i)
		if _, err := net.Insert(title, dht.AttributeMap{"index": i}); err != nil {
			lgr.Warn("insert failed", logger.F("err", err))
		}
	}
	for i := 0; i < w.Lookups; i++ {
		title := fmt.Sprintf("movie-%d", i%max(w.Inserts, 1))
		if _, _, err := net.Lookup(title); err != nil {
			lgr.Warn("lookup failed", logger.F("err", err))
		}
	}
	for i := 0; i < w.Updates; i++ {
		title := fmt.Sprintf("movie-%d", i%max(w.Inserts, 1))
		if _, err := net.Update(title, dht.AttributeMap{"index": i, "updated": true}); err != nil {
			lgr.Warn("update failed", logger.F("err", err))
		}
	}
	for i := 0; i < w.Deletes; i++ {
		title := fmt.Sprintf("movie-%d", i)
		if _, err := net.Delete(title); err != nil {
			lgr.Warn("delete failed", logger.F("err", err))
		}
	}
	for i := 0; i < w.JoinLeave; i++ {
		net.Join()
		net.Leave(nil)
	}

	summary := net.Metrics().Summary()
	encoded, _ := json.Marshal(summary)
	lgr.Info(name+" metrics summary", logger.F("summary", string(encoded)))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
