package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kylepapili/DBnB-backend/config"
	"github.com/kylepapili/DBnB-backend/core"
	"github.com/kylepapili/DBnB-backend/core/state"
	"github.com/kylepapili/DBnB-backend/crypto"
	"github.com/kylepapili/DBnB-backend/observability/logging"
	"github.com/kylepapili/DBnB-backend/rpc"
	"github.com/kylepapili/DBnB-backend/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	metricsAddr := flag.String("metrics", "", "Optional address for the Prometheus metrics endpoint")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("DBNB_ENV"))
	logger := logging.Setup("dbnbd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "db"))
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	node := core.NewNode(db)
	if err := bootstrap(node, cfg, logger); err != nil {
		logger.Error("failed to bootstrap ledger", slog.Any("error", err))
		os.Exit(1)
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	server := rpc.NewServer(node, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// bootstrap writes the genesis singleton on first run. A ledger that is
// already initialised is left untouched.
func bootstrap(node *core.Node, cfg *config.Config, logger *slog.Logger) error {
	seed, err := cfg.Seed()
	if err != nil {
		return err
	}

	owner, err := nodeOwner(cfg)
	if err != nil {
		return err
	}

	err = node.InitGenesis(owner, seed)
	switch {
	case err == nil:
		logger.Info("initialized ledger genesis",
			slog.String("owner", owner.String()),
			slog.String("network", cfg.NetworkName),
		)
		return nil
	case errors.Is(err, state.ErrAlreadyInitialized):
		return nil
	default:
		return err
	}
}

// nodeOwner loads or creates the operator key alongside the config file and
// returns its address.
func nodeOwner(cfg *config.Config) (crypto.Address, error) {
	keyPath := filepath.Join(cfg.DataDir, "node.key")
	raw, err := os.ReadFile(keyPath)
	if err == nil {
		key, err := crypto.PrivateKeyFromBytes(raw)
		if err != nil {
			return crypto.Address{}, fmt.Errorf("corrupt node key %s: %w", keyPath, err)
		}
		return key.PubKey().Address(), nil
	}
	if !os.IsNotExist(err) {
		return crypto.Address{}, err
	}

	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return crypto.Address{}, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return crypto.Address{}, err
	}
	if err := os.WriteFile(keyPath, key.Bytes(), 0o600); err != nil {
		return crypto.Address{}, err
	}
	return key.PubKey().Address(), nil
}
