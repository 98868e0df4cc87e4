package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"stakeshare/config"
	"stakeshare/core/events"
	"stakeshare/core/state"
	"stakeshare/crypto"
	"stakeshare/native/gate"
	"stakeshare/native/lst"
	"stakeshare/native/staker"
	"stakeshare/observability/logging"
	"stakeshare/rpc"
	"stakeshare/storage"
)

const authSecretEnv = "STAKESHARE_RPC_SECRET"

// moduleAddress derives a deterministic custody address from a namespace tag.
func moduleAddress(tag string) crypto.Address {
	hash := ethcrypto.Keccak256([]byte(tag))
	return crypto.MustNewAddress(crypto.LSTPrefix, hash[12:])
}

// logEmitter forwards engine events to the structured logger.
type logEmitter struct {
	log *slog.Logger
}

func (e logEmitter) Emit(ev events.Event) {
	payload := ev.Event()
	if payload == nil {
		return
	}
	attrs := make([]any, 0, len(payload.Attributes)*2)
	for k, v := range payload.Attributes {
		attrs = append(attrs, slog.String(k, v))
	}
	e.log.Info(payload.Type, attrs...)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("stakeshared", cfg.Environment, logging.FileConfig{
		Path:       cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)
	emitter := logEmitter{log: logger}

	staking := staker.NewStateLedger(manager)

	gateInst := gate.New(moduleAddress("stakeshare/module/gate"))
	gateInst.SetState(manager)
	gateInst.SetEmitter(emitter)

	engine := lst.NewEngine(moduleAddress("stakeshare/module/engine"))
	engine.SetState(manager)
	engine.SetStaker(staking)
	engine.SetGate(gateInst)
	engine.SetEmitter(emitter)
	engine.SetTokenMetadata(cfg.Token.Name, cfg.Token.Symbol)

	if err := seedGenesis(manager, engine, gateInst, staking, cfg, logger); err != nil {
		logger.Error("genesis seeding failed", slog.Any("error", err))
		os.Exit(1)
	}

	authSecret := cfg.RPC.AuthSecret
	if env := os.Getenv(authSecretEnv); env != "" {
		authSecret = env
	}
	logger.Info("configuration loaded",
		slog.String("dataDir", cfg.DataDir),
		slog.String("listen", cfg.ListenAddress),
		logging.MaskField("rpcAuthSecret", authSecret))

	server := rpc.NewServer(engine, gateInst, staking, logger, rpc.Config{
		AuthSecret:         authSecret,
		RateLimitPerSecond: cfg.RPC.RateLimitPerSecond,
		RateLimitBurst:     cfg.RPC.RateLimitBurst,
		ReadTimeout:        time.Duration(cfg.RPC.ReadTimeoutSeconds) * time.Second,
	})

	httpServer := &http.Server{
		Addr:        cfg.ListenAddress,
		Handler:     server.Router(),
		ReadTimeout: time.Duration(cfg.RPC.ReadTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("rpc server listening", slog.String("address", cfg.ListenAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown incomplete", slog.Any("error", err))
	}
}
