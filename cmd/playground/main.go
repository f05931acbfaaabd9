package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/layer-3/playground"
	"github.com/layer-3/playground/adapters/builder"
	"github.com/layer-3/playground/adapters/events"
	"github.com/layer-3/playground/adapters/ledger"
	"github.com/layer-3/playground/adapters/tokenizer"
	"github.com/layer-3/playground/internal/config"
	"github.com/layer-3/playground/ports"
	"github.com/layer-3/playground/service"
	"github.com/layer-3/playground/transport/http"
)

func main() {
	app := &cli.App{
		Name:  "playground",
		Usage: "Stateless Sui challenge playground",
		Commands: []*cli.Command{
			serveCommand(),
			infoCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a challenge project",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Usage:   "Challenge project root holding challenge.yml, contracts/ and sources/",
				EnvVars: []string{"PLAYGROUND_ROOT"},
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.addr",
			},
			&cli.StringFlag{
				Name:  "network",
				Usage: "Sui network (localnet, devnet, testnet or mainnet), overrides ledger.network",
			},
		},
		Action: serve,
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Print the description of a running challenge",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Challenge server URL",
				EnvVars: []string{"PLAYGROUND_SERVER"},
				Value:   "http://localhost:8080",
			},
		},
		Action: func(c *cli.Context) error {
			client := playground.NewHTTPClient(c.String("server"), nil)
			info, err := client.ChallengeInfo(c.Context)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}

func serve(c *cli.Context) error {
	root := c.String("root")

	overrides := map[string]any{}
	if addr := c.String("addr"); addr != "" {
		overrides["server.addr"] = addr
	}
	if network := c.String("network"); network != "" {
		overrides["ledger.network"] = network
	}

	cfg, err := config.NewLoader(
		config.WithChallengeFile(filepath.Join(root, config.DefaultChallengeFile)),
		config.WithOverrides(overrides),
	).Load()
	if err != nil {
		return err
	}

	logger, err := setupLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	chain, closeLedger, err := setupLedger(ctx, cfg.Ledger)
	if err != nil {
		return err
	}
	defer closeLedger()

	key, err := cfg.TokenKey()
	if err != nil {
		return err
	}
	tok, err := tokenizer.NewAEADTokenizer(key, tokenizer.WithTTL(cfg.Token.TTL))
	if err != nil {
		return err
	}

	moveCLI, err := builder.NewMoveCLI(cfg.Build.Cmd)
	if err != nil {
		return err
	}

	eventPub, closeEvents, err := setupEvents(cfg.Events)
	if err != nil {
		return err
	}
	defer closeEvents()

	source, err := service.LoadSource(root)
	if err != nil {
		return err
	}

	svc, err := service.NewChallengeService(cfg.Challenge, root, chain, tok, moveCLI, eventPub,
		service.WithLogger(logger),
		service.WithSource(source),
		service.WithGasBudget(cfg.Ledger.Gas),
	)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := http.SetupRouter(svc, http.RouterConfig{
		Timeout:  cfg.Server.Timeout,
		Logger:   logger,
		Registry: registry,
	})

	srv := &stdhttp.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving challenge", "contract", cfg.Challenge.Contract, "addr", cfg.Server.Addr, "network", cfg.Ledger.Network)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg config.LogConfig, w io.Writer) (log.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.JSON {
		return log.NewLogger(log.JSONHandlerWithLevel(w, level)), nil
	}
	return log.NewLogger(log.NewTerminalHandlerWithLevel(w, level, false)), nil
}

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

func parseLevel(s string) (slog.Level, error) {
	level, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func setupLedger(ctx context.Context, cfg config.LedgerConfig) (ports.Ledger, func(), error) {
	url, err := ledger.Endpoint(cfg.Network, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	client, err := ledger.DialSui(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

func setupEvents(cfg config.EventsConfig) (ports.EventPublisher, func(), error) {
	if cfg.Redis == "" {
		return events.Nop{}, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("create redis publisher: %w", err)
	}

	closeFn := func() {
		_ = publisher.Close()
		_ = redisClient.Close()
	}
	return events.NewWatermillPublisher(publisher, cfg.Topic), closeFn, nil
}
