// issquery runs ad-hoc queries against the MoEx ISS API from the command line.
// Usage: go run ./cmd/issquery --config configs/client.example.yaml --security SBER
//
// Optional environment variables:
//
//	MOEX_PASSPORT_USER     - MoEx Passport login (for subscription endpoints)
//	MOEX_PASSPORT_PASSWORD - MoEx Passport password
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/avolkov/moex-iss-data/internal/config"
	"github.com/avolkov/moex-iss-data/internal/iss"
	"github.com/avolkov/moex-iss-data/internal/moex"
)

func main() {
	configPath := flag.String("config", "configs/client.example.yaml", "path to config file")
	securityName := flag.String("security", "", "security name or #CODE to inspect")
	lang := flag.String("lang", "", `response language ("ru" or "en"), overrides config`)
	turnovers := flag.Bool("turnovers", false, "print the latest exchange turnovers")
	engines := flag.Bool("engines", false, "print the engine list")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	// Setup logger
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// Load config
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	client := iss.NewClient(cfg.API.BaseURL, cfg.API.AuthURL,
		iss.WithLogger(logger),
		iss.WithTimeout(cfg.API.Timeout),
		iss.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		iss.WithPageSizes(cfg.Pagination.HistoryPageSize, cfg.Pagination.CollectionPageSize),
	)

	session := moex.NewSession(client, moex.WithSessionLogger(logger))
	if err := session.SetLanguage(cfg.API.Language); err != nil {
		logger.Error("invalid language in config", "error", err)
		os.Exit(1)
	}
	if *lang != "" {
		if err := session.SetLanguage(*lang); err != nil {
			logger.Error("invalid language flag", "error", err)
			os.Exit(1)
		}
	}

	if cfg.Auth.Username != "" {
		if err := session.Authenticate(ctx, cfg.Auth.Username, cfg.Auth.Password); err != nil {
			logger.Error("authentication failed", "error", err)
			os.Exit(1)
		}
	}

	ran := false

	if *engines {
		ran = true
		if err := printEngines(ctx, session); err != nil {
			logger.Error("engine list failed", "error", err)
			os.Exit(1)
		}
	}

	if *turnovers {
		ran = true
		if err := printTurnovers(ctx, session); err != nil {
			logger.Error("turnovers lookup failed", "error", err)
			os.Exit(1)
		}
	}

	if *securityName != "" {
		ran = true
		if err := printSecurity(ctx, session, *securityName); err != nil {
			logger.Error("security lookup failed", "error", err, "security", *securityName)
			os.Exit(1)
		}
	}

	if !ran {
		flag.Usage()
		os.Exit(2)
	}

	logger.Info("done", "requests", session.Requests())
}

func printEngines(ctx context.Context, session *moex.Session) error {
	engines, err := session.Exchange().Engines(ctx)
	if err != nil {
		return err
	}
	for _, engine := range engines {
		title, err := engine.Title(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %s\n", engine.ID(), title)
	}
	return nil
}

func printTurnovers(ctx context.Context, session *moex.Session) error {
	ex := session.Exchange()

	rub, err := ex.Turnovers(ctx, "rub", nil)
	if err != nil {
		return err
	}
	usd, err := ex.Turnovers(ctx, "usd", nil)
	if err != nil {
		return err
	}
	trades, err := ex.NumberOfTrades(ctx, nil)
	if err != nil {
		return err
	}

	fmt.Printf("turnovers: %s RUB / %s USD across %d trades\n", rub, usd, trades)
	return nil
}

func printSecurity(ctx context.Context, session *moex.Session, name string) error {
	sec, err := session.Security(ctx, name)
	if err != nil {
		return err
	}

	shortName, err := sec.ShortName(ctx)
	if err != nil {
		return err
	}
	board, err := sec.Board(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s) on board %s\n", sec.ID(), shortName, board.ID())

	last, err := sec.LastPrice(ctx)
	if err != nil {
		return fmt.Errorf("last price: %w", err)
	}
	change, err := sec.Change(ctx, "day", "%")
	if err != nil {
		return fmt.Errorf("daily change: %w", err)
	}
	volume, err := sec.Volume(ctx, "rub")
	if err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	fmt.Printf("last %s (%s%% today), volume %s RUB\n", last, change, volume)

	if issuer, err := sec.Issuer(ctx); err == nil && issuer != nil {
		fmt.Printf("issuer: %s (INN %s)\n", issuer.Title(), issuer.INN())
	}
	return nil
}
