package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"example.com/gomarket-cart/internal/config"
	"example.com/gomarket-cart/internal/infra/persistence/kv"
	"example.com/gomarket-cart/internal/infra/security"
	httpapi "example.com/gomarket-cart/internal/interface/http"
	"example.com/gomarket-cart/internal/platform/logger"
	"example.com/gomarket-cart/internal/platform/telemetry"
	cartuc "example.com/gomarket-cart/internal/usecase/cart"
)

const shutdownTimeout = 10 * time.Second

func main() {
	mintToken := flag.Bool("mint-token", false, "print a bearer token for a new cart owner and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logg.Sync()

	if *mintToken {
		if err := printOwnerToken(cfg.Auth); err != nil {
			logg.Fatal("mint token failed", "error", err)
		}
		return
	}

	if err := run(cfg, logg); err != nil {
		logg.Fatal("cart service failed", "error", err)
	}
}

func run(cfg config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "gomarket-cart", cfg.TracesStdout, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logg.Warn("tracer shutdown failed", "error", err)
		}
	}()

	store, closeStore, err := openStore(ctx, cfg.Storage, logg)
	if err != nil {
		return err
	}
	defer closeStore()

	bridge := kv.NewBridge(store, cfg.Storage.Key)
	cartSvc := cartuc.NewService(bridge, logg,
		cartuc.WithLoadTimeout(cfg.Storage.LoadTimeout),
		cartuc.WithSaveTimeout(cfg.Storage.SaveTimeout),
	)
	if err := cartSvc.Start(ctx); err != nil {
		return err
	}

	var tokenSvc httpapi.TokenParser
	if cfg.Auth.TokenSecret != "" {
		tokenSvc = security.NewJWTService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	} else {
		logg.Warn("CART_TOKEN_SECRET not set, cart API is unauthenticated")
	}

	api := httpapi.NewAPI(httpapi.Dependencies{
		CartService:  cartSvc,
		Health:       bridge,
		TokenService: tokenSvc,
		Logger:       logg,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("listening", "addr", srv.Addr, "storage", cfg.Storage.Driver, "key", bridge.Key())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if cerr := cartSvc.Close(shutdownCtx); cerr != nil {
			logg.Error("final cart save failed", "error", cerr)
		}
		return err
	})
	return g.Wait()
}

func printOwnerToken(cfg config.AuthConfig) error {
	if cfg.TokenSecret == "" {
		return errors.New("CART_TOKEN_SECRET is required to mint tokens")
	}
	ownerID := uuid.NewString()
	token, err := security.NewJWTService(cfg.TokenSecret, cfg.TokenTTL).GenerateToken(ownerID)
	if err != nil {
		return err
	}
	fmt.Printf("owner: %s\ntoken: %s\n", ownerID, token)
	return nil
}
