package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parley-chat/parley"
	"github.com/parley-chat/parley/blob"
	"github.com/parley-chat/parley/db"
	"github.com/parley-chat/parley/httpapi"
	"github.com/parley-chat/parley/presence"
	"github.com/parley-chat/parley/realtime"
)

const configDirEnv = "PARLEYD_CONFIG_DIR"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "run":
		case "version":
			fmt.Printf("parleyd %s\n", parley.Version)
			return
		default:
			printUsage()
			os.Exit(1)
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parleyd: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, `Parley — self-hosted chat server (%s)

Usage:
  %s [command]

Commands:
  run            Start the server (default)
  version        Print version

Environment:
  %s   Configuration directory (default: the OS user config dir)
`, parley.Version, exe, configDirEnv)
}

func run() error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	configDir := os.Getenv(configDirEnv)
	if configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("resolving config dir : %w", err)
		}
		configDir = filepath.Join(base, "parley")
	}

	server, err := parley.New(
		parley.WithLogger(logger),
		parley.WithConfigDir(configDir),
	)
	if err != nil {
		return fmt.Errorf("configuring server : %w", err)
	}

	conn, err := db.New(filepath.Join(configDir, server.Config.DatabaseFile))
	if err != nil {
		return fmt.Errorf("opening database : %w", err)
	}
	repo := db.NewChatRepo(conn)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	presenceClient, err := presence.New(ctx, server.Config.RedisAddr, server.Config.RedisPass, server.Config.RedisDB)
	if err != nil {
		return fmt.Errorf("connecting to redis : %w", err)
	}

	options := []func(*parley.Server) error{
		parley.WithRepo(repo),
		parley.WithPresence(presenceClient),
		parley.WithTLS(),
		parley.WithAddress(server.Config.Address, server.Config.Port),
	}

	if server.Config.BlobAccess != "" {
		store, err := blob.New(ctx, server.Config.BlobEndpoint, server.Config.BlobAccess,
			server.Config.BlobSecret, server.Config.BlobBucket, server.Config.BlobBaseURL,
			server.Config.BlobSecure)
		if err != nil {
			return fmt.Errorf("connecting to blob storage : %w", err)
		}
		options = append(options, parley.WithBlobStore(store))
	} else {
		logger.Warn("blob storage is not configured, avatars are disabled")
	}

	if err := server.WithOptions(options...); err != nil {
		return err
	}

	exts, err := repo.GetExtensions()
	if err != nil {
		return fmt.Errorf("loading extensions : %w", err)
	}
	if err := server.WithOptions(parley.WithExtensions(exts)); err != nil {
		return err
	}

	go server.WriteToDB()

	hub := realtime.NewHub(server, repo, repo, presenceClient)
	go hub.Run(ctx)

	handler := httpapi.NewHandler(server, hub)

	listener, err := server.GetListener(server.Config.Address, server.Config.Port)
	if err != nil {
		return fmt.Errorf("starting listener : %w", err)
	}

	printBanner(server)

	srv := &http.Server{Handler: handler.Router()}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving : %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	server.Close()
	return nil
}

func printBanner(server *parley.Server) {
	scheme := "http"
	wsScheme := "ws"
	if server.TLSConfig != nil {
		scheme = "https"
		wsScheme = "wss"
	}

	host := server.Addr
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}

	fmt.Println("========================================")
	fmt.Printf("  Parley Chat Server %s\n", parley.Version)
	fmt.Println("========================================")
	fmt.Printf("  Listening on  %s:%s\n", server.Addr, server.Port)
	fmt.Printf("  REST API      %s://%s:%s/api\n", scheme, host, server.Port)
	fmt.Printf("  WebSocket     %s://%s:%s/ws\n", wsScheme, host, server.Port)
	fmt.Printf("  Config        %s\n", server.ConfigDir)
	fmt.Println("========================================")
}
