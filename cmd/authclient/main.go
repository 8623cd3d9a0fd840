// Command authclient sends one authenticated request to the configured
// backend, renewing the access token on expiry.
//
//	authclient -config ./config.yml -login user@example.com:123456 -path /me
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kbukum/authclient/authclient"
	"github.com/kbukum/authclient/config"
	"github.com/kbukum/authclient/httpclient"
	"github.com/kbukum/authclient/logger"
	"github.com/kbukum/authclient/observability"
	"github.com/kbukum/authclient/tokenstore"
	"github.com/kbukum/authclient/version"
)

func main() {
	var (
		configFile  = flag.String("config", "", "path to config.yml")
		envFile     = flag.String("env", "", "path to .env file")
		login       = flag.String("login", "", "sign in first with email:password")
		sessionPath = flag.String("session-path", "/sessions", "sign-in endpoint")
		method      = flag.String("method", http.MethodGet, "request method")
		path        = flag.String("path", "/me", "request path")
		body        = flag.String("body", "", "JSON request body")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}

	if err := run(ctx, opts, *login, *sessionPath, *method, *path, *body); err != nil {
		logger.Error("request failed", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts []config.LoaderOption, login, sessionPath, method, path, body string) error {
	cfg, err := config.Load("authclient", opts...)
	if err != nil {
		return err
	}
	logger.Init(&cfg.Logging)
	log := logger.GetGlobalLogger()

	clientOpts := []authclient.Option{authclient.WithLogger(log)}
	if cfg.Telemetry.Enabled {
		providers, err := observability.Setup(ctx, cfg.Telemetry, observability.Service{
			Name:        cfg.Name,
			Version:     cfg.Version,
			Environment: cfg.Environment,
		})
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() { _ = providers.Shutdown(context.WithoutCancel(ctx)) }()
		clientOpts = append(clientOpts, authclient.WithMeter(observability.Meter("authclient")))
	}

	store, closeStore, err := tokenstore.New(cfg.Store, log)
	if err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	defer func() { _ = closeStore() }()

	clientOpts = append(clientOpts, authclient.WithSignOut(func(ctx context.Context, cause error) {
		if cause != nil {
			log.WithError(cause).Warn("session ended, sign in again")
		}
	}))

	client, err := authclient.New(cfg.Client(), store, clientOpts...)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if login != "" {
		email, password, ok := strings.Cut(login, ":")
		if !ok {
			return fmt.Errorf("-login must be email:password")
		}
		if _, err := client.SignIn(ctx, sessionPath, map[string]string{"email": email, "password": password}); err != nil {
			return err
		}
	}

	req := httpclient.Request{Method: strings.ToUpper(method), Path: path}
	if body != "" {
		req.Body = []byte(body)
		req.Headers = map[string]string{"Content-Type": "application/json"}
	}

	resp, err := client.Send(ctx, req)
	if resp != nil {
		fmt.Printf("%d\n%s\n", resp.StatusCode, resp.Body)
	}
	return err
}
