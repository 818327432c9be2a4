package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog-cms/pkg/config"
	"blog-cms/pkg/handlers"
	"blog-cms/pkg/logger"
	"blog-cms/pkg/metrics"
	"blog-cms/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "blog-cms",
		Short:         "Blog content manager serving articles from JSON files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), checkCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(log)
	return cfg, log, nil
}

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load content and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the data and site files load",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			store := services.NewContentStore(cfg.ArticlesPath(), cfg.CategoriesPath(), nil)
			if err := store.Initialize(); err != nil {
				return err
			}
			if _, err := services.LoadSiteConfig(cfg.SiteConfigPath); err != nil {
				return err
			}
			articles, categories := store.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d articles, %d categories\n", articles, categories)
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	gin.SetMode(cfg.GinMode)

	store := services.NewContentStore(cfg.ArticlesPath(), cfg.CategoriesPath(), log)
	if err := store.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize content service: %w", err)
	}
	log.Info("Content service initialized")

	site, err := services.LoadSiteConfig(cfg.SiteConfigPath)
	if err != nil {
		return err
	}

	var host services.ImageHost
	if cfg.Cloudinary.Enabled() {
		cld, err := services.NewCloudinaryHost(cfg.Cloudinary)
		if err != nil {
			return err
		}
		host = cld
	} else {
		log.Warn("Cloudinary credentials not set; feature images will be dropped")
	}
	images := services.NewFeatureImages(host, cfg.MaxUploadBytes, cfg.UploadTimeout, log)

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		log.Warn("SESSION_SECRET not set; using a random key, flash messages will not survive restarts")
		secret = securecookie.GenerateRandomKey(32)
	}

	m := metrics.New()
	h := handlers.NewHandler(store, images, site, m, log)
	router, err := handlers.NewRouter(h, log, handlers.RouterOptions{
		SessionSecret:  secret,
		MaxUploadBytes: cfg.MaxUploadBytes,
		TrustedProxies: cfg.TrustedProxies,
		SSLHeaders:     cfg.SSLHeaders,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
