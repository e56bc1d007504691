package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/omerorhan/currency-service/internal/api"
	"github.com/omerorhan/currency-service/internal/config"
	"github.com/omerorhan/currency-service/internal/logging"
	"github.com/omerorhan/currency-service/internal/service"
)

type app struct {
	envFile string
	cfg     *config.App
	logger  *zap.Logger
	svc     *service.CurrencyService
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "currencyctl",
		Short:         "Exchange rate lookup, conversion and display formatting",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.teardown()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "path to a .env file")

	root.AddCommand(
		newRateCmd(a),
		newConvertCmd(a),
		newRefreshCmd(a),
		newFormatCmd(),
		newCurrenciesCmd(),
		newServeCmd(a),
	)
	return root
}

// setup loads configuration and, for commands that need rates, the service.
func (a *app) setup(cmd *cobra.Command) error {
	var paths []string
	if a.envFile != "" {
		paths = append(paths, a.envFile)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	a.logger = logger
	zap.ReplaceGlobals(logger)

	if cmd.Annotations["needsService"] != "true" {
		return nil
	}

	opts := []service.ServiceOption{
		service.WithStorage(cfg.Storage.Driver, cfg.StorageDSN()),
		service.WithStorageKeyPrefix(cfg.Storage.KeyPrefix),
		service.WithCacheKey(cfg.Exchange.CacheKey),
		service.WithRatesBaseUrl(cfg.Exchange.ApiUrl),
		service.WithBaseCurrency(cfg.Exchange.BaseCurrency),
		service.WithHTTPTimeout(cfg.Exchange.HTTPTimeout),
		service.WithFreshnessWindow(cfg.Exchange.FreshnessWindow),
		service.WithRateLimit(cfg.Exchange.RequestsPerMinute, cfg.Exchange.BurstSize),
		service.WithFallbackRates(cfg.Exchange.FallbackRates),
		service.WithStrictCodes(cfg.Exchange.StrictCodes),
		service.WithLogger(logger),
	}
	if cmd.Name() == "serve" {
		opts = append(opts, service.WithRatesRefreshInterval(cfg.Scheduler.Interval))
	}

	svc, err := service.NewCurrencyService(opts...)
	if err != nil {
		return err
	}
	if err := svc.Initialize(); err != nil {
		svc.Stop()
		return err
	}
	a.svc = svc
	return nil
}

func (a *app) teardown() {
	if a.svc != nil {
		a.svc.Stop()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

var serviceAnnotation = map[string]string{"needsService": "true"}

func newRateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "rate FROM TO",
		Short:       "Print the multiplier converting one unit of FROM into TO",
		Args:        cobra.ExactArgs(2),
		Annotations: serviceAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := a.svc.GetCurrentRate(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", strconv.FormatFloat(rate, 'f', -1, 64))
			return nil
		},
	}
}

func newConvertCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:         "convert AMOUNT FROM TO",
		Short:       "Convert an amount between currencies",
		Args:        cobra.ExactArgs(3),
		Annotations: serviceAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			resp, err := a.svc.Quote(cmd.Context(), service.ConvertReq{Amount: amount, From: args[1], To: args[2]})
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(resp.Converted, 'f', -1, 64))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Formatted)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the unformatted number")
	return cmd
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "refresh",
		Short:       "Force a live fetch and update the cache",
		Args:        cobra.NoArgs,
		Annotations: serviceAnnotation,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := a.svc.RefreshRates(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "success=%t source=%s currencies=%d\n%s\n",
				res.Success, res.Source, len(res.Rates), res.Message)
			if !res.Success {
				return errors.New("live refresh failed")
			}
			return nil
		},
	}
}

func newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format AMOUNT CODE",
		Short: "Render an amount with its currency symbol",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), service.FormatAmount(amount, args[1]))
			return nil
		},
	}
}

func newCurrenciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "currencies",
		Short: "List supported currencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range service.SupportedCurrencies() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.Code, service.DisplayName(c.Code), c.Name)
			}
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "serve",
		Short:       "Run the admin HTTP API",
		Args:        cobra.NoArgs,
		Annotations: serviceAnnotation,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(a.svc, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("🚀 admin API listening", zap.String("addr", addr))
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

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			a.logger.Info("🛑 shutting down admin API")
			return srv.Shutdown(shutdownCtx)
		},
	}
}
