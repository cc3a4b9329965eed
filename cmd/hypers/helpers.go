package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dmagro/hypers-monitor/internal/blocks"
	"github.com/dmagro/hypers-monitor/internal/config"
	"github.com/dmagro/hypers-monitor/internal/contract"
	"github.com/dmagro/hypers-monitor/internal/dashboard"
	"github.com/dmagro/hypers-monitor/internal/env"
	"github.com/dmagro/hypers-monitor/internal/multicall"
	"github.com/dmagro/hypers-monitor/internal/price"
	"github.com/dmagro/hypers-monitor/internal/provider"
	"github.com/dmagro/hypers-monitor/internal/rpc"
	"github.com/dmagro/hypers-monitor/internal/snapshot"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	client *rpc.Client
	token  *contract.Binding
	gas    *contract.Binding
	exec   *multicall.Executor
	oracle *price.Oracle
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envPath, _ := cmd.Root().PersistentFlags().GetString("env")
	if _, err := env.Load(envPath); err != nil {
		return nil, err
	}
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	return config.Load(cfgPath)
}

func newLogger(l config.Logging) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	logger.SetLevel(level)

	switch strings.ToLower(l.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", l.Format)
	}
	return logger, nil
}

// newApp loads configuration, picks a provider and binds the contracts.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	providerName, _ := cmd.Root().PersistentFlags().GetString("provider")
	client, err := selectClient(ctx, cfg, providerName, logger)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Defaults.Timeout}
	schemas, err := contract.LoadSchemas(ctx, httpClient, cfg.ABI.Token, cfg.ABI.Gas)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract schemas: %w", err)
	}

	a := &app{
		cfg:    cfg,
		log:    logger,
		client: client,
		token:  contract.NewBinding(common.HexToAddress(cfg.Contracts.Token), schemas.Token),
		gas:    contract.NewBinding(common.HexToAddress(cfg.Contracts.Gas), schemas.Gas),
		exec:   multicall.NewExecutor(client, common.HexToAddress(cfg.Contracts.Multicall)),
	}
	a.oracle = price.NewOracle(logger, a.priceSources(httpClient)...)

	logger.WithFields(logrus.Fields{
		"provider":  client.Name(),
		"token":     a.token.Address().Hex(),
		"multicall": a.exec.Address().Hex(),
	}).Debug("dashboard wired")
	return a, nil
}

func (a *app) priceSources(httpClient *http.Client) []price.Source {
	p := a.cfg.Price
	return []price.Source{
		price.NewCoinGecko(p.CoinGeckoURL, httpClient, p.MinInterval),
		price.NewCryptoCompare(p.CryptoCompareURL, httpClient, p.MinInterval),
	}
}

// selectClient returns the named provider, the only configured one, or the
// best ranked provider of a quick probe.
func selectClient(ctx context.Context, cfg *config.Config, name string, logger logrus.FieldLogger) (*rpc.Client, error) {
	clients := provider.NewClients(cfg)

	if name != "" {
		for _, c := range clients {
			if c.Name() == name {
				return c, nil
			}
		}
		return nil, fmt.Errorf("provider '%s' not found in config", name)
	}
	if len(clients) == 1 {
		return clients[0], nil
	}

	ranked, err := provider.Probe(ctx, clients, provider.ProbeOptions{Samples: cfg.Defaults.ProbeSamples})
	if err != nil {
		return nil, err
	}
	best, err := ranked.Best()
	if err != nil {
		logger.WithError(err).Warnf("provider probe failed, falling back to %s", clients[0].Name())
		return clients[0], nil
	}
	logger.WithField("provider", best.Name).Debugf("selected provider (p95 %s)", best.Latency.P95)
	for _, c := range clients {
		if c.Name() == best.Name {
			return c, nil
		}
	}
	return clients[0], nil
}

// controller builds a dashboard controller writing to sink.
func (a *app) controller(sink dashboard.Sink) *dashboard.Controller {
	d := a.cfg.Dashboard
	return dashboard.NewController(dashboard.Options{
		Builder:       snapshot.NewBuilder(a.token, a.gas),
		Executor:      a.exec,
		Balances:      a.client,
		Price:         a.oracle,
		Sink:          sink,
		Logger:        a.log,
		PollInterval:  d.PollInterval,
		PriceInterval: a.cfg.Price.RefreshInterval,
		Window: blocks.Options{
			Token:          a.token,
			Caller:         a.client,
			ForwardWindow:  d.ForwardWindow,
			PageSize:       d.PageSize,
			MinerBatchSize: d.MinerBatchSize,
		},
	})
}
