package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/DouglasMacKrell/namegnome-serve/internal/anthology"
	"github.com/DouglasMacKrell/namegnome-serve/internal/applier"
	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/config"
	"github.com/DouglasMacKrell/namegnome-serve/internal/disambig"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/mapper"
	"github.com/DouglasMacKrell/namegnome-serve/internal/planner"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers"
	"github.com/DouglasMacKrell/namegnome-serve/internal/scanner"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services/ollama"
)

// commandContext lazily wires the pipeline components shared by commands.
type commandContext struct {
	configFlag  *string
	offlineFlag *bool

	once      sync.Once
	onceErr   error
	cfg       *config.Config
	logger    *slog.Logger
	store     *cachestore.Store
	gateway   *providers.Gateway
	ledger    *disambig.Ledger
	scanner   *scanner.Scanner
	planner   *planner.Planner
	executor  *applier.Executor
	configSrc string
}

func newCommandContext(configFlag *string, offlineFlag *bool) *commandContext {
	return &commandContext{configFlag: configFlag, offlineFlag: offlineFlag}
}

func (c *commandContext) ensure() error {
	c.once.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.onceErr = err
			return
		}
		if c.offlineFlag != nil && *c.offlineFlag {
			cfg.Providers.Offline = true
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.onceErr = err
			return
		}

		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.onceErr = err
			return
		}
		store, err := cachestore.Open(cfg.Paths.CachePath)
		if err != nil {
			c.onceErr = err
			return
		}

		var gatewayOpts []providers.Option
		if artwork, artErr := providers.ArtworkClient(cfg); artErr != nil {
			logger.Warn("fanarttv client unavailable", logging.Error(artErr))
		} else if artwork != nil {
			gatewayOpts = append(gatewayOpts, providers.WithArtworkClient(artwork))
		}
		gateway := providers.NewGateway(store, cfg, logger, providers.BuildClients(cfg, logger), gatewayOpts...)
		ledger := disambig.NewLedger(store, logger)

		var completer anthology.Completer
		if cfg.LLM.Enabled {
			completer = ollama.NewClient(ollama.Config{
				BaseURL:        cfg.LLM.BaseURL,
				Model:          cfg.LLM.Model,
				TimeoutSeconds: cfg.LLM.TimeoutSeconds,
			})
		}
		resolver := anthology.NewResolver(completer, logger)
		m := mapper.New(store, gateway, ledger, resolver, logger)

		c.cfg = cfg
		c.configSrc = resolved
		c.logger = logger
		c.store = store
		c.gateway = gateway
		c.ledger = ledger
		c.scanner = scanner.New(logger)
		c.planner = planner.New(m, logger)
		c.executor = applier.New(store, logger,
			time.Duration(cfg.Apply.LockTimeoutSeconds)*time.Second,
			time.Duration(cfg.Apply.LockStaleSeconds)*time.Second)
	})
	return c.onceErr
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}
