package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/agents/intent"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/agents/relay"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/dispatch"
	journalx "github.com/tanpawarit/Chative-Commerce-Relay/agent/journal"
	llmx "github.com/tanpawarit/Chative-Commerce-Relay/agent/llm"
	promptx "github.com/tanpawarit/Chative-Commerce-Relay/agent/prompt"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
	toolx "github.com/tanpawarit/Chative-Commerce-Relay/agent/tool"
	"github.com/tanpawarit/Chative-Commerce-Relay/pkg/commerce"
	configx "github.com/tanpawarit/Chative-Commerce-Relay/pkg/config"
	logx "github.com/tanpawarit/Chative-Commerce-Relay/pkg/logger"
	qstashx "github.com/tanpawarit/Chative-Commerce-Relay/pkg/qstash"
	"github.com/tanpawarit/Chative-Commerce-Relay/server/handler"
)

const (
	prefsBackendUpstash = "upstash"
	prefsBackendRedis   = "redis"
)

type AppConfig struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	MaxHistory      int           `envconfig:"MAX_HISTORY" default:"40"`
	BridgeTimeout   time.Duration `envconfig:"BRIDGE_TIMEOUT" default:"5s"`
	PrefsBackend    string        `envconfig:"PREFS_BACKEND"`
	PrefsTTL        time.Duration `envconfig:"PREFS_TTL" default:"720h"`
	JournalDSN      string        `envconfig:"JOURNAL_DSN"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// stack is everything serve and mcp share. Storefront and model configuration
// errors are kept rather than returned so the process still starts and each
// request reports them.
type stack struct {
	cfg *AppConfig

	gateway   contractx.Gateway
	customers handler.Customers
	shopURL   string

	registry   *toolx.Registry
	dispatcher *dispatch.Dispatcher

	agent    *intent.Agent
	relay    *relay.Relay
	modelErr error

	prefs  statex.PreferenceStore
	checks []handler.Check

	closers []func() error
}

func initLogger(stderr bool) {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init(logx.Config{Stderr: stderr})
		cliLog().Warn().Err(err).Msg("log config invalid, using defaults")
		return
	}
	conf.Stderr = stderr
	logx.Init(*conf)
}

func cliLog() *zerolog.Logger {
	l := logx.Component("cli")
	return &l
}

func buildStack(ctx context.Context, withModels bool) (*stack, error) {
	cfg, err := configx.New[AppConfig]("")
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}

	s := &stack{cfg: cfg, registry: toolx.NewRegistry()}
	s.buildCommerce()

	sink, err := s.buildJournal(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.dispatcher, err = dispatch.New(s.registry, s.gateway, dispatch.WithJournal(sink))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	if withModels {
		s.buildModels(ctx)
		if err := s.buildPrefs(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *stack) buildCommerce() {
	conf, err := configx.New[commerce.Config]("SHOPIFY")
	if err == nil {
		var c *commerce.Client
		if c, err = commerce.NewClient(*conf); err == nil {
			s.gateway, s.customers, s.shopURL = c, c, c.ShopURL()
			return
		}
	}
	cliLog().Warn().Err(err).Msg("storefront not configured, commerce calls will fail")
	u := commerce.Unavailable{Err: err}
	s.gateway, s.customers = u, u
}

func (s *stack) buildJournal(ctx context.Context) (journalx.Sink, error) {
	var sinks journalx.Multi

	if dsn := strings.TrimSpace(s.cfg.JournalDSN); dsn != "" {
		db, err := journalx.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		sinks = append(sinks, db)
		s.checks = append(s.checks, handler.Check{Name: "journal", Ping: db.Ping})
		s.closers = append(s.closers, db.Close)
	}

	if conf, err := configx.New[qstashx.Config]("QSTASH"); err == nil {
		qc, err := qstashx.NewClient(*conf)
		if err != nil {
			return nil, fmt.Errorf("qstash client: %w", err)
		}
		sinks = append(sinks, journalx.NewQStashSink(qc, qc.Destination()))
	} else {
		cliLog().Debug().Err(err).Msg("qstash fan-out disabled")
	}

	if len(sinks) == 0 {
		return journalx.Nop{}, nil
	}
	return sinks, nil
}

func (s *stack) buildModels(ctx context.Context) {
	s.modelErr = s.tryBuildModels(ctx)
	if s.modelErr != nil {
		cliLog().Warn().Err(s.modelErr).Msg("language model not configured, chat endpoints disabled")
	}
}

func (s *stack) tryBuildModels(ctx context.Context) error {
	conf, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrConfig, err)
	}
	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return err
	}

	intentModel, err := conf.NewChatModel(ctx, llmx.RoleIntent, &llmx.ResponseSchema{
		Name:   "tool_use",
		Schema: s.registry.ResponseSchema(),
	})
	if err != nil {
		return err
	}
	summaryModel, err := conf.NewChatModel(ctx, llmx.RoleSummary, nil)
	if err != nil {
		return err
	}

	extractor, err := intent.NewExtractor(ctx, intentModel, prompts.Intent, s.registry)
	if err != nil {
		return err
	}
	summarizer, err := intent.NewSummarizer(ctx, summaryModel, prompts.Summary)
	if err != nil {
		return err
	}
	if s.agent, err = intent.NewAgent(extractor, summarizer); err != nil {
		return err
	}
	s.relay, err = relay.New(extractor, summarizer, s.dispatcher, relay.Config{MaxHistory: s.cfg.MaxHistory})
	return err
}

func (s *stack) buildPrefs(ctx context.Context) error {
	opts := []statex.StoreOption{statex.WithTTL(s.cfg.PrefsTTL)}

	switch backend := strings.ToLower(strings.TrimSpace(s.cfg.PrefsBackend)); backend {
	case prefsBackendUpstash:
		conf, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return fmt.Errorf("upstash config: %w", err)
		}
		store, err := statex.NewUpstashRedisStore(*conf, opts...)
		if err != nil {
			return err
		}
		s.prefs = store
	case prefsBackendRedis:
		conf, err := configx.New[statex.RedisConfig]("REDIS")
		if err != nil {
			return fmt.Errorf("redis config: %w", err)
		}
		rdb, err := conf.New(ctx)
		if err != nil {
			return err
		}
		store, err := statex.NewRedisStore(rdb, opts...)
		if err != nil {
			_ = rdb.Close()
			return err
		}
		s.prefs = store
		s.checks = append(s.checks, handler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		s.closers = append(s.closers, rdb.Close)
	case "", "none":
		s.prefs = statex.NopStore{}
	default:
		return fmt.Errorf("%w: unknown PREFS_BACKEND %q", contractx.ErrConfig, backend)
	}
	return nil
}

func (s *stack) Close() {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		cliLog().Error().Err(err).Msg("close resources")
	}
}
