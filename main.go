package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goopenai "github.com/sashabaranov/go-openai"
	slackapi "github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"whereabouts/internal/assistant"
	"whereabouts/internal/checkin"
	"whereabouts/internal/config"
	"whereabouts/internal/openai"
	"whereabouts/internal/prompt"
	"whereabouts/internal/render"
	"whereabouts/internal/server"
	"whereabouts/internal/slack"
)

var (
	envFile string
	format  string
)

// mode selects which of the two flows a command starts.
type mode struct {
	server bool
	batch  bool
}

func main() {
	root := &cobra.Command{
		Use:   "whereabouts",
		Short: "Front-desk assistant that knows who is in the office",
		Long: "whereabouts serves the Slack OAuth callback and, once at startup, asks the model\n" +
			"where people are based on today's Slack check-ins and the building entry log.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), mode{server: true, batch: true})
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional env file to load before reading the environment")
	root.PersistentFlags().StringVar(&format, "format", string(render.FormatText), "reply output format: text or html")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Only serve the Slack OAuth callback",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), mode{server: true})
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "ask",
		Short: "Run the check-in batch once and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), mode{batch: true})
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, m mode) error {
	outFormat, ok := render.ParseFormat(format)
	if !ok {
		return fmt.Errorf("unknown --format %q, want text or html", format)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Level())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if m.server {
		if err := cfg.ValidateServer(); err != nil {
			logger.Error("Invalid server configuration", zap.Error(err))
			return err
		}
	}
	if m.batch {
		if err := cfg.ValidateBatch(); err != nil {
			logger.Error("Invalid batch configuration", zap.Error(err))
			return err
		}
	}

	// Shared by the OAuth exchange, the Slack Web API and OpenAI.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	g, gctx := errgroup.WithContext(ctx)

	if m.server {
		exchanger := slack.NewExchanger(httpClient, slack.OAuthConfig{
			ClientID:     cfg.SlackClientID,
			ClientSecret: cfg.SlackClientSecret,
			RedirectURL:  cfg.SlackRedirectURL,
		}, logger.Named("oauth"))
		srv := server.New(cfg.Addr(), server.NewRouter(exchanger, logger.Named("http")))
		g.Go(func() error {
			return server.Run(gctx, srv, logger.Named("http"))
		})
	}

	if m.batch {
		asst, err := newAssistant(cfg, httpClient, logger)
		if err != nil {
			logger.Error("Failed to set up batch", zap.Error(err))
			return err
		}
		g.Go(func() error {
			res, err := asst.Run(gctx)
			if err != nil {
				logger.Error("Batch run failed", zap.Error(err))
				return err
			}
			logger.Info("Batch run finished",
				zap.Bool("checkins_available", res.DigestAvailable),
				zap.Int("checkins", res.CheckinCount))
			fmt.Println(render.Reply(outFormat, res.Reply))
			return nil
		})
	}

	return g.Wait()
}

func newAssistant(cfg *config.Config, httpClient *http.Client, logger *zap.Logger) (*assistant.Assistant, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	entryLog, err := prompt.LoadEntryLog(cfg.EntryLogFile)
	if err != nil {
		return nil, err
	}

	slackAPI := slackapi.New(cfg.SlackToken, slackapi.OptionHTTPClient(httpClient))
	history := slack.NewHistoryReader(slackAPI, logger.Named("slack"))
	digests := checkin.NewBuilder(history, cfg.Roster.Directory(), logger.Named("checkin"), checkin.WithLocation(loc))

	openaiCfg := goopenai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		openaiCfg.BaseURL = cfg.OpenAIBaseURL
	}
	openaiCfg.HTTPClient = httpClient
	invoker := openai.NewInvoker(goopenai.NewClientWithConfig(openaiCfg), logger.Named("openai"))

	return assistant.New(digests, invoker, cfg.CheckinChannelID, prompt.Config{
		Roster:   cfg.Roster.Names(),
		EntryLog: entryLog,
		Query:    cfg.Query,
		Location: loc,
	}, logger.Named("assistant")), nil
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
