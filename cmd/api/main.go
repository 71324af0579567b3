package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nereadiving/dive-ai-assistant/cmd/mainconfig"
	"github.com/nereadiving/dive-ai-assistant/internal/api/router"
	"github.com/nereadiving/dive-ai-assistant/internal/channels/whatsapp"
	appconfig "github.com/nereadiving/dive-ai-assistant/internal/config"
	"github.com/nereadiving/dive-ai-assistant/internal/conversation"
	"github.com/nereadiving/dive-ai-assistant/internal/knowledge"
	"github.com/nereadiving/dive-ai-assistant/internal/leads"
	"github.com/nereadiving/dive-ai-assistant/internal/notify"
	"github.com/nereadiving/dive-ai-assistant/internal/observability/metrics"
	"github.com/nereadiving/dive-ai-assistant/internal/webchat"
	"github.com/nereadiving/dive-ai-assistant/pkg/logging"
)

func main() {
	// Load .env in development; ignore absence in production.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dive-ai-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	base, err := knowledge.Load(cfg.KnowledgeDir)
	if err != nil {
		logger.Error("failed to load knowledge base", "error", err)
		os.Exit(1)
	}

	awsCfg, awsErr := mainconfig.LoadAWSConfig(ctx, cfg)
	if awsErr != nil {
		logger.Warn("AWS config unavailable, Bedrock fallback and SES disabled", "error", awsErr)
	}

	llm, err := setupLLM(ctx, cfg, awsCfg, awsErr == nil, logger)
	if err != nil {
		logger.Error("failed to initialize text generation", "error", err)
		os.Exit(1)
	}

	sessions := setupSessions(cfg, logger)

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	var leadRepo leads.Repository
	if pool != nil {
		defer pool.Close()
		leadRepo = leads.NewPostgresRepository(pool)
		logger.Info("using postgres lead repository")
	} else {
		leadRepo = leads.NewInMemoryRepository()
		logger.Warn("DATABASE_URL not set, leads are stored in memory only")
	}

	notifier := setupNotifier(cfg, awsCfg, awsErr == nil, logger)

	metricsHandler, convMetrics := setupMetrics()

	engine := conversation.NewEngine(base, llm, sessions, leadRepo, notifier, convMetrics, logger, conversation.EngineConfig{
		Model:           cfg.GeminiModelID,
		LLMTimeout:      cfg.LLMTimeout,
		MaxTokens:       int32(cfg.LLMMaxTokens),
		HistoryLimit:    cfg.HistoryLimit,
		RepeatAfterDone: cfg.FlowRepeatAfterDone,
	})

	routerCfg := &router.Config{
		Logger:             logger,
		ChatHandler:        conversation.NewHandler(engine, sessions, logger),
		LeadsHandler:       leads.NewHandler(leadRepo, notifier, logger),
		WebchatHandler:     webchat.NewHandler(engine, logger),
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRatePerSecond:  cfg.RateLimitPerSecond,
		ChatBurst:          cfg.RateLimitBurst,
	}

	if cfg.WhatsAppAccessToken != "" && cfg.WhatsAppPhoneID != "" {
		routerCfg.WhatsAppAdapter = whatsapp.NewAdapter(whatsapp.Config{
			AccessToken:   cfg.WhatsAppAccessToken,
			PhoneNumberID: cfg.WhatsAppPhoneID,
			AppSecret:     cfg.WhatsAppAppSecret,
			VerifyToken:   cfg.WhatsAppVerifyToken,
			GraphAPIBase:  cfg.WhatsAppGraphAPIBase,
		}, engine, logger)
		logger.Info("whatsapp channel enabled", "phone_number_id", cfg.WhatsAppPhoneID)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight lead notifications drain before the process exits.
	notifier.Wait()

	logger.Info("server stopped")
}

// disabledLLM always errors so the engine serves its deterministic
// templates. Used when no provider is configured.
type disabledLLM struct{}

func (disabledLLM) Complete(context.Context, conversation.LLMRequest) (conversation.LLMResponse, error) {
	return conversation.LLMResponse{}, errors.New("text generation is not configured")
}

// setupLLM builds the generation chain: Gemini primary with an optional
// Bedrock Converse fallback.
func setupLLM(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, awsReady bool, logger *logging.Logger) (conversation.LLMClient, error) {
	var primary conversation.LLMClient
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, err
		}
		primary = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, replies degrade to templated answers")
		primary = disabledLLM{}
	}

	if cfg.BedrockModelID == "" || !awsReady {
		return primary, nil
	}

	bedrock := conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
	logger.Info("bedrock fallback enabled", "model", cfg.BedrockModelID)
	return conversation.NewFallbackLLMClient(primary, bedrock, cfg.BedrockModelID, logger), nil
}

// setupSessions picks Redis when configured, otherwise in-process memory.
func setupSessions(cfg *appconfig.Config, logger *logging.Logger) conversation.SessionRepository {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		logger.Warn("REDIS_ADDR not set, sessions are stored in memory only")
		return conversation.NewMemorySessionRepository()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	logger.Info("using redis session repository", "addr", cfg.RedisAddr)
	return conversation.NewRedisSessionRepository(redis.NewClient(opts), cfg.SessionTTL, nil)
}

// connectPostgresPool returns nil when no DATABASE_URL is configured or the
// pool cannot be created.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	return pool
}

// setupNotifier selects the email provider for lead notifications.
func setupNotifier(cfg *appconfig.Config, awsCfg aws.Config, awsReady bool, logger *logging.Logger) *notify.Service {
	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			sender = s
		}
	case "ses":
		if awsReady {
			if s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
				FromEmail: cfg.SESFromEmail,
			}, logger); s != nil {
				sender = s
			}
		}
	}

	var recipients []string
	for _, r := range strings.Split(cfg.NotifyEmail, ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	if sender == nil && len(recipients) > 0 {
		logger.Warn("lead notification recipients configured but no email provider is set")
	}
	return notify.NewService(sender, recipients, "", logger)
}

// setupMetrics registers conversation metrics on a fresh registry and
// returns the scrape handler.
func setupMetrics() (http.Handler, *metrics.ConversationMetrics) {
	reg := prometheus.NewRegistry()
	m := metrics.NewConversationMetrics(reg)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return handler, m
}
