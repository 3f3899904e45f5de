package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/oakward/identity/internal/api"
	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/internal/badge"
	"github.com/oakward/identity/internal/mail"
	"github.com/oakward/identity/internal/storage/postgres"
	redisstore "github.com/oakward/identity/internal/storage/redis"
	"github.com/oakward/identity/internal/user"
	"github.com/oakward/identity/pkg/config"
	"github.com/oakward/identity/pkg/email"
	"github.com/oakward/identity/pkg/httpserver"
	"github.com/oakward/identity/pkg/jwt"
	"github.com/oakward/identity/pkg/logger"
	"github.com/oakward/identity/pkg/pg"
	"github.com/oakward/identity/pkg/redis"
	"github.com/oakward/identity/pkg/task"
)

// appConfig holds the settings that do not belong to any one package.
type appConfig struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY,required"`
	EncryptionKey   string        `env:"OAUTH_ENCRYPTION_KEY,required"` // base64, 32 bytes decoded
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL,required"`
	ProviderSeed    string        `env:"OAUTH_PROVIDER_SEED_FILE"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	RotateRefresh   bool          `env:"REFRESH_TOKEN_ROTATION" envDefault:"true"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
	TaskTimeout     time.Duration `env:"TASK_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg   appConfig
		logCfg   logger.Config
		pgCfg    pg.Config
		rdsCfg   redis.Config
		mailCfg  email.Config
		frontCfg mail.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&rdsCfg)
	config.MustLoad(&mailCfg)
	config.MustLoad(&frontCfg)

	log := logger.New(logCfg)

	encryptionKey, err := base64.StdEncoding.DecodeString(appCfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to decode encryption key: %w", err)
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	rds, err := redis.Connect(ctx, rdsCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rds.Close()

	jwtService, err := jwt.NewFromString(appCfg.JWTSigningKey)
	if err != nil {
		return fmt.Errorf("failed to create jwt service: %w", err)
	}

	runner := task.NewRunner(log, appCfg.TaskTimeout)

	users := postgres.NewUserRepository(pool)
	sessions := postgres.NewSessionRepository(pool)
	tokens := postgres.NewTokenRepository(pool)
	oauthRepo := postgres.NewOAuthRepository(pool)
	badges := postgres.NewBadgeRepository(pool)
	states := redisstore.NewStateStore(rds)

	sender := newEmailSender(mailCfg, log)
	mailer := mail.New(sender, frontCfg)

	sessionService := auth.NewSessionService(sessions, users, jwtService,
		auth.WithSessionLogger(log),
		auth.WithAccessTokenTTL(appCfg.AccessTokenTTL),
		auth.WithRefreshTokenTTL(appCfg.RefreshTokenTTL),
		auth.WithRefreshRotation(appCfg.RotateRefresh),
	)
	verificationService := auth.NewVerificationService(users, tokens, mailer, sessionService, runner,
		auth.WithVerificationLogger(log),
	)
	passwordService := auth.NewPasswordService(users, sessionService, sessionService, runner,
		auth.WithPasswordLogger(log),
		auth.WithAfterRegister(verificationService.SendVerification),
	)
	oauthService := auth.NewOAuthService(oauthRepo, users, states, sessionService, runner,
		appCfg.PublicBaseURL, encryptionKey,
		auth.WithOAuthLogger(log),
	)
	userService := user.New(users, sessionService, user.WithLogger(log))
	badgeService := badge.New(badges)

	if err := auth.SeedProviders(ctx, oauthRepo, appCfg.ProviderSeed, log); err != nil {
		return fmt.Errorf("failed to seed oauth providers: %w", err)
	}

	// Expired verification tokens and sessions are purged on a fixed cadence.
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go task.Every(cleanupCtx, appCfg.CleanupInterval, "cleanup-expired-tokens", log,
		verificationService.CleanupExpired)
	go task.Every(cleanupCtx, appCfg.CleanupInterval, "cleanup-expired-sessions", log,
		sessionService.PurgeExpired)

	handler := api.Router(
		api.NewAuthHandler(passwordService, sessionService, verificationService, oauthService, log),
		api.NewUserHandler(userService, passwordService, sessionService, log),
		api.NewBadgeHandler(badgeService, sessionService, log),
		log,
		map[string]api.Probe{
			"postgres": pg.Healthcheck(pool),
			"redis":    redis.Healthcheck(rds),
		},
	)

	srv := httpserver.New(
		httpserver.WithAddr(appCfg.HTTPAddr),
		httpserver.WithLogger(log),
		httpserver.WithShutdownTimeout(appCfg.ShutdownTimeout),
	)

	log.InfoContext(ctx, "starting server", slog.String("addr", appCfg.HTTPAddr))
	serveErr := srv.Run(ctx, handler)

	// Give in-flight background tasks a chance to finish before exiting.
	drainCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := runner.Wait(drainCtx); err != nil {
		log.WarnContext(drainCtx, "background tasks did not drain", logger.Error(err))
	}

	return serveErr
}

// newEmailSender picks Postmark when a server token is configured, otherwise
// the file-based development sender.
func newEmailSender(cfg email.Config, log *slog.Logger) email.EmailSender {
	if cfg.PostmarkServerToken != "" {
		sender, err := email.NewPostmarkClient(cfg)
		if err == nil {
			return sender
		}
		log.Warn("postmark unavailable, falling back to dev sender", logger.Error(err))
	}
	return email.NewDevSender(cfg.DevDir)
}
