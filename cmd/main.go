package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	apiContext "github.com/dtroode/vkn-server/internal/api/http/context"
	"github.com/dtroode/vkn-server/internal/api/http/handler"
	"github.com/dtroode/vkn-server/internal/api/http/router"
	httpServer "github.com/dtroode/vkn-server/internal/api/http/server"
	"github.com/dtroode/vkn-server/internal/config"
	"github.com/dtroode/vkn-server/internal/logger"
	"github.com/dtroode/vkn-server/internal/mail"
	"github.com/dtroode/vkn-server/internal/model"
	"github.com/dtroode/vkn-server/internal/password"
	"github.com/dtroode/vkn-server/internal/repository/memory"
	"github.com/dtroode/vkn-server/internal/repository/postgres"
	redisRepo "github.com/dtroode/vkn-server/internal/repository/redis"
	"github.com/dtroode/vkn-server/internal/server"
	"github.com/dtroode/vkn-server/internal/service"
	storage "github.com/dtroode/vkn-server/internal/storage/minio"
	"github.com/dtroode/vkn-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

type stores struct {
	users         model.UserStore
	tx            model.Transactor
	refreshTokens model.RefreshTokenStore
	pinger        handler.Pinger
	closers       []func() error
}

func (s *stores) close(logger *logger.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer st.close(logger)

	notifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize mail notifier", "error", err)
	}

	tokenManager := token.NewJWT(token.Options{
		Secret:           cfg.JWT.Secret,
		RefreshSecret:    cfg.JWT.RefreshSecret,
		VerifyEmailTTL:   cfg.JWT.VerifyEmailTTL,
		ResetPasswordTTL: cfg.JWT.ResetPasswordTTL,
		AccessTTL:        cfg.JWT.AccessTTL,
		RefreshTTL:       cfg.JWT.RefreshTTL,
	})
	hasher := password.NewArgon2(cfg.KDF.Time, cfg.KDF.MemKiB, cfg.KDF.Par)
	retry := service.RetryPolicy{
		MaxRetries:      cfg.Tx.MaxRetries,
		InitialInterval: cfg.Tx.InitialBackoff,
		MaxInterval:     cfg.Tx.MaxBackoff,
	}

	authService := service.NewAuth(st.users, st.tx, st.refreshTokens, logger, tokenManager, hasher, notifier, retry)

	r := router.New(authService, authService, apiContext.NewManager(), st.pinger, cfg.HTTP.CORSOrigin, logger)
	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port), httpServer.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
	})
	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}
	wg.Wait()

	if err := notifier.Close(shutdownCtx); err != nil {
		logger.Error("pending emails were not sent", "error", err)
	}

	logger.Info("shutdown complete")
}

func openStores(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*stores, error) {
	st := &stores{}

	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("using in-memory storage, data is lost on restart")
		mem := memory.New()
		st.users = mem.Users()
		st.tx = mem
		st.refreshTokens = mem.RefreshTokens()
	case "postgres":
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)
		st.users = postgres.NewUserRepository(db)
		st.tx = postgres.NewTransactor(db)
		st.refreshTokens = postgres.NewRefreshTokenRepository(db)
		st.pinger = db
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if cfg.Redis.Addr != "" {
		client, err := redisRepo.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			st.close(logger)
			return nil, err
		}
		st.closers = append(st.closers, client.Close)
		st.refreshTokens = redisRepo.NewRefreshTokenRepository(client, cfg.Redis.KeyPrefix)
		logger.Info("refresh tokens are stored in redis", "addr", cfg.Redis.Addr)
	}

	return st, nil
}

func newNotifier(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*mail.Notifier, error) {
	templates, err := mail.NewTemplates()
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Endpoint != "" {
		client, err := storage.Open(ctx, storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Warn("template storage unavailable, using built-in templates", "error", err)
		} else {
			loaded, err := templates.LoadOverrides(ctx, client)
			if err != nil {
				logger.Warn("failed to load template overrides", "error", err)
			}
			logger.Info("email template overrides loaded", "kinds", loaded)
		}
	}

	var sender mail.Sender
	if cfg.Mail.Host != "" {
		sender, err = mail.NewSMTPSender(mail.SMTPOptions{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("MAIL_HOST is not set, emails are written to the log")
		sender = mail.NewLogSender(logger)
	}

	return mail.NewNotifier(sender, templates, mail.Options{
		ClientURL:   cfg.Mail.ClientURL,
		Workers:     cfg.Mail.Workers,
		QueueSize:   cfg.Mail.QueueSize,
		SendTimeout: cfg.Mail.SendTimeout,
	}, logger), nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
