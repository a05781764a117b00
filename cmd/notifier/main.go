package main

import (
	"context"
	"errors"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/rabbitmq"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"

	callbackhandler "github.com/storelane/notification-service/internal/api/handlers/callback"
	notifhandler "github.com/storelane/notification-service/internal/api/handlers/notification"
	prefhandler "github.com/storelane/notification-service/internal/api/handlers/preference"
	"github.com/storelane/notification-service/internal/api/router"
	"github.com/storelane/notification-service/internal/api/server"
	"github.com/storelane/notification-service/internal/channel"
	chatchannel "github.com/storelane/notification-service/internal/channel/chat"
	emailchannel "github.com/storelane/notification-service/internal/channel/email"
	pushchannel "github.com/storelane/notification-service/internal/channel/push"
	smschannel "github.com/storelane/notification-service/internal/channel/sms"
	socketchannel "github.com/storelane/notification-service/internal/channel/socket"
	"github.com/storelane/notification-service/internal/config"
	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/orchestrator"
	notifmsg "github.com/storelane/notification-service/internal/rabbitmq/handlers/notification"
	"github.com/storelane/notification-service/internal/rabbitmq/queue"
	"github.com/storelane/notification-service/internal/realtime"
	"github.com/storelane/notification-service/internal/recipient"
	attemptrepo "github.com/storelane/notification-service/internal/repository/attempt"
	endpointrepo "github.com/storelane/notification-service/internal/repository/endpoint"
	notifrepo "github.com/storelane/notification-service/internal/repository/notification"
	prefrepo "github.com/storelane/notification-service/internal/repository/preference"
	queuerepo "github.com/storelane/notification-service/internal/repository/queue"
	notifsvc "github.com/storelane/notification-service/internal/service/notification"
	prefsvc "github.com/storelane/notification-service/internal/service/preference"
	"github.com/storelane/notification-service/internal/templates"
	"github.com/storelane/notification-service/internal/worker"
	"github.com/storelane/notification-service/pkg/email"
	"github.com/storelane/notification-service/pkg/push"
	"github.com/storelane/notification-service/pkg/sms"
	"github.com/storelane/notification-service/pkg/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.Must()
	val := validator.New()

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL(), cfg.RabbitMQ.Retries, cfg.RabbitMQ.Pause)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to open channel")
	}

	dispatchQ, err := queue.NewDispatchQueue(ch)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to create dispatch queue")
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	notifications := notifrepo.NewRepository(db)
	attempts := attemptrepo.NewRepository(db)
	preferences := prefrepo.NewRepository(db)
	endpoints := endpointrepo.NewRepository(db)
	dispatchItems := queuerepo.NewRepository(db)

	dbNum, err := strconv.Atoi(cfg.Redis.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to parse redis database")
	}

	rdb := redis.New(cfg.Redis.Address, cfg.Redis.Password, dbNum)
	if err = rdb.Ping(ctx).Err(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	smtpPort, err := strconv.Atoi(cfg.Email.SMTPPort)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to parse email smtp port")
	}

	emailClient := email.NewClient(
		cfg.Email.SMTPHost,
		smtpPort,
		cfg.Email.Username,
		cfg.Email.Password,
		cfg.Email.From,
	)
	pushClient := push.NewClient(cfg.Push.BaseURL, cfg.Push.APIKey)
	smsClient := sms.NewClient(cfg.SMS.BaseURL, cfg.SMS.APIKey, cfg.SMS.Sender)
	telegramClient := telegram.NewClient(cfg.Telegram.Token)

	registry := realtime.NewRegistry()
	go registry.Run(ctx, cfg.Realtime.SweepInterval, cfg.Realtime.IdleTimeout)

	renderer := channel.NewRenderer(templates.NewStore())

	adapters := map[model.Channel]channel.Adapter{
		model.ChannelPush:   pushchannel.NewAdapter(pushClient, renderer),
		model.ChannelEmail:  emailchannel.NewAdapter(emailClient, renderer),
		model.ChannelSMS:    smschannel.NewAdapter(smsClient, renderer),
		model.ChannelChat:   chatchannel.NewAdapter(telegramClient, renderer),
		model.ChannelSocket: socketchannel.NewAdapter(registry, renderer),
	}

	directory := recipient.NewDirectory(endpoints, preferences)

	dispatcher := orchestrator.New(adapters, attempts, notifications, directory, dispatchItems, orchestrator.Config{
		SendTimeout: cfg.Dispatch.SendTimeout,
		BackoffBase: cfg.Dispatch.BackoffBase,
		BackoffCap:  cfg.Dispatch.BackoffCap,
	})

	messageHandler := notifmsg.NewHandler(notifications, dispatcher, dispatchItems, rdb, cfg.Retry)
	pool := worker.NewPool(dispatchQ, messageHandler)
	go pool.Run(ctx, cfg.Retry, cfg.Workers.Count)

	scheduler := worker.NewScheduler(dispatchItems, dispatchQ, cfg.Retry, cfg.Scheduler.PollInterval, cfg.Scheduler.BatchSize)
	go scheduler.Run(ctx)

	service := notifsvc.NewService(notifications, attempts, dispatchItems, dispatcher, pool, rdb, cfg.Dispatch.MaxRetries)
	preferenceService := prefsvc.NewService(preferences)

	r := router.New(
		notifhandler.NewHandler(service, val, cfg.Retry),
		prefhandler.NewHandler(preferenceService, val),
		callbackhandler.NewHandler(service, val, cfg.Retry),
	)
	s := server.New(cfg.Server.HTTPPort, r)

	go func() {
		if err := s.ListenAndServe(); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	if err := db.Master.Close(); err != nil {
		zlog.Logger.Printf("failed to close master DB: %v", err)
	}

	for i, slave := range db.Slaves {
		if err := slave.Close(); err != nil {
			zlog.Logger.Printf("failed to close slave DB %d: %v", i, err)
		}
	}

	if err := ch.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close RabbitMQ channel")
	}

	if err := conn.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close RabbitMQ connection")
	}
}
