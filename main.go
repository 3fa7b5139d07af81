package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"userbot-telebot/internal/config"
	"userbot-telebot/internal/logger"
	"userbot-telebot/internal/login"
	"userbot-telebot/internal/mtproto"
	"userbot-telebot/internal/store"
	"userbot-telebot/internal/telegram"
)

func main() {
	envErr := godotenv.Load()
	log := logger.Init()
	if envErr != nil {
		log.Warn(".env file not found, using process environment")
	}

	if err := run(log); err != nil {
		log.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("bot stopped")
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	records := store.New(rdb, "ubot")
	if err := records.Ping(ctx); err != nil {
		return err
	}

	dialer := mtproto.NewDialer(cfg.APIID, cfg.APIHash, 30*time.Second, log)
	svc := login.NewService(login.NewRegistry(nil), dialer, records, login.Config{
		MaxAttempts:    cfg.MaxLoginAttempts,
		ResendInterval: cfg.ResendInterval(),
		TTL:            cfg.LoginTTL(),
	}, log)
	defer svc.Close()

	bot, err := telegram.NewBot(cfg.TelegramBotToken, telegram.NewHandler(svc, records, log), cfg.CommandTimeout(), log)
	if err != nil {
		return err
	}
	log.Info("bot started", "username", bot.Username())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(gctx) })
	g.Go(func() error { return svc.RunSweeper(gctx, cfg.SweepInterval()) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
