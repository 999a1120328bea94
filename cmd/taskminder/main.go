package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskminder/internal/bot"
	"taskminder/internal/config"
	"taskminder/internal/logger"
	"taskminder/internal/notify"
	"taskminder/internal/repository"
	"taskminder/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg.LogLevel, os.Stdout)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("taskminder stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	loc, err := config.ResolveLocation(cfg.Timezone)
	if err != nil {
		log.Warn("falling back to system timezone", "error", err, "timezone", loc.String())
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	taskSvc := service.NewTaskService(repository.NewTaskRepository(db), loc)

	senders := notify.MultiSender{notify.NewSMTPSender(notify.SMTPConfig{
		Host:        cfg.Mail.Host,
		Port:        cfg.Mail.Port,
		Username:    cfg.Mail.Username,
		Password:    cfg.Mail.Password,
		ImplicitTLS: cfg.Mail.ImplicitTLS,
	})}

	var api *tgbotapi.BotAPI
	if cfg.Telegram.Enabled() {
		api, err = tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return err
		}
		log.Info("bot authorized", "account", api.Self.UserName)
		if cfg.Telegram.ChatID != 0 {
			senders = append(senders, notify.NewTelegramSender(api, cfg.Telegram.ChatID))
		}
	}

	if !cfg.MailEnabled() {
		log.Warn("mail is not configured, notification jobs will skip sending")
	}
	reminderSvc := service.NewReminderService(taskSvc, senders, service.MailSettings{
		From: cfg.Mail.Sender(),
		To:   cfg.AdminEmail,
	}, log)

	scheduler := service.NewSchedulerService(loc, log)
	jobs := service.ReminderJobs(reminderSvc, service.JobSpecs{
		CarryForward: cfg.Schedule.CarryForward,
		Daily:        cfg.Schedule.Daily,
		Overdue:      cfg.Schedule.Overdue,
		Monthly:      cfg.Schedule.Monthly,
		Reminder:     cfg.Schedule.Reminder,
	})
	for _, job := range jobs {
		if _, err := scheduler.Register(job); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info("taskminder started", "timezone", loc.String())
	if api == nil {
		<-ctx.Done()
		return nil
	}

	telegramBot := bot.New(api, taskSvc, cfg.Telegram.ChatID, log)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
