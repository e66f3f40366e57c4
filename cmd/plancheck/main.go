package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plancheck/plancheck/internal/app"
	"github.com/plancheck/plancheck/internal/logger"
	"github.com/plancheck/plancheck/internal/notify"
	"github.com/plancheck/plancheck/internal/persist"
	"github.com/plancheck/plancheck/internal/rabbit"
	"github.com/plancheck/plancheck/internal/reminder"
	internalhttp "github.com/plancheck/plancheck/internal/server/http"
	"github.com/plancheck/plancheck/internal/slotbuilder"
	"github.com/plancheck/plancheck/internal/store"
	"github.com/plancheck/plancheck/internal/voice"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	slot, err := slotbuilder.New(config.Slot)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		slot.Close(ctx)
	}()

	issuer, closeIssuer, err := buildIssuer(config.Notifier)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer closeIssuer()

	scheduler := reminder.New(issuer, reminder.NewMetrics("plancheck"))
	scheduler.SetPermission(notify.Permission(config.Notifications.Permission))

	plancheck := app.New(store.New(), persist.New(slot), scheduler, config.App)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if err := plancheck.Start(ctx); err != nil {
		log.Errorf("failed to load stored schedules: %v", err)
	}

	var bridge *voice.Bridge
	if config.Voice.ExtractorURL != "" {
		bridge = voice.NewBridge(config.Voice.WakePhrase, voice.NewHTTPExtractor(voice.ExtractorConfig{
			URL:    config.Voice.ExtractorURL,
			APIKey: config.Voice.APIKey,
		}))
	}

	server := internalhttp.NewServer(config.Server, plancheck, bridge)

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		plancheck.Stop(ctx)
		if err := server.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
	}()

	log.Info("plancheck is running...")

	if err := server.Start(ctx); err != nil {
		log.Error("failed to start http server: " + err.Error())
		cancel()
		os.Exit(1) //nolint:gocritic
	}
}

func buildIssuer(config NotifierConfig) (notify.Issuer, func(), error) {
	switch config.Type {
	case "rabbit":
		provider := rabbit.New(config.Rabbit)
		if err := provider.Connect(); err != nil {
			return nil, nil, err
		}
		return notify.NewRabbitIssuer(provider), provider.Close, nil
	default:
		return notify.LogIssuer{}, func() {}, nil
	}
}
