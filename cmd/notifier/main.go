package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/plancheck/plancheck/internal/logger"
	"github.com/plancheck/plancheck/internal/notify"
	"github.com/plancheck/plancheck/internal/rabbit"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/notifier_config.yaml", "Path to configuration file")
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

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit: %v", err)
		return
	}
	defer r.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	display := notify.LogIssuer{}
	r.Consume(ctx, func(msg amqp.Delivery) {
		n := notify.Notification{}
		err := json.Unmarshal(msg.Body, &n)
		if err != nil {
			log.Errorf("failed to parse bytes: %s", err)
			return
		}
		if err := display.Issue(ctx, n); err != nil {
			log.Errorf("failed to display notification %q: %v", n.Tag, err)
		}
	})
}
