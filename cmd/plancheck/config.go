package main

import (
	"fmt"
	"strings"

	"github.com/plancheck/plancheck/internal/app"
	"github.com/plancheck/plancheck/internal/logger"
	"github.com/plancheck/plancheck/internal/rabbit"
	internalhttp "github.com/plancheck/plancheck/internal/server/http"
	"github.com/plancheck/plancheck/internal/slotbuilder"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

type NotifierConfig struct {
	// Type selects where fired reminders go: "log" or "rabbit".
	Type   string
	Rabbit rabbit.Config
}

type NotificationsConfig struct {
	// Permission is the initial platform permission state: granted, denied
	// or default. A headless deployment normally starts granted.
	Permission string
}

type VoiceConfig struct {
	WakePhrase   string
	ExtractorURL string
	APIKey       string
}

type Config struct {
	Logger        logger.Config
	Server        internalhttp.Config
	Slot          slotbuilder.Config
	Notifier      NotifierConfig
	Notifications NotificationsConfig
	Voice         VoiceConfig
	App           app.Config
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	viper.SetConfigFile(configFile)

	viper.SetDefault("logger.level", "WARN")
	viper.SetDefault("server.host", "")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("slot.slotType", "file")
	viper.SetDefault("slot.file.dir", "./data")
	viper.SetDefault("notifier.type", "log")
	viper.SetDefault("notifier.rabbit.host", "127.0.0.1")
	viper.SetDefault("notifier.rabbit.port", "5672")
	viper.SetDefault("notifier.rabbit.user", "user")
	viper.SetDefault("notifier.rabbit.password", "pass")
	viper.SetDefault("notifier.rabbit.queue", "plancheck.notify")
	viper.SetDefault("notifications.permission", "granted")
	viper.SetDefault("voice.wakePhrase", "플랜체크")
	viper.SetDefault("app.resyncSpec", "@every 1m")

	err := viper.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := viper.AllKeys()
	for _, key := range keys {
		env := viper.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			err := viper.BindEnv(key, env[len(envConfigPrefix):])
			if err != nil {
				return config, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}
