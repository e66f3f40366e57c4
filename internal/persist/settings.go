package persist

import (
	"context"
	"encoding/json"
	"fmt"
)

// SettingsKey is the slot key for global settings, separate from the
// schedule envelope.
const SettingsKey = "plancheck_settings"

type Settings struct {
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

func DefaultSettings() Settings {
	return Settings{NotificationsEnabled: true}
}

func (a *Adapter) SaveSettings(ctx context.Context, s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := a.slot.Set(ctx, SettingsKey, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

// LoadSettings falls back to defaults when nothing is stored.
func (a *Adapter) LoadSettings(ctx context.Context) (Settings, error) {
	data, ok, err := a.slot.Get(ctx, SettingsKey)
	if err != nil {
		return DefaultSettings(), fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	if !ok {
		return DefaultSettings(), nil
	}
	var s Settings
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return DefaultSettings(), fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	return s, nil
}
