package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/plancheck/plancheck/internal/rabbit"
)

// RabbitIssuer publishes notification payloads to the notifier queue.
type RabbitIssuer struct {
	provider *rabbit.Provider
}

func NewRabbitIssuer(provider *rabbit.Provider) *RabbitIssuer {
	return &RabbitIssuer{provider: provider}
}

func (r *RabbitIssuer) Issue(_ context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification %q: %w", n.Tag, err)
	}
	if err := r.provider.Publish(data); err != nil {
		return fmt.Errorf("failed to publish notification %q: %w", n.Tag, err)
	}
	return nil
}
