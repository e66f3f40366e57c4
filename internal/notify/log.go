package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogIssuer writes notifications to the log. Used when no broker is
// configured and as the last stop in cmd/notifier.
type LogIssuer struct{}

func (LogIssuer) Issue(_ context.Context, n Notification) error {
	log.WithField("tag", n.Tag).WithField("silent", n.Silent).
		WithField("vibrate", n.Vibrate).
		Infof("%s: %s", n.Title, n.Body)
	return nil
}
