package notify

import "context"

// Permission mirrors the platform notification permission states.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Notification is the dispatch payload handed to an Issuer. The issuer owns
// rendering; the scheduler only decides when and what.
type Notification struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Icon               string `json:"icon"`
	Badge              string `json:"badge"`
	Vibrate            []int  `json:"vibrate,omitempty"`
	Silent             bool   `json:"silent"`
	Tag                string `json:"tag"`
	RequireInteraction bool   `json:"requireInteraction"`
}

// Issuer displays a notification. Failures are for the caller to log and
// drop, never to retry.
type Issuer interface {
	Issue(ctx context.Context, n Notification) error
}
