package notification

import (
	"time"

	"github.com/google/uuid"
)

// DeviceToken is one registered push target for a user.
type DeviceToken struct {
	Token    string    `json:"token"`
	Platform string    `json:"platform"`
	LastUsed time.Time `json:"last_used"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// PushJob asks the dispatcher to notify a recipient about one new message.
// The preview is already trimmed; the dispatcher only truncates it for the
// notification body.
type PushJob struct {
	RecipientID uuid.UUID
	SenderName  string
	Preview     string
}
