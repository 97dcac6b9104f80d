package comm

import "time"

const (
	CardKeyEventsSubject = "cardkey.events"

	EventGenerated = "cardkey.generated"
	EventRedeemed  = "cardkey.redeemed"
)

// CardKeyEvent is published after a generation run or redemption commits.
type CardKeyEvent struct {
	Type       string    `json:"type"`
	InstanceId string    `json:"instance_id"`
	Count      int       `json:"count,omitempty"`    // generated
	KeyCode    string    `json:"key_code,omitempty"` // redeemed
	At         time.Time `json:"at"`
}
