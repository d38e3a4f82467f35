package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bizchat/server/internal/model"
)

// EventTypeMessageNew is sent to the participants' connections when a message is stored via the HTTP API.
const EventTypeMessageNew = "message.new"

// Event is the envelope for server-originated frames
type Event struct {
	Type      string         `json:"type"`
	Message   *model.Message `json:"message,omitempty"`
	Timestamp int64          `json:"ts"`
}

// HubNotifier implements chat.Notifier using the Hub
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// NotifyNewMessage delivers the event only to connections authenticated as a participant.
func (n *HubNotifier) NotifyNewMessage(participants []uuid.UUID, msg model.Message) {
	data, err := json.Marshal(Event{Type: EventTypeMessageNew, Message: &msg, Timestamp: time.Now().Unix()})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.PublishToUsers(participants, data)
}
