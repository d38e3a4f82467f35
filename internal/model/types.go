package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account, keyed by a unique phone number
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	Location    string    `json:"location"`
	Avatar      *string   `json:"avatar,omitempty"`
	IsVerified  bool      `json:"isVerified"`
	IsOnline    bool      `json:"isOnline"`
	LastSeen    time.Time `json:"lastSeen"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OtpChallenge is a pending one-time passcode for a phone number.
// Only the hash of the code is kept.
type OtpChallenge struct {
	PhoneNumber  string
	CodeHash     []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
	AttemptCount int
}

// Session maps an opaque bearer token to a user
type Session struct {
	TokenHash string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Chat represents a conversation between participants
type Chat struct {
	ID           uuid.UUID   `json:"id"`
	Name         *string     `json:"name,omitempty"`
	IsGroup      bool        `json:"isGroup"`
	Participants []uuid.UUID `json:"participants"`
	CreatedBy    uuid.UUID   `json:"createdBy"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// HasParticipant reports whether userID belongs to the chat.
func (c Chat) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// MessageType tags the content of a message
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageVideo    MessageType = "video"
	MessageAudio    MessageType = "audio"
	MessageFile     MessageType = "file"
	MessageSticker  MessageType = "sticker"
	MessageLocation MessageType = "location"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageVideo, MessageAudio, MessageFile, MessageSticker, MessageLocation:
		return true
	}
	return false
}

// Message is a unit of chat content. ID and ChatID never change after creation.
type Message struct {
	ID          uuid.UUID   `json:"id"`
	ChatID      uuid.UUID   `json:"chatId"`
	SenderID    uuid.UUID   `json:"senderId"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"messageType"`
	ReplyTo     *uuid.UUID  `json:"replyTo,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	IsDelivered bool        `json:"isDelivered"`
	IsRead      bool        `json:"isRead"`
	IsEdited    bool        `json:"isEdited"`
	EditedAt    *time.Time  `json:"editedAt,omitempty"`
	DeletedAt   *time.Time  `json:"deletedAt,omitempty"`
}

// Story is a location-scoped post visible until ExpiresAt
type Story struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"userId"`
	Location  string      `json:"location"`
	Content   string      `json:"content"`
	MediaURL  *string     `json:"mediaUrl,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
	ViewCount int         `json:"viewCount"`
	Viewers   []uuid.UUID `json:"viewers"`
}

// ActiveAt reports whether the story is still visible at now.
func (s Story) ActiveAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Feature describes an entry of the static feature catalog
type Feature struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsEnabled   bool   `json:"isEnabled"`
	Category    string `json:"category"`
	Priority    int    `json:"priority"`
}
