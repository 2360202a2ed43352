package whatsapp

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("whatsapp: message not found")
	ErrInvalidArgument = errors.New("whatsapp: invalid argument")
)

type Direction string

const (
	DirectionReceived Direction = "Received"
	DirectionSent     Direction = "Sent"
)

// Message is one WhatsApp message. (ID, From, To) identifies it.
type Message struct {
	ID           string    `json:"id"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	Message      string    `json:"message"`
	ProfileName  string    `json:"profile_name,omitempty"`
	SentReceived Direction `json:"sent_received"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
