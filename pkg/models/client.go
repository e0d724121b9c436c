package models

import (
	"strings"
	"time"
)

// Client is one correspondent, identified by lowercase email. Created on
// first contact, never deleted.
type Client struct {
	Email     string         `json:"email"`
	Name      string         `json:"name,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Company   string         `json:"company,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	History   []HistoryEntry `json:"history,omitempty"`
}

// HistoryEntry is one message in a client's append-only history.
type HistoryEntry struct {
	MsgID     string    `json:"msg_id"`
	Direction Direction `json:"direction"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Ts        time.Time `json:"ts"`
}

// Direction marks whether a history entry was received or sent.
type Direction string

const (
	// DirectionInbound is a message received from the client
	DirectionInbound Direction = "inbound"
	// DirectionOutbound is a draft sent to the client
	DirectionOutbound Direction = "outbound"
)

// NormalizeEmail lowercases and trims an address for use as a client key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
