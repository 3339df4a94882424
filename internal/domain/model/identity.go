package model

import (
	"time"
)

const (
	// BirthdayLayout is the dd-mm-yyyy form users type.
	BirthdayLayout = "02-01-2006"
	// WireDateLayout is the date form exchanged with the identity service.
	WireDateLayout = "2006-01-02"
)

// Identity is the denormalized snapshot of a remote identity record.
type Identity struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	ConversationID int64     `json:"conversationId,omitempty"`
	Birthday       string    `json:"birthday,omitempty"` // WireDateLayout
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

func (i *Identity) IsZero() bool { return i == nil || i.ID == "" }

// DisplayBirthday renders the birthday in the layout users type it in.
func (i *Identity) DisplayBirthday() string {
	if i == nil || i.Birthday == "" {
		return ""
	}
	t, err := time.Parse(WireDateLayout, i.Birthday)
	if err != nil {
		return i.Birthday
	}
	return t.Format(BirthdayLayout)
}

// Credential is a short-lived auth token issued to one conversation.
type Credential struct {
	ConversationID int64     `json:"conversationId"`
	Token          string    `json:"token"`
	Expiry         time.Time `json:"expiry"`
}

// Valid reports whether the token is still usable at now.
func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.Token != "" && (c.Expiry.IsZero() || now.Before(c.Expiry))
}

// TTL is the remaining validity at now, capped at max. A zero expiry yields max.
func (c *Credential) TTL(now time.Time, max time.Duration) time.Duration {
	if c.Expiry.IsZero() {
		return max
	}
	d := c.Expiry.Sub(now)
	if d > max {
		return max
	}
	return d
}

// SignUpRequest is the sign-up body. The chat channel always sets
// ConversationID; Email is optional.
type SignUpRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	ConversationID int64  `json:"conversationId,omitempty"`
	Password       string `json:"password"`
	Birthday       string `json:"birthday,omitempty"`
}

// SignInRequest authenticates either by conversation id or by
// username/password.
type SignInRequest struct {
	ConversationID int64  `json:"conversationId,omitempty"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
}

// UpdateRequest carries only the fields being changed.
type UpdateRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Birthday string `json:"birthday,omitempty"`
}

// AuthToken is the sign-up/sign-in response.
type AuthToken struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}
