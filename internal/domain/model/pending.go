package model

import (
	"encoding/json"
	"fmt"
	"time"

	"telegram-identity-bot/internal/domain/command"
)

// PendingCommand is the in-progress step of a multi-step flow. A
// conversation holds at most one.
type PendingCommand struct {
	ConversationID int64           `json:"conversationId"`
	Command        command.Command `json:"command"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// SignUpDraft is the partial sign-up payload collected during registration.
type SignUpDraft struct {
	Username string `json:"username,omitempty"`
	Birthday string `json:"birthday,omitempty"` // WireDateLayout
}

// ProfileEditDraft pins the identity a profile edit applies to.
type ProfileEditDraft struct {
	IdentityID      string `json:"identityId"`
	CurrentUsername string `json:"currentUsername,omitempty"`
}

func EncodeSignUpDraft(d SignUpDraft) (json.RawMessage, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode sign-up draft: %w", err)
	}
	return b, nil
}

// DecodeSignUpDraft accepts an empty payload as an empty draft.
func DecodeSignUpDraft(raw json.RawMessage) (SignUpDraft, error) {
	var d SignUpDraft
	if len(raw) == 0 || string(raw) == "null" {
		return d, nil
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return SignUpDraft{}, fmt.Errorf("decode sign-up draft: %w", err)
	}
	return d, nil
}

func EncodeProfileEditDraft(d ProfileEditDraft) (json.RawMessage, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode profile draft: %w", err)
	}
	return b, nil
}

func DecodeProfileEditDraft(raw json.RawMessage) (ProfileEditDraft, error) {
	var d ProfileEditDraft
	if len(raw) == 0 || string(raw) == "null" {
		return d, nil
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return ProfileEditDraft{}, fmt.Errorf("decode profile draft: %w", err)
	}
	return d, nil
}
