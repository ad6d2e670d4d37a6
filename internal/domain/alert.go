package domain

import (
	"errors"
	"time"
)

var ErrAlertNotFound = errors.New("alert subscription not found")

// AlertDirection says which side of the threshold fires an alert.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// AlertSubscription asks for a notification when one coin's live score
// crosses Threshold. ChatID zero means no Telegram delivery.
type AlertSubscription struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Coin      string         `json:"coin"`
	Threshold float64        `json:"threshold"`
	Direction AlertDirection `json:"direction"`
	Email     string         `json:"email,omitempty"`
	ChatID    int64          `json:"telegramChatId,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Matches reports whether score is on the firing side of the threshold.
func (a AlertSubscription) Matches(score float64) bool {
	if a.Direction == AlertBelow {
		return score <= a.Threshold
	}
	return score >= a.Threshold
}
