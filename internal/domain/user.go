package domain

import (
	"errors"
	"time"
)

// UserProfile is the backend record for a signed-in identity.
type UserProfile struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}

// PublicUser is the subset of a profile returned to clients.
type PublicUser struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (u UserProfile) Public() PublicUser {
	return PublicUser{Name: u.Name, Email: u.Email, Picture: u.Picture}
}

// UserSession is the client-side signed-in state.
type UserSession struct {
	Name    string
	Email   string
	Picture string
	Token   string
}

// Identity is what the identity provider vouches for.
type Identity struct {
	Subject string
	Name    string
	Email   string
	Picture string
	IDToken string
}

var ErrUserNotFound = errors.New("user not found")

// ConversationMessage is one turn of an advisor chat.
type ConversationMessage struct {
	Role      string
	Content   string
	CreatedAt time.Time
}
