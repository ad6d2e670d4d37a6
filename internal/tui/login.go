package tui

import (
	"context"
	"fmt"
	"time"

	"cryptopulse/internal/auth"
	"cryptopulse/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const signInTimeout = 10 * time.Minute

type loginPhase int

const (
	phaseRestoring loginPhase = iota
	phaseIdle
	phaseStarting
	phaseAwaiting
)

type restoredMsg struct {
	session domain.UserSession
	ok      bool
}

type deviceCodeMsg struct {
	attempt int
	code    *auth.DeviceCode
	err     error
}

type signedInMsg struct {
	attempt int
	session domain.UserSession
	err     error
}

// loginScreen gates the dashboard. Auth failures are logged by the widget
// and simply return the screen to idle.
type loginScreen struct {
	parent  context.Context
	widget  *auth.Widget
	phase   loginPhase
	attempt int
	code    *auth.DeviceCode
	cancel  context.CancelFunc
}

func newLoginScreen(parent context.Context, w *auth.Widget) *loginScreen {
	s := &loginScreen{parent: parent, widget: w, phase: phaseIdle}
	if w != nil {
		s.phase = phaseRestoring
	}
	return s
}

func (s *loginScreen) init() tea.Cmd {
	if s.widget == nil {
		return nil
	}
	w, parent := s.widget, s.parent
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()
		ok := w.Restore(ctx)
		session, _ := w.Session()
		return restoredMsg{session: session, ok: ok}
	}
}

// update returns a session once sign-in completes.
func (s *loginScreen) update(msg tea.Msg) (*domain.UserSession, tea.Cmd) {
	switch msg := msg.(type) {
	case restoredMsg:
		s.phase = phaseIdle
		if msg.ok {
			return &msg.session, nil
		}
	case deviceCodeMsg:
		if msg.attempt != s.attempt || s.phase != phaseStarting {
			return nil, nil
		}
		if msg.err != nil {
			s.reset()
			return nil, nil
		}
		s.phase = phaseAwaiting
		s.code = msg.code
		return nil, s.await(msg.code)
	case signedInMsg:
		if msg.attempt != s.attempt || s.phase != phaseAwaiting {
			return nil, nil
		}
		s.reset()
		if msg.err == nil {
			return &msg.session, nil
		}
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Submit) && s.phase == phaseIdle:
			if s.widget == nil {
				return &domain.UserSession{Name: "guest"}, nil
			}
			s.phase = phaseStarting
			s.attempt++
			return nil, s.begin()
		case key.Matches(msg, keys.Cancel):
			s.reset()
		}
	}
	return nil, nil
}

func (s *loginScreen) begin() tea.Cmd {
	w, attempt, parent := s.widget, s.attempt, s.parent
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()
		code, err := w.Begin(ctx)
		return deviceCodeMsg{attempt: attempt, code: code, err: err}
	}
}

func (s *loginScreen) await(code *auth.DeviceCode) tea.Cmd {
	ctx, cancel := context.WithTimeout(s.parent, signInTimeout)
	s.cancel = cancel
	w, attempt := s.widget, s.attempt
	return func() tea.Msg {
		defer cancel()
		session, err := w.Complete(ctx, code)
		return signedInMsg{attempt: attempt, session: session, err: err}
	}
}

func (s *loginScreen) reset() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.code = nil
	if s.phase != phaseRestoring {
		s.phase = phaseIdle
	}
}

func (s *loginScreen) view(spin string) string {
	out := titleStyle.Render("CryptoPulse") + "\n\n"
	switch s.phase {
	case phaseRestoring:
		out += spin + " Restoring session...\n"
	case phaseStarting:
		out += spin + " Contacting Google...\n"
	case phaseAwaiting:
		out += "To sign in, visit\n\n  " + codeStyle.Render(s.code.VerificationURL) + "\n\n"
		out += "and enter the code\n\n  " + codeStyle.Render(s.code.UserCode) + "\n\n"
		out += fmt.Sprintf("%s Waiting for approval... %s\n", spin, dimStyle.Render("(esc to cancel)"))
	default:
		if s.widget == nil {
			out += "Google sign-in is not configured.\n\n" + dimStyle.Render("Press enter to continue as guest, q to quit.") + "\n"
		} else {
			out += "Sign in with Google to view the dashboard.\n\n" + dimStyle.Render("Press enter to sign in, q to quit.") + "\n"
		}
	}
	return out
}
