package tui

import (
	"context"
	"fmt"
	"time"

	"cryptopulse/internal/domain"
	"cryptopulse/internal/historical"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fetchTimeout   = 20 * time.Second
	noticeDuration = 3 * time.Second
	rangeStep      = 5 * time.Minute
)

type fetchDoneMsg struct {
	err error
}

type clearNoticeMsg struct {
	id int
}

type rangeField int

const (
	fieldStart rangeField = iota
	fieldEnd
)

// historyTab drives a historical.Controller: range keys, coin toggles and
// an explicit submit.
type historyTab struct {
	ctrl    *historical.Controller
	picker  coinPicker
	field   rangeField
	pending int

	notice   string
	noticeID int
	err      string
}

func newHistoryTab(source historical.DataSource, maxSpan time.Duration) *historyTab {
	return &historyTab{ctrl: historical.NewController(source, historical.WithMaxSpan(maxSpan))}
}

func (t *historyTab) loading() bool {
	return t.pending > 0
}

func (t *historyTab) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case fetchDoneMsg:
		t.pending--
		switch {
		case msg.err == nil:
			t.err = ""
		case historical.IsValidation(msg.err):
			return t.flash(historical.ValidationMessage(msg.err, t.ctrl.MaxSpan()))
		default:
			t.err = "Failed to fetch sentiment data."
		}
		return nil

	case clearNoticeMsg:
		if msg.id == t.noticeID {
			t.notice = ""
		}
		return nil

	case tea.KeyMsg:
		return t.handleKey(msg)
	}
	return nil
}

func (t *historyTab) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Submit):
		return t.submit()
	case key.Matches(msg, keys.Field):
		if t.field == fieldStart {
			t.field = fieldEnd
		} else {
			t.field = fieldStart
		}
		return nil
	case key.Matches(msg, keys.Later):
		return t.shift(rangeStep)
	case key.Matches(msg, keys.Earlier):
		return t.shift(-rangeStep)
	case key.Matches(msg, keys.HourLater):
		return t.shift(time.Hour)
	case key.Matches(msg, keys.HourEarly):
		return t.shift(-time.Hour)
	}

	if coins, changed := t.picker.update(msg, t.ctrl.Coins()); changed {
		if err := t.ctrl.SetCoins(coins); err != nil {
			return t.flash(historical.ValidationMessage(err, t.ctrl.MaxSpan()))
		}
	}
	return nil
}

func (t *historyTab) shift(d time.Duration) tea.Cmd {
	r := t.ctrl.Range()
	if t.field == fieldStart {
		t.ctrl.SetStart(r.Start.Add(d))
		return nil
	}
	if err := t.ctrl.SetEnd(r.End.Add(d)); err != nil {
		return t.flash(historical.ValidationMessage(err, t.ctrl.MaxSpan()))
	}
	return nil
}

func (t *historyTab) submit() tea.Cmd {
	t.pending++
	ctrl := t.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return fetchDoneMsg{err: ctrl.Submit(ctx)}
	}
}

// flash shows a notice that clears itself.
func (t *historyTab) flash(text string) tea.Cmd {
	t.noticeID++
	id := t.noticeID
	t.notice = text
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg { return clearNoticeMsg{id: id} })
}

func (t *historyTab) view(width, height int, spin string) string {
	r := t.ctrl.Range()
	start := r.Start.Local().Format(domain.HistoricalLabelLayout)
	end := r.End.Local().Format(domain.HistoricalLabelLayout)
	if t.field == fieldStart {
		start = focusStyle.Render(start)
	} else {
		end = focusStyle.Render(end)
	}

	out := labelStyle.Render("Historical Crypto Sentiment") + "\n\n"
	out += fmt.Sprintf("%s %s   %s %s   %s\n", labelStyle.Render("Start:"), start, labelStyle.Render("End:"), end,
		dimStyle.Render(fmt.Sprintf("(max %d min)", int(t.ctrl.MaxSpan()/time.Minute))))
	out += t.picker.view(t.ctrl.Coins()) + "\n\n"

	switch {
	case t.loading():
		out += spin + " Loading sentiment data...\n"
	case t.err != "":
		out += errorStyle.Render(t.err) + "\n"
	default:
		out += "\n"
	}

	series := t.ctrl.Series()
	if len(series) == 0 && !t.loading() {
		out += dimStyle.Render("Press enter to load the selected range.") + "\n"
	} else {
		out += RenderChart(series, t.ctrl.Coins(), width, height) + "\n"
	}
	if t.notice != "" {
		out += noticeStyle.Render(t.notice) + "\n"
	}
	return out
}
