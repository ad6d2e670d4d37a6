package tui

import (
	"context"
	"time"

	"cryptopulse/internal/domain"
	"cryptopulse/internal/live"

	tea "github.com/charmbracelet/bubbletea"
)

const liveRefresh = 500 * time.Millisecond

const failedMessage = "Failed to connect to server."

type liveTickMsg struct {
	gen int
}

type liveDoneMsg struct {
	gen int
	err error
}

// liveTab owns one live.Client while mounted. Unmounting closes the socket.
type liveTab struct {
	parent    context.Context
	url       string
	dial      live.DialFunc
	bufferCap int

	coins  []string
	picker coinPicker
	client *live.Client
	cancel context.CancelFunc
	gen    int
}

func newLiveTab(parent context.Context, url string, dial live.DialFunc, bufferCap int) *liveTab {
	return &liveTab{
		parent:    parent,
		url:       url,
		dial:      dial,
		bufferCap: bufferCap,
		coins:     append([]string(nil), domain.CoinNames[:5]...),
	}
}

func (t *liveTab) mounted() bool {
	return t.client != nil
}

func (t *liveTab) mount() tea.Cmd {
	if t.client != nil {
		return nil
	}
	opts := []live.Option{live.WithBufferCap(t.bufferCap)}
	if t.dial != nil {
		opts = append(opts, live.WithDialer(t.dial))
	}
	ctx, cancel := context.WithCancel(t.parent)
	t.client = live.NewClient(t.url, t.coins, opts...)
	t.cancel = cancel
	t.gen++

	client, gen := t.client, t.gen
	run := func() tea.Msg {
		return liveDoneMsg{gen: gen, err: client.Run(ctx)}
	}
	return tea.Batch(run, t.tick())
}

func (t *liveTab) unmount() {
	if t.client == nil {
		return
	}
	t.client.Close()
	t.cancel()
	t.client, t.cancel = nil, nil
}

func (t *liveTab) tick() tea.Cmd {
	gen := t.gen
	return tea.Tick(liveRefresh, func(time.Time) tea.Msg { return liveTickMsg{gen: gen} })
}

func (t *liveTab) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case liveTickMsg:
		if msg.gen != t.gen || t.client == nil || t.client.State().Terminal() {
			return nil
		}
		return t.tick()
	case liveDoneMsg:
		return nil
	case tea.KeyMsg:
		coins, changed := t.picker.update(msg, t.coins)
		if !changed {
			return nil
		}
		t.coins = coins
		if t.client != nil {
			_ = t.client.SetCoins(coins)
		}
	}
	return nil
}

func (t *liveTab) view(width, height int, spin string) string {
	if t.client == nil {
		return ""
	}
	switch t.client.State() {
	case live.StateConnecting:
		return spin + " Connecting to live sentiment feed...\n"
	case live.StateFailed:
		return errorStyle.Render(failedMessage) + "\n"
	}

	out := labelStyle.Render("Live Crypto Sentiment") + "\n\n"
	out += t.picker.view(t.coins) + "\n\n"
	out += RenderChart(t.client.Snapshot(), t.coins, width, height) + "\n"
	return out
}
