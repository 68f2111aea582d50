// Package mock simulates a host posting transfer notifications so the daemon
// can be exercised without real host glue.
package mock

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/zipxxx1/GravityBox-sub001/internal/config"
	"github.com/zipxxx1/GravityBox-sub001/internal/progress"
	"github.com/zipxxx1/GravityBox-sub001/internal/session"
)

// Host receives the lifecycle events the generator produces. It is satisfied
// by *tracker.Tracker.
type Host interface {
	Added(n session.Notification)
	Updated(n session.Notification)
	Removed(sourceID, tag string, id int)
}

type pattern string

const (
	steady pattern = "steady"
	burst  pattern = "burst"
	stall  pattern = "stall"
)

// restartTicks is how long a finished transfer stays gone before it is posted
// again under a fresh identity.
const restartTicks = 4

type mockTransfer struct {
	source    string
	download  bool // tag is "download:<uuid>"
	untagged  bool // download notification without a tag
	id        int
	tag       string
	max       int32
	step      int32
	pattern   pattern
	progress  int32
	finished  bool
	idleTicks int
	posted    bool
}

func (m *mockTransfer) notification() session.Notification {
	n := session.Notification{
		SourceID:  m.source,
		Tag:       m.tag,
		ID:        m.id,
		Clearable: m.finished,
	}
	if m.finished {
		// Completed transfers drop their progress bar.
		n.Actions = []progress.Record{}
		return n
	}
	n.Actions = []progress.Record{
		progress.NewInvoke(0x7f0b0001, progress.MethodSetMax, m.max),
		progress.NewInvoke(0x7f0b0001, progress.MethodSetProgress, m.progress),
	}
	return n
}

// renew gives the transfer a new identity and rewinds it.
func (m *mockTransfer) renew() {
	m.progress = 0
	m.finished = false
	m.idleTicks = 0
	m.posted = false
	if m.download && !m.untagged {
		m.tag = "download:" + uuid.NewString()
	}
}

type MockGenerator struct {
	host      Host
	interval  time.Duration
	rng       *rand.Rand
	logger    *slog.Logger
	transfers []*mockTransfer
}

// NewGenerator creates a generator posting to host every interval.
func NewGenerator(host Host, interval time.Duration, logger *slog.Logger) *MockGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	g := &MockGenerator{
		host:     host,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
	g.transfers = []*mockTransfer{
		{source: config.DownloadsSource, download: true, max: 4096, step: 96, pattern: steady},
		{source: config.BluetoothSource, id: 17, max: 100, step: 7, pattern: burst},
		{source: config.DownloadsSource, download: true, max: 1 << 20, step: 40000, pattern: stall},
		{source: config.MediatekSource, id: 3, max: 250, step: 9, pattern: steady},
		// Never tracked: not on the allow-list.
		{source: "com.example.sync", id: 1, max: 100, step: 5, pattern: steady},
		// Never tracked: a download without a tag has no derivable key.
		{source: config.DownloadsSource, download: true, untagged: true, id: 99, max: 100, step: 10, pattern: steady},
	}
	for _, tr := range g.transfers {
		tr.renew()
	}
	return g
}

// Start posts every transfer once and then advances them on a ticker until
// ctx is done.
func (g *MockGenerator) Start(ctx context.Context) {
	for _, tr := range g.transfers {
		g.host.Added(tr.notification())
		tr.posted = true
	}
	g.logger.Info("mock host started", "transfers", len(g.transfers), "interval", g.interval)
	go g.run(ctx)
}

func (g *MockGenerator) run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.step()
		}
	}
}

// step advances every transfer by one tick and posts the resulting events.
func (g *MockGenerator) step() {
	for _, tr := range g.transfers {
		switch {
		case !tr.posted:
			if tr.idleTicks++; tr.idleTicks >= restartTicks {
				tr.renew()
				g.host.Added(tr.notification())
				tr.posted = true
			}
		case tr.finished:
			g.host.Removed(tr.source, tr.tag, tr.id)
			tr.posted = false
			tr.idleTicks = 0
		default:
			g.advance(tr)
			if tr.progress >= tr.max {
				tr.progress = tr.max
				tr.finished = true
			}
			g.host.Updated(tr.notification())
		}
	}
}

func (g *MockGenerator) advance(tr *mockTransfer) {
	switch tr.pattern {
	case steady:
		tr.progress += tr.step
	case burst:
		if g.rng.Intn(3) == 0 {
			tr.progress += tr.step * 4
		} else {
			tr.progress += tr.step / 2
		}
	case stall:
		// Long stalls in the middle third of the transfer.
		third := tr.max / 3
		if tr.progress > third && tr.progress < 2*third && g.rng.Intn(4) != 0 {
			return
		}
		tr.progress += tr.step
	}
}
