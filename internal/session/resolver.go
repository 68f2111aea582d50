package session

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/zipxxx1/GravityBox-sub001/internal/config"
	"github.com/zipxxx1/GravityBox-sub001/internal/progress"
)

const (
	causeNoTag    = "multiplexed source notification has no tag"
	causeTagColon = "multiplexed source tag has no colon"
)

// Resolver decides whether a notification is worth tracking and derives the
// session key it belongs to.
//
// Most sources publish one notification id per logical item, so their key is
// source:id. The multiplexed source (the platform download provider) reuses
// one id space for every concurrent transfer and distinguishes them only by
// the part of the tag after its first colon, so its key is source:suffix.
type Resolver struct {
	allowed     map[string]bool
	multiplexed string
	logger      *slog.Logger

	mu     sync.Mutex
	warned map[string]bool // keyed by cause + source
}

func NewResolver(cfg config.TrackerConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]bool, len(cfg.AllowedSources))
	for _, src := range cfg.AllowedSources {
		allowed[src] = true
	}
	return &Resolver{
		allowed:     allowed,
		multiplexed: cfg.MultiplexedSource,
		logger:      logger,
		warned:      make(map[string]bool),
	}
}

// Identify returns the session identity of n, or false when n does not
// qualify for tracking.
func (r *Resolver) Identify(n Notification) (Identity, bool) {
	id, _, ok := r.Resolve(n)
	return id, ok
}

// Resolve is Identify that also hands back the decoded progress, so callers
// do not decode the action records twice.
//
// A notification qualifies when it is ongoing (not clearable), carries a
// payload, comes from an allowed source or sets the tracking marker, and its
// action records describe a progress bar.
func (r *Resolver) Resolve(n Notification) (Identity, progress.Info, bool) {
	info, ok := r.Qualifies(n)
	if !ok {
		return Identity{}, info, false
	}
	key, ok := r.Key(n.SourceID, n.Tag, n.ID)
	if !ok {
		return Identity{}, info, false
	}
	return Identity{Key: key, Download: n.SourceID == r.multiplexed}, info, true
}

// Qualifies applies the tracking gate without deriving a key.
func (r *Resolver) Qualifies(n Notification) (progress.Info, bool) {
	if n.Clearable || n.Actions == nil {
		return progress.Info{}, false
	}
	if !r.allowed[n.SourceID] && !n.Tracking {
		return progress.Info{}, false
	}
	info := progress.Decode(n.Actions)
	return info, info.HasProgressBar
}

// Key derives the session key from notification identity fields alone, as
// available on removal. It reports false when the multiplexed source sends
// a tag the key cannot be built from.
func (r *Resolver) Key(sourceID, tag string, id int) (string, bool) {
	if sourceID != r.multiplexed {
		return sourceID + ":" + strconv.Itoa(id), true
	}

	if tag == "" {
		r.warnOnce(causeNoTag, sourceID, tag)
		return "", false
	}
	i := strings.IndexByte(tag, ':')
	if i < 0 {
		r.warnOnce(causeTagColon, sourceID, tag)
		return "", false
	}
	return sourceID + ":" + tag[i+1:], true
}

func (r *Resolver) warnOnce(cause, sourceID, tag string) {
	r.mu.Lock()
	k := cause + "\x00" + sourceID
	seen := r.warned[k]
	r.warned[k] = true
	r.mu.Unlock()

	if !seen {
		r.logger.Warn("dropping notification: "+cause, "source", sourceID, "tag", tag)
	}
}
