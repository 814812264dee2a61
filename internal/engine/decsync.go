package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/decsync/internal/bucket"
	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/listener"
	"github.com/roach88/decsync/internal/platform"
	"github.com/roach88/decsync/internal/store"
	"github.com/roach88/decsync/internal/value"
)

const (
	versionDir    = "v2"
	sequencesFile = "sequences"
)

type options struct {
	logger *slog.Logger
	clock  platform.Clock
}

// Option configures a Decsync or a package-level helper.
type Option func(*options)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the datetime source for SetEntry. Default: platform.SystemClock.
func WithClock(clock platform.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		clock:  platform.SystemClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Decsync is one app's view of one (syncType, collection).
//
// T is the type of the extra value passed through replay to the listeners,
// e.g. a database transaction.
type Decsync[T any] struct {
	dir       platform.Dir
	localDir  platform.Dir
	ownAppID  string
	listeners *listener.Registry[T]
	clock     platform.Clock
	logger    *slog.Logger
}

// New opens the shared directory for syncType and collection below
// decsyncDir, creating it if needed. localDir holds state that must not be
// synced; it should be private to this app instance. An empty collection
// means none.
func New[T any](
	decsyncDir platform.Dir,
	localDir platform.Dir,
	syncType string,
	collection string,
	ownAppID string,
	opts ...Option,
) (*Decsync[T], error) {
	if ownAppID == "" {
		return nil, errors.New("app id must not be empty")
	}
	if syncType == "" {
		return nil, errors.New("sync type must not be empty")
	}

	o := buildOptions(opts)
	d := &Decsync[T]{
		dir:       v2Dir(decsyncDir, syncType, collection),
		localDir:  localDir,
		ownAppID:  ownAppID,
		listeners: listener.NewRegistry[T](o.logger),
		clock:     o.clock,
		logger:    o.logger.With("app", ownAppID),
	}

	if err := d.dir.Mkdir(); err != nil {
		return nil, fmt.Errorf("create shared directory: %w", err)
	}
	return d, nil
}

func v2Dir(decsyncDir platform.Dir, syncType, collection string) platform.Dir {
	return platform.DecsyncSubdir(decsyncDir, syncType, collection).Dir(versionDir)
}

// OwnAppID returns the app id this instance writes as.
func (d *Decsync[T]) OwnAppID() string {
	return d.ownAppID
}

// Dir returns the shared v2 directory.
func (d *Decsync[T]) Dir() platform.Dir {
	return d.dir
}

// AddListener registers l. Listeners registered earlier take precedence.
func (d *Decsync[T]) AddListener(l listener.Listener[T]) {
	d.listeners.Add(l)
}

// AddPathListener registers handler for prefix and every path below it.
func (d *Decsync[T]) AddPathListener(prefix entry.Path, handler listener.Handler[T]) {
	d.listeners.Add(listener.Listener[T]{
		Match:           listener.Prefix(prefix),
		OnEntriesUpdate: handler,
	})
}

// SetEntry commits one value, stamped with the current time.
func (d *Decsync[T]) SetEntry(path entry.Path, key, val value.Value) error {
	return d.SetEntries([]entry.EntryWithPath{entry.New(path, key, val, d.clock)})
}

// SetEntriesForPath commits entries that share one path.
func (d *Decsync[T]) SetEntriesForPath(path entry.Path, entries []entry.Entry) error {
	return d.SetEntries(entry.WithPath(path, entries))
}

// SetEntries commits local updates.
//
// Entries not newer than the stored ones, or whose value did not change, are
// dropped. Every bucket that absorbs at least one entry has its sequence
// incremented by one; the own sequences file is written once at the end, and
// only if some bucket changed. Listeners are not called for local writes.
// An entry that cannot be encoded, such as one holding invalid UTF-8, fails
// the call before anything is written.
func (d *Decsync[T]) SetEntries(entries []entry.EntryWithPath) error {
	if len(entries) == 0 {
		return nil
	}
	// Reject the whole batch before any bucket is written.
	for _, e := range entries {
		if _, err := e.ToLine(); err != nil {
			return err
		}
	}

	ownDir := d.dir.Dir(d.ownAppID)
	seqFile := ownDir.File(sequencesFile)
	seqs, err := store.ReadSequences(seqFile)
	if err != nil {
		if !errors.Is(err, store.ErrMalformedSequences) {
			return err
		}
		d.logger.Warn("resetting own sequences", "error", err)
	}

	hashes, groups := groupByHash(entries)
	changed := false
	for _, hash := range hashes {
		res, err := store.UpdateEntries(ownDir.File(hash), groups[hash], store.UpdateOptions{
			RequireNewValue: true,
			Logger:          d.logger,
		})
		if err != nil {
			return fmt.Errorf("commit bucket %s: %w", hash, err)
		}
		if len(res.Applied) == 0 {
			continue
		}
		seqs[hash]++
		changed = true
		d.logger.Debug("committed entries",
			"bucket", hash,
			"entries", len(res.Applied),
			"sequence", seqs[hash])
	}

	if !changed {
		return nil
	}
	if err := store.WriteSequences(seqFile, seqs); err != nil {
		return err
	}
	return nil
}

// groupByHash splits entries by bucket, keeping buckets in order of first
// appearance.
func groupByHash(entries []entry.EntryWithPath) ([]string, map[string][]entry.EntryWithPath) {
	var order []string
	groups := make(map[string][]entry.EntryWithPath)
	for _, e := range entries {
		hash := bucket.PathToHash(e.Path)
		if _, ok := groups[hash]; !ok {
			order = append(order, hash)
		}
		groups[hash] = append(groups[hash], e)
	}
	return order, groups
}

func (d *Decsync[T]) dispatcher(extra T) store.DispatchFunc {
	return func(candidates []entry.EntryWithPath) ([]entry.EntryWithPath, bool) {
		return d.listeners.Dispatch(candidates, extra)
	}
}
