package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	gosync "sync"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
)

// UpUpdate is one client-submitted change for a named entry.
type UpUpdate struct {
	Type     string
	UpdateAt int64
	Data     json.RawMessage
	Removed  bool
}

// DownUpdate is one server-side change delivered to the client:
// either a resolved value or a tombstone.
type DownUpdate struct {
	Value   json.RawMessage `json:"value,omitempty"`
	Removed bool            `json:"removed,omitempty"`
}

// Options is the input of one sync call. Updates maps category to
// name to the client's change. Now is the server's authoritative
// current time; ClientTime and ClientSyncAt come from the request.
type Options struct {
	Owner        string
	Now          int64
	ClientSyncAt int64
	ClientTime   int64
	Updates      map[string]map[string]UpUpdate
}

// Result is the output of one sync call: the new cursor plus every
// change the client has not seen, grouped category -> name.
type Result struct {
	SyncAt  int64
	Updates map[string]map[string]DownUpdate
}

// Engine is the sync reconciliation orchestrator. It is safe for
// concurrent use; all state lives in the store.
type Engine struct {
	store  storage.EntryStore
	types  *Registry
	policy *CategoryPolicy
	logger *slog.Logger
}

// NewEngine builds an engine from its collaborators.
func NewEngine(store storage.EntryStore, types *Registry, policy *CategoryPolicy, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		types:  types,
		policy: policy,
		logger: logger,
	}
}

// downSet accumulates down-updates from concurrently applied writes.
type downSet struct {
	mu gosync.Mutex
	m  map[string]map[string]DownUpdate
}

func newDownSet() *downSet {
	return &downSet{m: make(map[string]map[string]DownUpdate)}
}

func (d *downSet) set(category, name string, update DownUpdate) {
	d.mu.Lock()
	defer d.mu.Unlock()

	byName, ok := d.m[category]
	if !ok {
		byName = make(map[string]DownUpdate)
		d.m[category] = byName
	}
	byName[name] = update
}

// firstErr keeps the first failure from concurrent per-name writes.
type firstErr struct {
	once gosync.Once
	err  error
}

func (f *firstErr) set(err error) {
	f.once.Do(func() { f.err = err })
}

// Sync reconciles one client batch: it reconciles passive-category
// heads, computes the down-set of everything changed since the
// client's cursor, applies the client's up-set through the type
// strategies with calibrated timestamps, and returns the new cursor.
//
// Store failures abort the call; writes already committed stay
// committed, which is safe to retry because every per-name decision
// is idempotent. Unknown type names are logged and skipped.
func (e *Engine) Sync(ctx context.Context, opts Options) (*Result, error) {
	cal := NewCalibrator(opts.Now, opts.ClientTime, opts.ClientSyncAt)
	down := newDownSet()

	clientSyncAt := opts.ClientSyncAt
	passive := e.policy.PassiveCategories()

	filters := []storage.EntryFilter{{
		Owners:        []string{opts.Owner, models.GlobalOwner},
		NotCategories: passive,
		SyncedAfter:   &clientSyncAt,
	}}

	if len(passive) > 0 {
		passiveFilters, err := e.reconcileHeads(ctx, opts, passive)
		if err != nil {
			return nil, err
		}
		filters = append(filters, passiveFilters...)
	}

	if err := e.collectDownSet(ctx, filters, down); err != nil {
		return nil, err
	}

	if err := e.applyUpSet(ctx, opts, cal, down); err != nil {
		return nil, err
	}

	return &Result{SyncAt: opts.Now, Updates: down.m}, nil
}

// reconcileHeads loads the owner's head records across passive
// categories, lazily creates heads for newly referenced shared names,
// and returns the down-set filters for passive content: out-of-date
// names unconditionally, up-to-date names only when the shared entry
// itself changed past the cursor.
func (e *Engine) reconcileHeads(ctx context.Context, opts Options, passive []string) ([]storage.EntryFilter, error) {
	heads, err := e.store.Find(ctx, []storage.EntryFilter{{
		Owners:     []string{opts.Owner},
		Categories: passive,
	}})
	if err != nil {
		return nil, fmt.Errorf("load head records: %w", err)
	}

	type headKey struct{ category, name string }

	headSet := make(map[headKey]struct{}, len(heads))
	outOfDate := make(map[string][]string)
	upToDate := make(map[string][]string)

	for _, head := range heads {
		headSet[headKey{head.Category, head.Name}] = struct{}{}

		if head.SyncAt > opts.ClientSyncAt {
			outOfDate[head.Category] = append(outOfDate[head.Category], head.Name)
		} else {
			upToDate[head.Category] = append(upToDate[head.Category], head.Name)
		}
	}

	for _, category := range passive {
		ups, ok := opts.Updates[category]
		if !ok {
			continue
		}

		// Referencing a shared name registers the client's interest:
		// it joins this call's out-of-date set, and a head is created
		// if the user has none yet.
		for name := range ups {
			outOfDate[category] = append(outOfDate[category], name)

			if _, ok := headSet[headKey{category, name}]; ok {
				continue
			}

			head := models.NewHeadEntry(opts.Owner, category, name, opts.Now)
			if err := e.store.Upsert(ctx, head); err != nil {
				return nil, fmt.Errorf("create head record: %w", err)
			}
		}
	}

	clientSyncAt := opts.ClientSyncAt
	filters := make([]storage.EntryFilter, 0, len(outOfDate)+len(upToDate))

	for category, names := range outOfDate {
		filters = append(filters, storage.EntryFilter{
			Owners:     []string{models.GlobalOwner},
			Categories: []string{category},
			Names:      names,
		})
	}
	for category, names := range upToDate {
		filters = append(filters, storage.EntryFilter{
			Owners:      []string{models.GlobalOwner},
			Categories:  []string{category},
			Names:       names,
			SyncedAfter: &clientSyncAt,
		})
	}

	return filters, nil
}

// collectDownSet runs the combined down-set query and resolves each
// row into a client-visible update. Rows with unknown or unreadable
// types are logged and skipped rather than failing the call.
func (e *Engine) collectDownSet(ctx context.Context, filters []storage.EntryFilter, down *downSet) error {
	entries, err := e.store.Find(ctx, filters)
	if err != nil {
		return fmt.Errorf("query down-set: %w", err)
	}

	for _, entry := range entries {
		if entry.Removed {
			down.set(entry.Category, entry.Name, DownUpdate{Removed: true})
			continue
		}

		t, ok := e.types.Get(entry.Type)
		if !ok {
			e.logger.Error("unknown entry type in store",
				"type", entry.Type, "category", entry.Category, "name", entry.Name)
			continue
		}

		value, err := t.Resolve(entry.Data)
		if err != nil {
			e.logger.Error("failed to resolve entry data",
				"category", entry.Category, "name", entry.Name, "error", err)
			continue
		}

		down.set(entry.Category, entry.Name, DownUpdate{Value: value})
	}

	return nil
}

// applyUpSet writes the client's changes, category by category.
// Read-only categories are dropped wholesale. Within a category the
// per-name read-modify-writes run concurrently: they touch disjoint
// keys, and every decision depends only on that name's own stored
// timestamp and type.
func (e *Engine) applyUpSet(ctx context.Context, opts Options, cal *Calibrator, down *downSet) error {
	var (
		wg   gosync.WaitGroup
		fail firstErr
	)

	for category, ups := range opts.Updates {
		if e.policy.ReadOnly(category) {
			continue
		}

		wg.Add(1)
		go func(category string, ups map[string]UpUpdate) {
			defer wg.Done()
			e.applyCategory(ctx, opts, cal, down, category, ups, &fail)
		}(category, ups)
	}

	wg.Wait()
	return fail.err
}

func (e *Engine) applyCategory(
	ctx context.Context,
	opts Options,
	cal *Calibrator,
	down *downSet,
	category string,
	ups map[string]UpUpdate,
	fail *firstErr,
) {
	names := make([]string, 0, len(ups))
	for name := range ups {
		names = append(names, name)
	}

	existing, err := e.store.Find(ctx, []storage.EntryFilter{{
		Owners:     []string{opts.Owner},
		Categories: []string{category},
		Names:      names,
	}})
	if err != nil {
		fail.set(fmt.Errorf("query entries for update: %w", err))
		return
	}

	absent := make(map[string]struct{}, len(names))
	for _, name := range names {
		absent[name] = struct{}{}
	}

	var wg gosync.WaitGroup

	for _, entry := range existing {
		delete(absent, entry.Name)

		wg.Add(1)
		go func(entry *models.DataEntry) {
			defer wg.Done()
			e.updateEntry(ctx, opts, cal, down, entry, ups[entry.Name], fail)
		}(entry)
	}

	for name := range absent {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			e.createEntry(ctx, opts, cal, category, name, ups[name], fail)
		}(name)
	}

	wg.Wait()
}

// updateEntry applies one up-update onto an existing stored record.
func (e *Engine) updateEntry(
	ctx context.Context,
	opts Options,
	cal *Calibrator,
	down *downSet,
	entry *models.DataEntry,
	up UpUpdate,
	fail *firstErr,
) {
	t, ok := e.types.Get(up.Type)
	if !ok {
		e.logger.Error("unknown entry type in update",
			"type", up.Type, "category", entry.Category, "name", entry.Name)
		return
	}

	updateAt := cal.Calibrate(up.UpdateAt)

	// Accumulation always merges (it deduplicates by change ID);
	// everything else is last-write-wins with the stored value
	// winning ties.
	if !t.AlwaysMerge() && updateAt <= entry.UpdateAt {
		return
	}

	prevSyncAt := entry.SyncAt

	if up.Removed {
		entry.Data = nil
		entry.Removed = true
	} else {
		merged, err := t.Merge(entry.Data, up.Data)
		if err != nil {
			e.logger.Error("failed to merge entry data",
				"category", entry.Category, "name", entry.Name, "error", err)
			return
		}
		entry.Data = merged
		entry.Removed = false
	}

	// The client missed an accumulation write from another device:
	// echo the freshly merged value back so this response already
	// carries the reconciled total.
	if t.AlwaysMerge() && opts.ClientSyncAt < prevSyncAt {
		if entry.Removed {
			down.set(entry.Category, entry.Name, DownUpdate{Removed: true})
		} else if value, err := t.Resolve(entry.Data); err != nil {
			e.logger.Error("failed to resolve merged data",
				"category", entry.Category, "name", entry.Name, "error", err)
		} else {
			down.set(entry.Category, entry.Name, DownUpdate{Value: value})
		}
	}

	entry.UpdateAt = updateAt
	entry.SyncAt = opts.Now

	if up.Type != "" && up.Type != entry.Type {
		entry.Type = up.Type
	}

	if err := e.store.Save(ctx, entry); err != nil {
		fail.set(fmt.Errorf("save entry %s/%s: %w", entry.Category, entry.Name, err))
	}
}

// createEntry stores the first write for a key. The strategy seeds
// its own empty representation.
func (e *Engine) createEntry(
	ctx context.Context,
	opts Options,
	cal *Calibrator,
	category, name string,
	up UpUpdate,
	fail *firstErr,
) {
	t, ok := e.types.Get(up.Type)
	if !ok {
		e.logger.Error("unknown entry type in update",
			"type", up.Type, "category", category, "name", name)
		return
	}

	entry := &models.DataEntry{
		Owner:    opts.Owner,
		Category: category,
		Name:     name,
		Type:     up.Type,
		SyncAt:   opts.Now,
		UpdateAt: cal.Calibrate(up.UpdateAt),
	}

	if up.Removed {
		entry.Removed = true
	} else {
		seeded, err := t.Merge(nil, up.Data)
		if err != nil {
			e.logger.Error("failed to seed entry data",
				"category", category, "name", name, "error", err)
			return
		}
		entry.Data = seeded
	}

	if err := e.store.Upsert(ctx, entry); err != nil {
		fail.set(fmt.Errorf("create entry %s/%s: %w", category, name, err))
	}
}
