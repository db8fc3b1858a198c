package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/voyagen/tvlistings/internal/models"
	"github.com/voyagen/tvlistings/internal/store"
)

// --- in-memory store with the schema's constraints ---

type memChannel struct {
	models.Channel
	numbers map[models.Provider]*int
}

type memDB struct {
	nextID     int64
	channels   []memChannel
	broadcasts []models.Broadcast
	summaries  []models.Summary
}

func (d memDB) clone() memDB {
	out := memDB{nextID: d.nextID}
	for _, c := range d.channels {
		nums := make(map[models.Provider]*int, len(c.numbers))
		for k, v := range c.numbers {
			nums[k] = v
		}
		out.channels = append(out.channels, memChannel{Channel: c.Channel, numbers: nums})
	}
	out.broadcasts = append(out.broadcasts, d.broadcasts...)
	out.summaries = append(out.summaries, d.summaries...)
	return out
}

type memStore struct {
	db        memDB
	failOn    string // Tx method that returns an error
	commits   int
	rollbacks int
}

func (m *memStore) InTx(_ context.Context, fn func(tx store.Tx) error) error {
	snap := m.db.clone()
	if err := fn(&memTx{s: m}); err != nil {
		m.db = snap
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

func (m *memStore) Close() {}

func (m *memStore) channelNames() []string {
	var out []string
	for _, c := range m.db.channels {
		out = append(out, c.Name)
	}
	return out
}

func (m *memStore) channel(name string) *memChannel {
	for i := range m.db.channels {
		if strings.EqualFold(m.db.channels[i].Name, name) {
			return &m.db.channels[i]
		}
	}
	return nil
}

func (m *memStore) broadcastsOf(channelID int64) []models.Broadcast {
	var out []models.Broadcast
	for _, b := range m.db.broadcasts {
		if b.ChannelID == channelID {
			out = append(out, b)
		}
	}
	return out
}

type memTx struct {
	s *memStore
}

func (t *memTx) fail(method string) error {
	if t.s.failOn == method {
		return errors.Errorf("%s: injected failure", method)
	}
	return nil
}

func (t *memTx) id() int64 {
	t.s.db.nextID++
	return t.s.db.nextID
}

func (t *memTx) ChannelNames(context.Context) ([]string, error) {
	if err := t.fail("ChannelNames"); err != nil {
		return nil, err
	}
	return t.s.channelNames(), nil
}

func (t *memTx) InsertChannel(_ context.Context, ch models.Channel) (int64, error) {
	if err := t.fail("InsertChannel"); err != nil {
		return 0, err
	}
	if t.s.channel(ch.Name) != nil {
		return 0, errors.Errorf("duplicate key value violates unique constraint: %q", ch.Name)
	}
	ch.ID = t.id()
	t.s.db.channels = append(t.s.db.channels, memChannel{Channel: ch, numbers: map[models.Provider]*int{}})
	return ch.ID, nil
}

func (t *memTx) SetChannelNumber(_ context.Context, p models.Provider, name string, number *int) error {
	if err := t.fail("SetChannelNumber"); err != nil {
		return err
	}
	if !p.Valid() {
		return errors.Errorf("unknown provider %q", p)
	}
	if c := t.s.channel(name); c != nil {
		c.numbers[p] = number
	}
	return nil
}

func (t *memTx) ListChannelSources(context.Context) ([]models.ChannelSource, error) {
	if err := t.fail("ListChannelSources"); err != nil {
		return nil, err
	}
	var out []models.ChannelSource
	for _, c := range t.s.db.channels {
		if c.URL != nil && *c.URL != "" {
			out = append(out, models.ChannelSource{ID: c.ID, URL: *c.URL})
		}
	}
	return out, nil
}

func (t *memTx) BroadcastDates(context.Context) ([]time.Time, error) {
	if err := t.fail("BroadcastDates"); err != nil {
		return nil, err
	}
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, b := range t.s.db.broadcasts {
		d := store.DateOnly(b.Date)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sortDates(out)
	return out, nil
}

func (t *memTx) DeleteBroadcastsOn(_ context.Context, date time.Time) (int64, error) {
	if err := t.fail("DeleteBroadcastsOn"); err != nil {
		return 0, err
	}
	day := store.DateOnly(date)
	return t.deleteBroadcasts(func(b models.Broadcast) bool { return store.DateOnly(b.Date).Equal(day) }), nil
}

// deleteBroadcasts removes matching broadcasts and cascades to their summaries.
func (t *memTx) deleteBroadcasts(match func(models.Broadcast) bool) int64 {
	gone := map[int64]bool{}
	kept := t.s.db.broadcasts[:0:0]
	for _, b := range t.s.db.broadcasts {
		if match(b) {
			gone[b.ID] = true
			continue
		}
		kept = append(kept, b)
	}
	t.s.db.broadcasts = kept
	summaries := t.s.db.summaries[:0:0]
	for _, s := range t.s.db.summaries {
		if !gone[s.BroadcastID] {
			summaries = append(summaries, s)
		}
	}
	t.s.db.summaries = summaries
	return int64(len(gone))
}

func (t *memTx) InsertBroadcast(_ context.Context, b models.Broadcast) (int64, error) {
	if err := t.fail("InsertBroadcast"); err != nil {
		return 0, err
	}
	found := false
	for _, c := range t.s.db.channels {
		if c.ID == b.ChannelID {
			found = true
		}
	}
	if !found {
		return 0, errors.Errorf("foreign key violation: channel %d", b.ChannelID)
	}
	b.ID = t.id()
	b.Date = store.DateOnly(b.Date)
	t.s.db.broadcasts = append(t.s.db.broadcasts, b)
	return b.ID, nil
}

func (t *memTx) ListEpisodeLinks(_ context.Context, dates []time.Time) ([]models.EpisodeLink, error) {
	if err := t.fail("ListEpisodeLinks"); err != nil {
		return nil, err
	}
	want := map[time.Time]bool{}
	for _, d := range dates {
		want[store.DateOnly(d)] = true
	}
	var out []models.EpisodeLink
	for _, b := range t.s.db.broadcasts {
		if want[store.DateOnly(b.Date)] && b.EpisodeURL != nil && *b.EpisodeURL != "" {
			out = append(out, models.EpisodeLink{BroadcastID: b.ID, URL: *b.EpisodeURL})
		}
	}
	return out, nil
}

func (t *memTx) InsertSummary(_ context.Context, s models.Summary) (int64, error) {
	if err := t.fail("InsertSummary"); err != nil {
		return 0, err
	}
	s.ID = t.id()
	t.s.db.summaries = append(t.s.db.summaries, s)
	return s.ID, nil
}

func (t *memTx) DeleteOrphanChannels(context.Context) (int64, error) {
	if err := t.fail("DeleteOrphanChannels"); err != nil {
		return 0, err
	}
	used := map[int64]bool{}
	for _, b := range t.s.db.broadcasts {
		used[b.ChannelID] = true
	}
	kept := t.s.db.channels[:0:0]
	var n int64
	for _, c := range t.s.db.channels {
		if used[c.ID] {
			kept = append(kept, c)
			continue
		}
		n++
	}
	t.s.db.channels = kept
	return n, nil
}

// --- fake schema ---

type fakeSchema struct {
	resets int
	calls  int
	err    error
}

func (f *fakeSchema) Ensure(_ context.Context, reset bool) error {
	f.calls++
	if reset {
		f.resets++
	}
	return f.err
}
