// Package poller keeps a board's layout fresh by refetching the card list on a
// fixed interval and replacing the layout store wholesale.
//
// A failed cycle is reported to the sink and skipped; the timer keeps running
// and there is no backoff.
package poller

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"kanban-cli/internal/layout"
	"kanban-cli/internal/model"
	"kanban-cli/internal/report"
)

const DefaultInterval = 10 * time.Second

// FetchFunc returns the board's full card list.
type FetchFunc func(ctx context.Context) ([]model.Card, error)

type Options struct {
	BoardID  string
	Interval time.Duration
	Now      func() time.Time
}

// Refreshed is emitted after every cycle.
type Refreshed struct {
	Version uint64
	Dropped int
	At      time.Time
	Err     error
}

type Poller struct {
	fetch    FetchFunc
	store    *layout.Store
	sink     report.Sink
	boardID  string
	interval time.Duration
	now      func() time.Time

	sf     singleflight.Group
	events chan Refreshed
	tick   *Tick
}

func New(fetch FetchFunc, store *layout.Store, sink report.Sink, opts Options) *Poller {
	if sink == nil {
		sink = report.Discard
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Poller{
		fetch:    fetch,
		store:    store,
		sink:     sink,
		boardID:  opts.BoardID,
		interval: interval,
		now:      now,
		events:   make(chan Refreshed, 16),
		tick:     NewTick(),
	}
}

func (p *Poller) Interval() time.Duration { return p.interval }

// Events delivers one Refreshed per cycle. Events are dropped when nobody
// keeps up; the layout store is always the current truth.
func (p *Poller) Events() <-chan Refreshed { return p.events }

// Tick is the refresh signal for task-list observers.
func (p *Poller) Tick() *Tick { return p.tick }

// Run polls every interval until ctx is cancelled. It does not poll on entry;
// use PollOnce for the initial load.
func (p *Poller) Run(ctx context.Context) error {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_, _ = p.PollOnce(ctx)
		}
	}
}

// PollOnce runs one fetch-and-replace cycle. Concurrent calls share a single
// fetch. Results arriving after ctx is done are discarded.
func (p *Poller) PollOnce(ctx context.Context) (layout.Snapshot, error) {
	v, err, _ := p.sf.Do("poll", func() (any, error) {
		cards, err := p.fetch(ctx)
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		if err != nil {
			p.sink.Report(ctx, report.Failure{Op: "poll", BoardID: p.boardID, Err: err})
			p.emit(Refreshed{Version: p.store.Version(), At: p.now(), Err: err})
			return nil, err
		}
		snap := p.store.ReplaceFromCards(cards)
		p.emit(Refreshed{Version: snap.Version, Dropped: snap.Dropped, At: p.now()})
		return snap, nil
	})
	if err != nil {
		return layout.Snapshot{}, err
	}
	return v.(layout.Snapshot), nil
}

func (p *Poller) emit(ev Refreshed) {
	select {
	case p.events <- ev:
	default:
	}
}
