package live

import (
	"context"
	"log/slog"
	"sync"

	"folio/internal/docstore"
	"folio/internal/models"
)

// visibleInOrder selects the sections a visitor sees.
var visibleInOrder = docstore.Where("visible", true).Order("order")

// SectionsPropagator presents the visible sections of a portfolio ordered
// by their order field.
type SectionsPropagator struct {
	watcher    CollectionWatcher
	collection docstore.Path
	presenter  Presenter
	opts       options

	mu       sync.Mutex
	state    State
	sections []models.Section
	stop     func()
	started  bool
	once     sync.Once
}

// NewSectionsPropagator creates a propagator for the sections collection.
func NewSectionsPropagator(w CollectionWatcher, collection docstore.Path, p Presenter, opts ...Option) *SectionsPropagator {
	return &SectionsPropagator{
		watcher:    w,
		collection: collection,
		presenter:  p,
		opts:       buildOptions(opts),
		state:      StateLoading,
		sections:   []models.Section{},
	}
}

// Start subscribes to the collection.
func (sp *SectionsPropagator) Start(ctx context.Context) {
	sp.mu.Lock()
	if sp.state == StateClosed || sp.started {
		sp.mu.Unlock()
		return
	}
	sp.started = true
	if sp.opts.observer != nil {
		sp.opts.observer.Subscribed(string(KindSections))
	}
	sp.mu.Unlock()

	stop := sp.watcher.Collection(ctx, sp.collection, visibleInOrder, sp.handle)

	sp.mu.Lock()
	if sp.state == StateClosed {
		sp.mu.Unlock()
		stop()
		return
	}
	sp.stop = stop
	sp.mu.Unlock()
}

func (sp *SectionsPropagator) handle(snap docstore.CollectionSnapshot) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.state == StateClosed {
		return
	}

	frame := Frame{Kind: KindSections, Source: SourceFetched, Sections: []models.Section{}}
	if snap.Err != nil {
		slog.Warn("sections snapshot unusable", "path", sp.collection.String(), "error", snap.Err)
		frame.Source = SourceDefault
		frame.Degraded = true
		frame.Error = snap.Err.Error()
	} else {
		for _, doc := range snap.Docs {
			s, err := models.SectionFromFields(doc.ID(), doc.Data)
			if err != nil {
				slog.Warn("skipping unreadable section", "id", doc.ID(), "error", err)
				continue
			}
			frame.Sections = append(frame.Sections, *s)
		}
	}

	sp.sections = frame.Sections
	sp.state = StateApplied
	sp.presenter.Present(frame)

	if sp.opts.observer != nil {
		sp.opts.observer.Framed(string(KindSections), string(frame.Source))
	}
}

// Close stops the subscription exactly once.
func (sp *SectionsPropagator) Close() {
	sp.once.Do(func() {
		sp.mu.Lock()
		sp.state = StateClosed
		stop, started := sp.stop, sp.started
		sp.mu.Unlock()

		if stop != nil {
			stop()
		}
		if started && sp.opts.observer != nil {
			sp.opts.observer.Unsubscribed(string(KindSections))
		}
	})
}

// State returns the propagator's lifecycle state.
func (sp *SectionsPropagator) State() State {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.state
}

// Sections returns the sections last presented.
func (sp *SectionsPropagator) Sections() []models.Section {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return append([]models.Section(nil), sp.sections...)
}

// WithSections runs fn with a started SectionsPropagator and closes it when
// fn returns or panics.
func WithSections(ctx context.Context, w CollectionWatcher, collection docstore.Path, p Presenter, fn func(*SectionsPropagator) error, opts ...Option) error {
	sp := NewSectionsPropagator(w, collection, p, opts...)
	sp.Start(ctx)
	defer sp.Close()
	return fn(sp)
}
