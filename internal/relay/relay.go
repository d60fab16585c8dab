// Package relay drives the poll, extract, forward, persist loop.
package relay

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/candree7-rgb/zeiiforward/internal/channel"
	"github.com/candree7-rgb/zeiiforward/internal/forward"
	"github.com/candree7-rgb/zeiiforward/internal/metrics"
	"github.com/candree7-rgb/zeiiforward/internal/schedule"
	"github.com/candree7-rgb/zeiiforward/internal/state"
)

// Runner owns the single-threaded relay loop. All mutable state (the
// in-memory high-water mark) lives here and is only touched from Run.
type Runner struct {
	client    *channel.Client
	forwarder *forward.Forwarder
	store     *state.Store
	aligner   schedule.Aligner
	log       zerolog.Logger
	lastID    int64
}

// NewRunner wires the loop's collaborators together.
func NewRunner(client *channel.Client, fwd *forward.Forwarder, store *state.Store, aligner schedule.Aligner, log zerolog.Logger) *Runner {
	return &Runner{
		client:    client,
		forwarder: fwd,
		store:     store,
		aligner:   aligner,
		log:       log,
	}
}

// Run restores the persisted high-water mark, aligns to the first tick, and
// loops one cycle per tick until ctx is done. Cycle failures never stop the
// loop; only ctx cancellation returns.
func (r *Runner) Run(ctx context.Context) error {
	if st, ok := r.store.Load(); ok && st.LastID != "" {
		r.lastID = channel.Message{ID: st.LastID}.NumericID()
		r.log.Info().Str("last_id", st.LastID).Msg("resuming from persisted state")
	}

	if err := r.aligner.Wait(ctx); err != nil {
		return err
	}
	for {
		r.cycle(ctx)
		if err := r.aligner.Wait(ctx); err != nil {
			return err
		}
	}
}

// cycle runs one tick: poll, filter unseen, forward oldest-first, persist.
// Anything that goes wrong is logged and absorbed so the loop survives.
func (r *Runner) cycle(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("cycle panicked")
		}
	}()

	msgs, err := r.client.Latest(ctx)
	if err != nil {
		metrics.PollsTotal.WithLabelValues("error").Inc()
		r.log.Error().Err(err).Msg("poll failed")
		return
	}
	metrics.PollsTotal.WithLabelValues("ok").Inc()

	var processed []channel.Message
	for _, m := range msgs { // already oldest first
		if m.NumericID() <= r.lastID {
			continue
		}
		metrics.MessagesTotal.Inc()
		r.forwarder.Forward(ctx, m)
		processed = append(processed, m)
	}
	if len(processed) == 0 {
		r.log.Debug().Msg("no new messages")
		return
	}

	last := processed[len(processed)-1]
	r.lastID = last.NumericID()
	if err := r.store.Save(state.State{LastID: last.ID}); err != nil {
		r.log.Error().Err(err).Str("last_id", last.ID).Msg("persist state failed")
	}
	r.log.Info().Int("count", len(processed)).Str("last_id", last.ID).Msg("processed new messages")
}
