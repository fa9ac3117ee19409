// Package cycle runs the request/response pipeline: restore the session's
// panel tree, interpret inbound parameters, dispatch the event (if any),
// render the tree, persist it back. The pipeline is strictly linear; a fatal
// error at any stage aborts before persist, so the previous record stays the
// last-known-good state.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/jask/panelkit/internal/panel"
	"github.com/jask/panelkit/internal/session"
	"github.com/jask/panelkit/internal/wire"
)

// HandlerNotFoundError reports a decoded routine with no entry in the target
// panel's handler table. Suggestion names the nearest registered routine when
// one is plausibly a typo.
type HandlerNotFoundError struct {
	PanelID    int
	Routine    string
	Suggestion string
}

func (e *HandlerNotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("cycle: panel %d has no handler %q (closest: %q)", e.PanelID, e.Routine, e.Suggestion)
	}
	return fmt.Sprintf("cycle: panel %d has no handler %q", e.PanelID, e.Routine)
}

// Runner orchestrates cycles against one store and one root panel type.
type Runner struct {
	Store   session.Store
	NewRoot func() panel.Panel
	Logger  *slog.Logger
}

// Result is a completed cycle: the markup to emit and the session id the
// client must round-trip.
type Result struct {
	SessionID string
	Markup    string
}

// Run executes one full cycle for one inbound request.
func (r *Runner) Run(ctx context.Context, raw url.Values) (Result, error) {
	log := r.logger()
	start := time.Now()
	params := normalize(raw)

	// restore
	sid, tree, fresh, release, err := r.restore(ctx, params, log)
	if err != nil {
		return Result{}, err
	}
	defer release()

	pc := panel.NewContext(ctx, tree, sid, params, log)
	if fresh {
		if init, ok := tree.Root().(panel.Initializer); ok {
			if err := init.Init(pc); err != nil {
				return Result{}, fmt.Errorf("cycle: init root: %w", err)
			}
		}
	}

	// interpret
	ev, hasEvent, err := interpret(params)
	if err != nil {
		return Result{}, err
	}

	// dispatch
	if hasEvent {
		if err := dispatch(pc, tree, ev); err != nil {
			return Result{}, err
		}
	}

	// render
	markup, err := pc.Render(tree.Root())
	if err != nil {
		return Result{}, fmt.Errorf("cycle: render: %w", err)
	}

	// persist
	payload, err := tree.Marshal()
	if err != nil {
		return Result{}, fmt.Errorf("cycle: serialize tree: %w", err)
	}
	if err := r.Store.Save(ctx, sid, session.Record{Payload: payload}); err != nil {
		return Result{}, fmt.Errorf("cycle: persist: %w", err)
	}

	log.Debug("cycle complete",
		"session", sid,
		"fresh", fresh,
		"event", hasEvent,
		"elapsed", time.Since(start))
	return Result{SessionID: sid, Markup: markup}, nil
}

// restore acquires the session and rebuilds its tree. Missing, expired, and
// corrupt records are recovered silently with a fresh session; only backend
// failures surface as errors.
func (r *Runner) restore(ctx context.Context, params url.Values, log *slog.Logger) (string, *panel.Tree, bool, func(), error) {
	if sid := params.Get(wire.SessionParam); sid != "" {
		release, err := r.Store.Acquire(ctx, sid)
		if err != nil {
			return "", nil, false, nil, fmt.Errorf("cycle: acquire session: %w", err)
		}
		rec, err := r.Store.Load(ctx, sid)
		switch {
		case err == nil && len(rec.Payload) == 0:
			// created but never persisted; reuse the id with a fresh tree
			return sid, panel.NewTree(r.NewRoot()), true, release, nil
		case err == nil:
			tree, uerr := panel.Unmarshal(rec.Payload)
			if uerr == nil {
				return sid, tree, false, release, nil
			}
			log.Warn("session record corrupt, starting fresh", "session", sid, "err", uerr)
			release()
		case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
			log.Debug("session unavailable, starting fresh", "session", sid, "reason", err)
			release()
		default:
			release()
			return "", nil, false, nil, fmt.Errorf("cycle: load session: %w", err)
		}
	}

	sid, err := r.Store.Create(ctx)
	if err != nil {
		return "", nil, false, nil, fmt.Errorf("cycle: create session: %w", err)
	}
	release, err := r.Store.Acquire(ctx, sid)
	if err != nil {
		return "", nil, false, nil, fmt.Errorf("cycle: acquire session: %w", err)
	}
	return sid, panel.NewTree(r.NewRoot()), true, release, nil
}

// interpret detects an event token among the normalized parameters.
func interpret(params url.Values) (wire.Event, bool, error) {
	tok, ok := wire.FindToken(params)
	if !ok {
		return wire.Event{}, false, nil
	}
	ev, err := wire.DecodeEvent(tok)
	if err != nil {
		return wire.Event{}, false, err
	}
	return ev, true, nil
}

// dispatch resolves the target panel and invokes the routine's handler.
func dispatch(pc *panel.Context, tree *panel.Tree, ev wire.Event) error {
	target, err := tree.Resolve(ev.PanelID)
	if err != nil {
		return err
	}
	handlers := target.Handlers()
	h, ok := handlers[ev.Routine]
	if !ok {
		return &HandlerNotFoundError{
			PanelID:    ev.PanelID,
			Routine:    ev.Routine,
			Suggestion: nearestRoutine(ev.Routine, handlers),
		}
	}
	if err := h(pc, panel.Event{Name: ev.Name}); err != nil {
		return fmt.Errorf("cycle: handler %q on panel %d: %w", ev.Routine, ev.PanelID, err)
	}
	return nil
}

// nearestRoutine returns the registered routine closest to the requested one,
// or "" when nothing is within plausible-typo distance.
func nearestRoutine(routine string, handlers map[string]panel.Handler) string {
	const maxDistance = 2
	best, bestDist := "", maxDistance+1
	for name := range handlers {
		if d := levenshtein.ComputeDistance(routine, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
