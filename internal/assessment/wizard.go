package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Saver persists wizard snapshots to durable storage. The concrete
// implementation is the Redis-backed autosave store; tests inject an
// in-memory stub.
type Saver interface {
	SaveSnapshot(ctx context.Context, sessionID string, snap Snapshot) error
}

// Sentinel errors for illegal transitions. Validation failures are returned
// as ValidationErrors instead — they are user-correctable, not programming
// errors.
var (
	ErrFinalized    = errors.New("assessment: record is finalized")
	ErrAtFirstStage = errors.New("assessment: already at the first step")
	ErrNotAtContact = errors.New("assessment: submission is only allowed from the contact step")
	ErrBeforeReveal = errors.New("assessment: score is not revealed yet")
)

// Wizard is the strictly-ordered assessment flow: one mutable AnswerRecord,
// a current stage, and a Saver that receives a full-record snapshot on every
// mutation and every transition. It is not safe for concurrent use; the HTTP
// layer serialises access per session.
type Wizard struct {
	sessionID string
	rec       AnswerRecord
	stage     Stage
	finalized bool
	saver     Saver

	// now is swappable in tests.
	now func() time.Time
}

// New creates an empty wizard at step 1.
func New(sessionID string, saver Saver) *Wizard {
	return &Wizard{
		sessionID: sessionID,
		rec:       AnswerRecord{},
		stage:     StageStartupType,
		saver:     saver,
		now:       time.Now,
	}
}

// Resume rebuilds a wizard from a persisted snapshot. The caller is expected
// to have loaded the snapshot from the autosave store keyed by sessionID.
func Resume(sessionID string, snap Snapshot, saver Saver) (*Wizard, error) {
	if !ValidStage(snap.Stage) {
		return nil, fmt.Errorf("assessment: snapshot has invalid stage %d", snap.Stage)
	}
	return &Wizard{
		sessionID: sessionID,
		rec:       snap.Record.Clone(),
		stage:     snap.Stage,
		finalized: snap.Finalized,
		saver:     saver,
		now:       time.Now,
	}, nil
}

// Record returns a copy of the current answer record.
func (w *Wizard) Record() AnswerRecord { return w.rec.Clone() }

// Stage returns the current wizard position.
func (w *Wizard) Stage() Stage { return w.stage }

// Finalized reports whether the record has been frozen by Submit.
func (w *Wizard) Finalized() bool { return w.finalized }

// Snapshot returns the current persistable state.
func (w *Wizard) Snapshot() Snapshot {
	return Snapshot{
		Record:    w.rec.Clone(),
		Stage:     w.stage,
		Finalized: w.finalized,
		UpdatedAt: w.now().UTC(),
	}
}

// Apply merges a partial answer update into the record and writes a snapshot.
// No validation happens here — gating is done at Advance, matching the flow's
// contract that a user may type freely within a step.
func (w *Wizard) Apply(ctx context.Context, p Patch) error {
	if w.finalized {
		return ErrFinalized
	}
	w.rec.apply(p)
	return w.save(ctx)
}

// Advance validates the current stage and, on success, persists a snapshot
// and moves forward one stage. The snapshot is written before the caller
// observes the new stage so a crash between validate and respond never loses
// progress.
//
// Advancing from the contact step is not allowed — that transition is Submit.
func (w *Wizard) Advance(ctx context.Context) (Stage, error) {
	if w.finalized || w.stage == StageSubmitted {
		return w.stage, ErrFinalized
	}
	if w.stage == StageContact {
		return w.stage, ErrNotAtContact
	}

	if errs := ValidateStage(w.rec, w.stage); len(errs) > 0 {
		return w.stage, errs
	}

	w.stage++
	if err := w.save(ctx); err != nil {
		w.stage--
		return w.stage, err
	}
	return w.stage, nil
}

// Previous moves back exactly one stage. No validation runs and no answers
// are cleared. Moving back is not possible from the first step or once
// submitted.
func (w *Wizard) Previous(ctx context.Context) (Stage, error) {
	if w.finalized || w.stage == StageSubmitted {
		return w.stage, ErrFinalized
	}
	if w.stage == StageStartupType {
		return w.stage, ErrAtFirstStage
	}

	w.stage--
	if err := w.save(ctx); err != nil {
		w.stage++
		return w.stage, err
	}
	return w.stage, nil
}

// ScoreReady reports whether the flow has reached the score reveal.
func (w *Wizard) ScoreReady() bool {
	return w.stage >= StageScoreReveal
}

// Submit validates the contact step, normalizes the phone number into the
// record, freezes the record, and moves to Submitted. The returned record is
// the finalized copy the caller should score and deliver.
func (w *Wizard) Submit(ctx context.Context) (AnswerRecord, error) {
	if w.finalized || w.stage == StageSubmitted {
		return AnswerRecord{}, ErrFinalized
	}
	if w.stage != StageContact {
		return AnswerRecord{}, ErrNotAtContact
	}

	if errs := ValidateStage(w.rec, StageContact); len(errs) > 0 {
		return AnswerRecord{}, errs
	}

	// validateContact passed, so normalization cannot fail here.
	normalized, err := NormalizeUSPhone(w.rec.Contact.Phone)
	if err != nil {
		return AnswerRecord{}, fmt.Errorf("assessment: normalize phone: %w", err)
	}
	w.rec.Contact.Phone = normalized

	w.stage = StageSubmitted
	w.finalized = true
	if err := w.save(ctx); err != nil {
		w.stage = StageContact
		w.finalized = false
		return AnswerRecord{}, err
	}

	return w.rec.Clone(), nil
}

func (w *Wizard) save(ctx context.Context) error {
	if w.saver == nil {
		return nil
	}
	if err := w.saver.SaveSnapshot(ctx, w.sessionID, w.Snapshot()); err != nil {
		return fmt.Errorf("assessment: save snapshot: %w", err)
	}
	return nil
}
