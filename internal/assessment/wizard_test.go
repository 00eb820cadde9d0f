package assessment_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/launchscore/readiness-backend/internal/assessment"
)

// memorySaver records snapshots in memory, one per save, so tests can assert
// both the autosave contract (a write per mutation) and the snapshot content.
type memorySaver struct {
	saves []assessment.Snapshot
	err   error
}

func (m *memorySaver) SaveSnapshot(_ context.Context, _ string, snap assessment.Snapshot) error {
	if m.err != nil {
		return m.err
	}
	m.saves = append(m.saves, snap)
	return nil
}

func (m *memorySaver) last(t *testing.T) assessment.Snapshot {
	t.Helper()
	if len(m.saves) == 0 {
		t.Fatal("no snapshots saved")
	}
	return m.saves[len(m.saves)-1]
}

func ptr[T any](v T) *T { return &v }

// completeTo drives a wizard through valid answers up to (not including) the
// given stage.
func completeTo(t *testing.T, w *assessment.Wizard, target assessment.Stage) {
	t.Helper()
	ctx := context.Background()

	patches := map[assessment.Stage]assessment.Patch{
		assessment.StageStartupType:         {StartupType: ptr(assessment.TypeTechnology)},
		assessment.StageAppIdea:             {AppIdea: ptr(strings.Repeat("a solid idea ", 5))},
		assessment.StageProjectStage:        {ProjectStage: ptr(assessment.StageMVP)},
		assessment.StageUserPersona:         {UserPersona: ptr(assessment.PersonaIAmUser)},
		assessment.StageDifferentiation:     {Differentiation: ptr(assessment.DiffUserFriendly)},
		assessment.StageExistingMaterials:   {ExistingMaterials: ptr([]string{"business_plan", "wireframes"})},
		assessment.StageBusinessModel:       {BusinessModel: ptr(assessment.ModelRecurring)},
		assessment.StageRevenueGoal:         {RevenueGoal: ptr(assessment.Revenue1KTo5K)},
		assessment.StageBuildStrategy:       {BuildStrategy: ptr(assessment.BuildNoCode)},
		assessment.StageHelpNeeded:          {HelpNeeded: ptr([]string{"marketing"})},
		assessment.StageInvestmentReadiness: {InvestmentReadiness: ptr(assessment.Invest8KTo15K)},
	}

	for w.Stage() < target {
		if p, ok := patches[w.Stage()]; ok {
			if err := w.Apply(ctx, p); err != nil {
				t.Fatalf("apply at %s: %v", w.Stage(), err)
			}
		}
		if _, err := w.Advance(ctx); err != nil {
			t.Fatalf("advance from %s: %v", w.Stage(), err)
		}
	}
}

func TestWizard_AdvanceRejectsInvalidStep(t *testing.T) {
	ctx := context.Background()
	w := assessment.New("s1", &memorySaver{})

	// Step 1 with nothing selected.
	if _, err := w.Advance(ctx); err == nil {
		t.Fatal("advance with no startup type should fail")
	}
	var verrs assessment.ValidationErrors
	_, err := w.Advance(ctx)
	if !errors.As(err, &verrs) {
		t.Fatalf("want ValidationErrors, got %T: %v", err, err)
	}
	if w.Stage() != assessment.StageStartupType {
		t.Errorf("failed advance moved the stage to %s", w.Stage())
	}
}

func TestWizard_HelpNeededGating(t *testing.T) {
	ctx := context.Background()
	saver := &memorySaver{}
	w := assessment.New("s1", saver)
	completeTo(t, w, assessment.StageHelpNeeded)

	// Empty set is rejected.
	if _, err := w.Advance(ctx); err == nil {
		t.Fatal("advance from help_needed with empty set should fail")
	}

	// A single "other" selection with no freetext is accepted.
	if err := w.Apply(ctx, assessment.Patch{HelpNeeded: ptr([]string{"other"})}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Advance(ctx); err != nil {
		t.Fatalf("advance with one 'other' selection: %v", err)
	}
	if w.Stage() != assessment.StageInvestmentReadiness {
		t.Errorf("stage = %s, want investment_readiness", w.Stage())
	}
}

func TestWizard_OrderedStageChain(t *testing.T) {
	saver := &memorySaver{}
	w := assessment.New("s1", saver)
	completeTo(t, w, assessment.StageContact)

	// Passing through ScoreReveal is part of the chain.
	if !w.ScoreReady() {
		t.Error("score should be revealed by the contact step")
	}

	// Previous walks back exactly one stage at a time.
	ctx := context.Background()
	if st, err := w.Previous(ctx); err != nil || st != assessment.StageScoreReveal {
		t.Fatalf("previous = %s, %v; want score_reveal", st, err)
	}
	if st, err := w.Previous(ctx); err != nil || st != assessment.StageInvestmentReadiness {
		t.Fatalf("previous = %s, %v; want investment_readiness", st, err)
	}
}

func TestWizard_PreviousStopsAtFirstStage(t *testing.T) {
	ctx := context.Background()
	w := assessment.New("s1", &memorySaver{})
	if _, err := w.Previous(ctx); !errors.Is(err, assessment.ErrAtFirstStage) {
		t.Errorf("previous at step 1 = %v, want ErrAtFirstStage", err)
	}
}

func TestWizard_EveryMutationSnapshots(t *testing.T) {
	ctx := context.Background()
	saver := &memorySaver{}
	w := assessment.New("s1", saver)

	_ = w.Apply(ctx, assessment.Patch{StartupType: ptr(assessment.TypePhysical)})
	_ = w.Apply(ctx, assessment.Patch{AppIdea: ptr("twenty characters ok!")})
	if len(saver.saves) != 2 {
		t.Fatalf("got %d snapshot writes, want one per mutation (2)", len(saver.saves))
	}

	// Snapshots are full-record, not diffs.
	last := saver.last(t)
	if last.Record.StartupType != assessment.TypePhysical || last.Record.AppIdea == "" {
		t.Errorf("snapshot is not a full-record write: %+v", last.Record)
	}
}

func TestWizard_ResumeRestoresRecordAndStage(t *testing.T) {
	saver := &memorySaver{}
	w := assessment.New("s1", saver)
	completeTo(t, w, assessment.StageExistingMaterials) // stop at step 6

	// Round-trip the snapshot through JSON, as the Redis store does.
	raw, err := json.Marshal(saver.last(t))
	if err != nil {
		t.Fatal(err)
	}
	var snap assessment.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}

	resumed, err := assessment.Resume("s1", snap, saver)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Stage() != assessment.StageExistingMaterials {
		t.Errorf("resumed at %s, want existing_materials (step 6)", resumed.Stage())
	}

	rec := resumed.Record()
	if rec.StartupType != assessment.TypeTechnology ||
		rec.ProjectStage != assessment.StageMVP ||
		rec.UserPersona != assessment.PersonaIAmUser ||
		rec.Differentiation != assessment.DiffUserFriendly ||
		len(rec.AppIdea) < assessment.MinAppIdeaLen {
		t.Errorf("resumed record lost earlier answers: %+v", rec)
	}

	// Restored fields remain editable.
	ctx := context.Background()
	if err := resumed.Apply(ctx, assessment.Patch{UserPersona: ptr(assessment.PersonaValidated)}); err != nil {
		t.Fatalf("resumed record not editable: %v", err)
	}
}

func TestWizard_ResumeRejectsCorruptStage(t *testing.T) {
	_, err := assessment.Resume("s1", assessment.Snapshot{Stage: 99}, nil)
	if err == nil {
		t.Error("resume with invalid stage should fail")
	}
}

func TestWizard_SubmitNormalizesPhoneAndFreezes(t *testing.T) {
	ctx := context.Background()
	saver := &memorySaver{}
	w := assessment.New("s1", saver)
	completeTo(t, w, assessment.StageContact)
	if err := w.Apply(ctx, assessment.Patch{Contact: &assessment.Contact{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Phone: "(212) 555-0175", Consent: true,
	}}); err != nil {
		t.Fatal(err)
	}

	rec, err := w.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Contact.Phone != "+12125550175" {
		t.Errorf("phone = %q, want +12125550175", rec.Contact.Phone)
	}
	if w.Stage() != assessment.StageSubmitted || !w.Finalized() {
		t.Error("submit did not reach the terminal stage")
	}

	// The record is frozen: further mutation and movement are rejected.
	if err := w.Apply(ctx, assessment.Patch{AppIdea: ptr("changed")}); !errors.Is(err, assessment.ErrFinalized) {
		t.Errorf("apply after submit = %v, want ErrFinalized", err)
	}
	if _, err := w.Advance(ctx); !errors.Is(err, assessment.ErrFinalized) {
		t.Errorf("advance after submit = %v, want ErrFinalized", err)
	}
	if _, err := w.Previous(ctx); !errors.Is(err, assessment.ErrFinalized) {
		t.Errorf("previous after submit = %v, want ErrFinalized", err)
	}
}

func TestWizard_SubmitOnlyFromContact(t *testing.T) {
	ctx := context.Background()
	w := assessment.New("s1", &memorySaver{})
	completeTo(t, w, assessment.StageScoreReveal)

	if _, err := w.Submit(ctx); !errors.Is(err, assessment.ErrNotAtContact) {
		t.Errorf("submit from score_reveal = %v, want ErrNotAtContact", err)
	}
}

func TestWizard_FailedSaveRollsBackTransition(t *testing.T) {
	ctx := context.Background()
	saver := &memorySaver{}
	w := assessment.New("s1", saver)
	_ = w.Apply(ctx, assessment.Patch{StartupType: ptr(assessment.TypeService)})

	saver.err = errors.New("redis down")
	if _, err := w.Advance(ctx); err == nil {
		t.Fatal("advance should surface the save error")
	}
	if w.Stage() != assessment.StageStartupType {
		t.Errorf("stage moved to %s despite failed save", w.Stage())
	}
}

func TestWizard_TypeChangeKeepsStaleAnswers(t *testing.T) {
	// Changing the startup type after later answers does not clear them; the
	// scoring engine treats any value that no longer resolves as zero-point.
	ctx := context.Background()
	w := assessment.New("s1", &memorySaver{})
	completeTo(t, w, assessment.StageBusinessModel)

	if err := w.Apply(ctx, assessment.Patch{StartupType: ptr(assessment.TypePhysical)}); err != nil {
		t.Fatal(err)
	}
	rec := w.Record()
	if rec.ProjectStage == "" || rec.Differentiation == "" {
		t.Error("type change must not clear dependent answers")
	}
	if rec.StartupType != assessment.TypePhysical {
		t.Error("type change not applied")
	}
}
