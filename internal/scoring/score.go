// Package scoring implements the investment readiness score: a pure,
// deterministic weighted sum over a finalized answer record. It imports only
// the assessment types — no database, no I/O — and can be tested in
// isolation.
package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/launchscore/readiness-backend/internal/assessment"
)

// Segment is the qualitative readiness band derived from the numeric score.
// String values match the Postgres enum so they can be stored without
// conversion.
type Segment string

const (
	SegmentFeasibility   Segment = "feasibility"    // 0–25: validate the idea first
	SegmentBusinessLogic Segment = "business_logic" // 26–50: firm up the model
	SegmentDesignTech    Segment = "design_tech"    // 51–75: ready to build
	SegmentInvestors     Segment = "investors"      // 76–100: ready to raise
)

// Result is the derived {score, segment} pair. It is recomputed on demand
// from the same record and must be identical every time — nothing in Compute
// reads a clock, randomness, or external state.
type Result struct {
	Score   int     `json:"score"`
	Segment Segment `json:"segment"`
}

// ─── LOOKUP TABLES ───────────────────────────────────────────────────────────
//
// Component maxima sum to exactly 100.0:
//
//	persona 10 + differentiation 10 + idea depth 4 + stage 8 + materials 28
//	+ model 6.4 + revenue 6.4 + build 6.4 + help 6.4 + investment 14.4
//
// Weights deliberately front-load demonstrated execution (materials, 28)
// over stated intent (persona and differentiation, 10 each). Missing or
// unrecognised values score zero — a record whose type-dependent answers went
// stale after a startup-type change degrades gracefully instead of erroring.

var personaPoints = map[string]float64{
	assessment.PersonaAssumptions: 0,
	assessment.PersonaThinkKnow:   2,
	assessment.PersonaIAmUser:     5,
	assessment.PersonaValidated:   10,
}

var differentiationPoints = map[string]float64{
	assessment.DiffBetter:           4,
	assessment.DiffUserFriendly:     7,
	assessment.DiffDifferentProblem: 10,
	assessment.DiffWorkingOnIt:      0,
	assessment.DiffMashup:           5,
}

var stagePoints = map[string]float64{
	assessment.StageJustIdea:       2,
	assessment.StageBizFigured:     4,
	assessment.StageBizTechPlanned: 5,
	assessment.StageMVP:            6,
	assessment.StageLaunchingSoon:  7,
	assessment.StageAlreadyLive:    8,
}

var businessModelPoints = map[string]float64{
	assessment.ModelRecurring:  6.4,
	assessment.ModelOneTime:    4.8,
	assessment.ModelWhiteLabel: 5.6,
	assessment.ModelAdBased:    4.0,
	assessment.ModelMix:        6.0,
	assessment.ModelOther:      3.0,
}

var revenueGoalPoints = map[string]float64{
	assessment.Revenue0To1K:   2.0,
	assessment.Revenue1KTo5K:  4.0,
	assessment.Revenue5KTo25K: 5.5,
	assessment.Revenue25KPlus: 6.4,
}

var buildStrategyPoints = map[string]float64{
	assessment.BuildOutsource: 5.5,
	assessment.BuildCofounder: 6.4,
	assessment.BuildNoCode:    4.0,
	assessment.BuildNeedFind:  2.0,
	assessment.BuildHaveTeam:  6.4,
}

var investmentPoints = map[string]float64{
	assessment.InvestUnder2K:  2.0,
	assessment.Invest3KTo5K:   5.0,
	assessment.Invest8KTo15K:  8.0,
	assessment.Invest20KTo40K: 11.0,
	assessment.Invest50KTo90K: 13.0,
	assessment.Invest100KPlus: 14.4,
}

const (
	ideaDepthMax     = 4.0  // saturates at 50 characters
	ideaDepthDivisor = 50.0 // points per 50 characters

	materialsMax      = 28.0 // the single highest-weighted component
	materialsSaturate = 9.0  // items needed for full points

	helpNeededBase = 6.4 // inverse ramp: more areas needed means lower readiness
	helpNeededCost = 1.0 // per selected area
)

// ─── CORE ────────────────────────────────────────────────────────────────────

// Compute maps a record to its score and segment. Pure and total: it never
// errors, never mutates the record, and ignores how complete the record is.
func Compute(r assessment.AnswerRecord) Result {
	sum := 0.0
	for _, pts := range Breakdown(r) {
		sum += pts
	}
	score := clamp(int(math.Round(sum)))
	return Result{Score: score, Segment: SegmentFor(score)}
}

// Breakdown returns the raw per-component contributions, keyed by component
// name. The reveal view uses it to show where the points came from; tests use
// it to pin individual components without rounding noise from the total.
func Breakdown(r assessment.AnswerRecord) map[string]float64 {
	return map[string]float64{
		"user_persona":         personaPoints[r.UserPersona],
		"differentiation":      differentiationPoints[r.Differentiation],
		"app_idea":             ideaDepthPoints(r.AppIdea),
		"project_stage":        stagePoints[r.ProjectStage],
		"existing_materials":   materialsPoints(len(r.ExistingMaterials)),
		"business_model":       businessModelPoints[r.BusinessModel],
		"revenue_goal":         revenueGoalPoints[r.RevenueGoal],
		"build_strategy":       buildStrategyPoints[r.BuildStrategy],
		"help_needed":          helpNeededPoints(len(r.HelpNeeded)),
		"investment_readiness": investmentPoints[r.InvestmentReadiness],
	}
}

// SegmentFor is the pure range lookup on an already-clamped score.
func SegmentFor(score int) Segment {
	switch {
	case score <= 25:
		return SegmentFeasibility
	case score <= 50:
		return SegmentBusinessLogic
	case score <= 75:
		return SegmentDesignTech
	default:
		return SegmentInvestors
	}
}

// ideaDepthPoints ramps linearly with description length, contributing
// length/50*4 points and saturating at 50 characters. Length is counted in
// runes so multi-byte text is not over-credited.
func ideaDepthPoints(idea string) float64 {
	n := float64(utf8.RuneCountInString(strings.TrimSpace(idea)))
	return math.Min(ideaDepthMax, n/ideaDepthDivisor*ideaDepthMax)
}

// materialsPoints ramps linearly per selected material and saturates at 9.
func materialsPoints(n int) float64 {
	return math.Min(materialsMax, float64(n)/materialsSaturate*materialsMax)
}

// helpNeededPoints decreases with every additional area of help needed,
// floored at zero.
func helpNeededPoints(n int) float64 {
	return math.Max(0, helpNeededBase-float64(n)*helpNeededCost)
}

// clamp constrains the rounded total to [0, 100]. The component maxima sum to
// exactly 100 so this never fires today; it guards against a future weight
// recalibration pushing the total out of range.
func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
