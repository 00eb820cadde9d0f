// Package assessment holds the answer record, the type-dependent option
// catalogs, the per-step validation rules, and the wizard state machine for
// the launch readiness assessment. It is intentionally dependency-free apart
// from context for the Saver hook — it imports nothing from internal/ and can
// be tested without a database or Redis.
package assessment

import "time"

// StartupType is the answer to step 1. It drives which option catalogs are
// active for the type-dependent questions that follow.
type StartupType string

const (
	TypeTechnology  StartupType = "technology"
	TypePhysical    StartupType = "physical"
	TypeService     StartupType = "service"
	TypeCombination StartupType = "combination"
)

// ValidStartupType reports whether s is a known startup type.
func ValidStartupType(s StartupType) bool {
	switch s {
	case TypeTechnology, TypePhysical, TypeService, TypeCombination:
		return true
	}
	return false
}

// Contact is the step-12 block. Phone is stored normalized (+1XXXXXXXXXX)
// once the step validates.
type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Consent   bool   `json:"consent"`
}

// AnswerRecord is the single mutable aggregate built up across the wizard's
// lifetime. Fields are zero-valued until their step is answered; the scoring
// engine treats unset or unrecognised values as zero-point, so a partially
// filled record is always safe to score.
//
// The *Other fields carry the optional freetext attached to an "other"
// selection. They are never required — selecting "other" with empty freetext
// is accepted.
type AnswerRecord struct {
	StartupType          StartupType `json:"startup_type,omitempty"`
	AppIdea              string      `json:"app_idea,omitempty"`
	ProjectStage         string      `json:"project_stage,omitempty"`
	UserPersona          string      `json:"user_persona,omitempty"`
	UserPersonaOther     string      `json:"user_persona_other,omitempty"`
	Differentiation      string      `json:"differentiation,omitempty"`
	DifferentiationOther string      `json:"differentiation_other,omitempty"`
	ExistingMaterials    []string    `json:"existing_materials,omitempty"`
	BusinessModel        string      `json:"business_model,omitempty"`
	RevenueGoal          string      `json:"revenue_goal,omitempty"`
	RevenueGoalDetail    string      `json:"revenue_goal_detail,omitempty"`
	BuildStrategy        string      `json:"build_strategy,omitempty"`
	BuildStrategyOther   string      `json:"build_strategy_other,omitempty"`
	HelpNeeded           []string    `json:"help_needed,omitempty"`
	HelpNeededOther      string      `json:"help_needed_other,omitempty"`
	InvestmentReadiness  string      `json:"investment_readiness,omitempty"`
	Contact              Contact     `json:"contact"`
}

// Patch is a partial update to an AnswerRecord. Nil fields are left untouched,
// which lets the HTTP layer accept a sparse JSON body for whatever step the
// user is on. Slice fields replace the stored value wholesale — the wizard
// persists full-record snapshots, not diffs.
type Patch struct {
	StartupType          *StartupType `json:"startup_type,omitempty"`
	AppIdea              *string      `json:"app_idea,omitempty"`
	ProjectStage         *string      `json:"project_stage,omitempty"`
	UserPersona          *string      `json:"user_persona,omitempty"`
	UserPersonaOther     *string      `json:"user_persona_other,omitempty"`
	Differentiation      *string      `json:"differentiation,omitempty"`
	DifferentiationOther *string      `json:"differentiation_other,omitempty"`
	ExistingMaterials    *[]string    `json:"existing_materials,omitempty"`
	BusinessModel        *string      `json:"business_model,omitempty"`
	RevenueGoal          *string      `json:"revenue_goal,omitempty"`
	RevenueGoalDetail    *string      `json:"revenue_goal_detail,omitempty"`
	BuildStrategy        *string      `json:"build_strategy,omitempty"`
	BuildStrategyOther   *string      `json:"build_strategy_other,omitempty"`
	HelpNeeded           *[]string    `json:"help_needed,omitempty"`
	HelpNeededOther      *string      `json:"help_needed_other,omitempty"`
	InvestmentReadiness  *string      `json:"investment_readiness,omitempty"`
	Contact              *Contact     `json:"contact,omitempty"`
}

// apply copies the non-nil fields of p onto r.
func (r *AnswerRecord) apply(p Patch) {
	if p.StartupType != nil {
		r.StartupType = *p.StartupType
	}
	if p.AppIdea != nil {
		r.AppIdea = *p.AppIdea
	}
	if p.ProjectStage != nil {
		r.ProjectStage = *p.ProjectStage
	}
	if p.UserPersona != nil {
		r.UserPersona = *p.UserPersona
	}
	if p.UserPersonaOther != nil {
		r.UserPersonaOther = *p.UserPersonaOther
	}
	if p.Differentiation != nil {
		r.Differentiation = *p.Differentiation
	}
	if p.DifferentiationOther != nil {
		r.DifferentiationOther = *p.DifferentiationOther
	}
	if p.ExistingMaterials != nil {
		r.ExistingMaterials = append([]string(nil), (*p.ExistingMaterials)...)
	}
	if p.BusinessModel != nil {
		r.BusinessModel = *p.BusinessModel
	}
	if p.RevenueGoal != nil {
		r.RevenueGoal = *p.RevenueGoal
	}
	if p.RevenueGoalDetail != nil {
		r.RevenueGoalDetail = *p.RevenueGoalDetail
	}
	if p.BuildStrategy != nil {
		r.BuildStrategy = *p.BuildStrategy
	}
	if p.BuildStrategyOther != nil {
		r.BuildStrategyOther = *p.BuildStrategyOther
	}
	if p.HelpNeeded != nil {
		r.HelpNeeded = append([]string(nil), (*p.HelpNeeded)...)
	}
	if p.HelpNeededOther != nil {
		r.HelpNeededOther = *p.HelpNeededOther
	}
	if p.InvestmentReadiness != nil {
		r.InvestmentReadiness = *p.InvestmentReadiness
	}
	if p.Contact != nil {
		r.Contact = *p.Contact
	}
}

// Clone returns a deep copy of the record. Used by Finalize so the frozen
// record handed to scoring and submission cannot alias the wizard's mutable
// state.
func (r AnswerRecord) Clone() AnswerRecord {
	out := r
	out.ExistingMaterials = append([]string(nil), r.ExistingMaterials...)
	out.HelpNeeded = append([]string(nil), r.HelpNeeded...)
	return out
}

// Snapshot is the unit of autosave. The full record plus the wizard position
// is written on every mutation and every transition, so a reload restores the
// user exactly where they left off.
type Snapshot struct {
	Record    AnswerRecord `json:"record"`
	Stage     Stage        `json:"stage"`
	Finalized bool         `json:"finalized"`
	UpdatedAt time.Time    `json:"updated_at"`
}
