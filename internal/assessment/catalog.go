package assessment

// Field identifies one of the catalog-backed questions.
type Field string

const (
	FieldProjectStage        Field = "project_stage"
	FieldUserPersona         Field = "user_persona"
	FieldDifferentiation     Field = "differentiation"
	FieldExistingMaterials   Field = "existing_materials"
	FieldBusinessModel       Field = "business_model"
	FieldRevenueGoal         Field = "revenue_goal"
	FieldBuildStrategy       Field = "build_strategy"
	FieldHelpNeeded          Field = "help_needed"
	FieldInvestmentReadiness Field = "investment_readiness"
)

// Option is a single selectable entry in a catalog. IDs are stable and shared
// with the scoring lookup tables; only labels (and, for the set-valued
// questions, the member list itself) vary by startup type.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	// Freetext marks the "other"-style options that carry an optional
	// companion text field.
	Freetext bool `json:"freetext,omitempty"`
}

// Canonical option IDs. These are the keys the scoring engine looks up;
// anything outside these sets scores zero.
const (
	StageJustIdea       = "just_idea"
	StageBizFigured     = "business_figured"
	StageBizTechPlanned = "business_and_tech_planned"
	StageMVP            = "mvp_development"
	StageLaunchingSoon  = "launching_soon"
	StageAlreadyLive    = "already_live"

	PersonaAssumptions = "assumptions"
	PersonaThinkKnow   = "think_know"
	PersonaIAmUser     = "i_am_user"
	PersonaValidated   = "validated"
	PersonaOther       = "other"

	DiffBetter           = "better"
	DiffUserFriendly     = "user_friendly"
	DiffDifferentProblem = "different_problem"
	DiffWorkingOnIt      = "working_on_it"
	DiffMashup           = "mashup"
	DiffOther            = "other"

	ModelRecurring  = "recurring"
	ModelOneTime    = "one_time"
	ModelWhiteLabel = "white_label"
	ModelAdBased    = "ad_based"
	ModelMix        = "mix"
	ModelOther      = "other"

	Revenue0To1K      = "0-1k"
	Revenue1KTo5K     = "1k-5k"
	Revenue5KTo25K    = "5k-25k"
	Revenue25KPlus    = "25k+"
	RevenueAlreadyNow = "already_creating"

	BuildOutsource = "outsource"
	BuildCofounder = "cofounder"
	BuildNoCode    = "no_code"
	BuildNeedFind  = "need_find"
	BuildHaveTeam  = "have_team"
	BuildOther     = "other"

	InvestUnder2K  = "under_2k"
	Invest3KTo5K   = "3k-5k"
	Invest8KTo15K  = "8k-15k"
	Invest20KTo40K = "20k-40k"
	Invest50KTo90K = "50k-90k"
	Invest100KPlus = "100k+"
)

// CatalogFor returns the option set active for the given startup type and
// field. An unset startup type falls back to the technology catalog, matching
// the invariant that type-dependent catalogs default to technology until step
// 1 is answered. The returned slice must not be mutated.
func CatalogFor(st StartupType, field Field) []Option {
	if !ValidStartupType(st) {
		st = TypeTechnology
	}
	byField, ok := catalogs[st]
	if !ok {
		byField = catalogs[TypeTechnology]
	}
	return byField[field]
}

// InCatalog reports whether id belongs to the catalog active for (st, field).
func InCatalog(st StartupType, field Field, id string) bool {
	for _, opt := range CatalogFor(st, field) {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// ─── CATALOG DATA ────────────────────────────────────────────────────────────

// Shared catalogs: these questions use the same IDs and labels for every
// startup type; only the surrounding copy differs in the UI.
var (
	personaOptions = []Option{
		{ID: PersonaAssumptions, Label: "I'm working off assumptions"},
		{ID: PersonaThinkKnow, Label: "I think I know who they are"},
		{ID: PersonaIAmUser, Label: "I am the target user"},
		{ID: PersonaValidated, Label: "I've validated with real users"},
		{ID: PersonaOther, Label: "Other", Freetext: true},
	}

	revenueOptions = []Option{
		{ID: Revenue0To1K, Label: "$0 – $1,000 / month"},
		{ID: Revenue1KTo5K, Label: "$1,000 – $5,000 / month"},
		{ID: Revenue5KTo25K, Label: "$5,000 – $25,000 / month"},
		{ID: Revenue25KPlus, Label: "$25,000+ / month"},
		{ID: RevenueAlreadyNow, Label: "Already creating revenue", Freetext: true},
	}

	investmentOptions = []Option{
		{ID: InvestUnder2K, Label: "Under $2,000"},
		{ID: Invest3KTo5K, Label: "$3,000 – $5,000"},
		{ID: Invest8KTo15K, Label: "$8,000 – $15,000"},
		{ID: Invest20KTo40K, Label: "$20,000 – $40,000"},
		{ID: Invest50KTo90K, Label: "$50,000 – $90,000"},
		{ID: Invest100KPlus, Label: "$100,000+"},
	}
)

func stageOptions(mvpLabel, liveLabel string) []Option {
	return []Option{
		{ID: StageJustIdea, Label: "Just an idea"},
		{ID: StageBizFigured, Label: "Business model figured out"},
		{ID: StageBizTechPlanned, Label: "Business and build both planned"},
		{ID: StageMVP, Label: mvpLabel},
		{ID: StageLaunchingSoon, Label: "Launching soon"},
		{ID: StageAlreadyLive, Label: liveLabel},
	}
}

func diffOptions(betterLabel, mashupLabel string) []Option {
	return []Option{
		{ID: DiffBetter, Label: betterLabel},
		{ID: DiffUserFriendly, Label: "More user-friendly than what exists"},
		{ID: DiffDifferentProblem, Label: "Solves a problem nobody else solves"},
		{ID: DiffWorkingOnIt, Label: "Still working that out"},
		{ID: DiffMashup, Label: mashupLabel},
		{ID: DiffOther, Label: "Other", Freetext: true},
	}
}

func modelOptions(recurringLabel string) []Option {
	return []Option{
		{ID: ModelRecurring, Label: recurringLabel},
		{ID: ModelOneTime, Label: "One-time purchases"},
		{ID: ModelWhiteLabel, Label: "White label / licensing"},
		{ID: ModelAdBased, Label: "Ad-based"},
		{ID: ModelMix, Label: "A mix of models"},
		{ID: ModelOther, Label: "Other / not sure", Freetext: true},
	}
}

func buildOptions(noCodeLabel string) []Option {
	return []Option{
		{ID: BuildOutsource, Label: "Outsource to an agency or freelancers"},
		{ID: BuildCofounder, Label: "Build it with a co-founder"},
		{ID: BuildNoCode, Label: noCodeLabel},
		{ID: BuildNeedFind, Label: "I still need to find someone"},
		{ID: BuildHaveTeam, Label: "I already have a team"},
		{ID: BuildOther, Label: "Other", Freetext: true},
	}
}

// catalogs is the full per-type catalog table. The set-valued questions
// (existing materials, help needed) have genuinely different member lists per
// startup type; the enum questions share canonical IDs with type-specific
// labels.
var catalogs = map[StartupType]map[Field][]Option{
	TypeTechnology: {
		FieldProjectStage:    stageOptions("MVP in development", "App is already live"),
		FieldUserPersona:     personaOptions,
		FieldDifferentiation: diffOptions("Better than existing apps", "A mashup of existing products"),
		FieldExistingMaterials: {
			{ID: "business_plan", Label: "Business plan"},
			{ID: "market_research", Label: "Market research"},
			{ID: "competitor_analysis", Label: "Competitor analysis"},
			{ID: "wireframes", Label: "Wireframes"},
			{ID: "ui_designs", Label: "UI designs"},
			{ID: "technical_spec", Label: "Technical specification"},
			{ID: "prototype", Label: "Clickable prototype"},
			{ID: "landing_page", Label: "Landing page"},
			{ID: "waitlist", Label: "User waitlist"},
			{ID: "pitch_deck", Label: "Pitch deck"},
			{ID: "brand_identity", Label: "Brand identity"},
		},
		FieldBusinessModel: modelOptions("Recurring subscriptions"),
		FieldRevenueGoal:   revenueOptions,
		FieldBuildStrategy: buildOptions("Build it myself with no-code tools"),
		FieldHelpNeeded: {
			{ID: "product_development", Label: "Product development"},
			{ID: "design", Label: "Design / UX"},
			{ID: "marketing", Label: "Marketing"},
			{ID: "sales", Label: "Sales"},
			{ID: "fundraising", Label: "Fundraising"},
			{ID: "legal", Label: "Legal"},
			{ID: "hiring", Label: "Hiring"},
			{ID: "other", Label: "Other", Freetext: true},
		},
		FieldInvestmentReadiness: investmentOptions,
	},

	TypePhysical: {
		FieldProjectStage:    stageOptions("Prototype in development", "Product is already selling"),
		FieldUserPersona:     personaOptions,
		FieldDifferentiation: diffOptions("Better than existing products", "A remix of existing products"),
		FieldExistingMaterials: {
			{ID: "business_plan", Label: "Business plan"},
			{ID: "market_research", Label: "Market research"},
			{ID: "competitor_analysis", Label: "Competitor analysis"},
			{ID: "product_sketches", Label: "Product sketches"},
			{ID: "cad_models", Label: "CAD models"},
			{ID: "physical_prototype", Label: "Physical prototype"},
			{ID: "supplier_shortlist", Label: "Supplier shortlist"},
			{ID: "packaging_design", Label: "Packaging design"},
			{ID: "landing_page", Label: "Landing page"},
			{ID: "waitlist", Label: "Customer waitlist"},
			{ID: "pitch_deck", Label: "Pitch deck"},
		},
		FieldBusinessModel: modelOptions("Subscription / replenishment"),
		FieldRevenueGoal:   revenueOptions,
		FieldBuildStrategy: buildOptions("Start with off-the-shelf components"),
		FieldHelpNeeded: {
			{ID: "manufacturing", Label: "Manufacturing"},
			{ID: "design", Label: "Industrial design"},
			{ID: "logistics", Label: "Logistics / fulfilment"},
			{ID: "marketing", Label: "Marketing"},
			{ID: "sales", Label: "Sales / retail"},
			{ID: "fundraising", Label: "Fundraising"},
			{ID: "legal", Label: "Legal / compliance"},
			{ID: "other", Label: "Other", Freetext: true},
		},
		FieldInvestmentReadiness: investmentOptions,
	},

	TypeService: {
		FieldProjectStage:    stageOptions("Pilot service in development", "Service is already running"),
		FieldUserPersona:     personaOptions,
		FieldDifferentiation: diffOptions("Better than existing providers", "A bundle of existing services"),
		FieldExistingMaterials: {
			{ID: "business_plan", Label: "Business plan"},
			{ID: "market_research", Label: "Market research"},
			{ID: "competitor_analysis", Label: "Competitor analysis"},
			{ID: "service_blueprint", Label: "Service blueprint"},
			{ID: "pricing_sheet", Label: "Pricing sheet"},
			{ID: "pilot_clients", Label: "Pilot clients"},
			{ID: "testimonials", Label: "Testimonials"},
			{ID: "landing_page", Label: "Landing page"},
			{ID: "waitlist", Label: "Client waitlist"},
			{ID: "pitch_deck", Label: "Pitch deck"},
			{ID: "brand_identity", Label: "Brand identity"},
		},
		FieldBusinessModel: modelOptions("Retainers / subscriptions"),
		FieldRevenueGoal:   revenueOptions,
		FieldBuildStrategy: buildOptions("Deliver it myself to start"),
		FieldHelpNeeded: {
			{ID: "operations", Label: "Operations"},
			{ID: "marketing", Label: "Marketing"},
			{ID: "sales", Label: "Sales"},
			{ID: "hiring", Label: "Hiring"},
			{ID: "fundraising", Label: "Fundraising"},
			{ID: "legal", Label: "Legal"},
			{ID: "automation", Label: "Automation / tooling"},
			{ID: "other", Label: "Other", Freetext: true},
		},
		FieldInvestmentReadiness: investmentOptions,
	},

	TypeCombination: {
		FieldProjectStage:    stageOptions("MVP or prototype in development", "Already live / selling"),
		FieldUserPersona:     personaOptions,
		FieldDifferentiation: diffOptions("Better than what exists today", "A combination of existing offers"),
		FieldExistingMaterials: {
			{ID: "business_plan", Label: "Business plan"},
			{ID: "market_research", Label: "Market research"},
			{ID: "competitor_analysis", Label: "Competitor analysis"},
			{ID: "wireframes", Label: "Wireframes"},
			{ID: "prototype", Label: "Prototype"},
			{ID: "supplier_shortlist", Label: "Supplier shortlist"},
			{ID: "landing_page", Label: "Landing page"},
			{ID: "waitlist", Label: "Waitlist"},
			{ID: "pitch_deck", Label: "Pitch deck"},
			{ID: "brand_identity", Label: "Brand identity"},
			{ID: "financial_model", Label: "Financial model"},
		},
		FieldBusinessModel: modelOptions("Recurring subscriptions"),
		FieldRevenueGoal:   revenueOptions,
		FieldBuildStrategy: buildOptions("Build what I can with no-code tools"),
		FieldHelpNeeded: {
			{ID: "product_development", Label: "Product development"},
			{ID: "design", Label: "Design"},
			{ID: "operations", Label: "Operations"},
			{ID: "marketing", Label: "Marketing"},
			{ID: "sales", Label: "Sales"},
			{ID: "fundraising", Label: "Fundraising"},
			{ID: "legal", Label: "Legal"},
			{ID: "other", Label: "Other", Freetext: true},
		},
		FieldInvestmentReadiness: investmentOptions,
	},
}
