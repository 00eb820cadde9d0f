package assessment_test

import (
	"strings"
	"testing"

	"github.com/launchscore/readiness-backend/internal/assessment"
)

func TestValidateStage_StartupType(t *testing.T) {
	var rec assessment.AnswerRecord
	if errs := assessment.ValidateStage(rec, assessment.StageStartupType); len(errs) == 0 {
		t.Error("empty startup type should be rejected")
	}
	rec.StartupType = assessment.TypeService
	if errs := assessment.ValidateStage(rec, assessment.StageStartupType); len(errs) != 0 {
		t.Errorf("valid startup type rejected: %v", errs)
	}
	rec.StartupType = "franchise"
	if errs := assessment.ValidateStage(rec, assessment.StageStartupType); len(errs) == 0 {
		t.Error("unknown startup type should be rejected")
	}
}

func TestValidateStage_AppIdeaMinimumLength(t *testing.T) {
	tests := []struct {
		name string
		idea string
		ok   bool
	}{
		{"empty", "", false},
		{"19 chars", strings.Repeat("x", 19), false},
		{"exactly 20", strings.Repeat("x", 20), true},
		{"whitespace not counted", "   " + strings.Repeat("x", 19) + "   ", false},
		{"long", strings.Repeat("x", 300), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := assessment.AnswerRecord{AppIdea: tt.idea}
			errs := assessment.ValidateStage(rec, assessment.StageAppIdea)
			if ok := len(errs) == 0; ok != tt.ok {
				t.Errorf("got ok=%v, want %v (errs=%v)", ok, tt.ok, errs)
			}
		})
	}
}

func TestValidateStage_HelpNeededMinimumOne(t *testing.T) {
	rec := assessment.AnswerRecord{StartupType: assessment.TypeTechnology}

	if errs := assessment.ValidateStage(rec, assessment.StageHelpNeeded); len(errs) == 0 {
		t.Error("empty help_needed should be rejected")
	}

	// Exactly one selection is enough — including "other" with no freetext.
	rec.HelpNeeded = []string{"other"}
	if errs := assessment.ValidateStage(rec, assessment.StageHelpNeeded); len(errs) != 0 {
		t.Errorf("single 'other' selection rejected: %v", errs)
	}

	rec.HelpNeeded = []string{"marketing", "legal", "design"}
	if errs := assessment.ValidateStage(rec, assessment.StageHelpNeeded); len(errs) != 0 {
		t.Errorf("multi selection rejected: %v", errs)
	}

	// No upper cap: the whole catalog may be selected.
	all := assessment.CatalogFor(assessment.TypeTechnology, assessment.FieldHelpNeeded)
	ids := make([]string, len(all))
	for i, o := range all {
		ids[i] = o.ID
	}
	rec.HelpNeeded = ids
	if errs := assessment.ValidateStage(rec, assessment.StageHelpNeeded); len(errs) != 0 {
		t.Errorf("full-catalog selection rejected: %v", errs)
	}
}

func TestValidateStage_ExistingMaterialsNoMinimum(t *testing.T) {
	rec := assessment.AnswerRecord{StartupType: assessment.TypeTechnology}
	if errs := assessment.ValidateStage(rec, assessment.StageExistingMaterials); len(errs) != 0 {
		t.Errorf("empty materials should pass: %v", errs)
	}
	rec.ExistingMaterials = []string{"cad_models"} // physical-only id
	if errs := assessment.ValidateStage(rec, assessment.StageExistingMaterials); len(errs) == 0 {
		t.Error("material from another type's catalog should be rejected")
	}
}

func TestValidateStage_CatalogMembershipFollowsStartupType(t *testing.T) {
	// no_code is a valid build strategy for every type (labels differ, the
	// canonical id is shared), but a made-up id never is.
	rec := assessment.AnswerRecord{StartupType: assessment.TypePhysical, BuildStrategy: assessment.BuildNoCode}
	if errs := assessment.ValidateStage(rec, assessment.StageBuildStrategy); len(errs) != 0 {
		t.Errorf("canonical id rejected for physical type: %v", errs)
	}
	rec.BuildStrategy = "3d_print_it"
	if errs := assessment.ValidateStage(rec, assessment.StageBuildStrategy); len(errs) == 0 {
		t.Error("unknown build strategy should be rejected")
	}
}

func TestValidateStage_Contact(t *testing.T) {
	good := assessment.Contact{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "(212) 555-0175",
		Consent:   true,
	}

	tests := []struct {
		name   string
		mutate func(*assessment.Contact)
		field  string
	}{
		{"short first name", func(c *assessment.Contact) { c.FirstName = "A" }, "contact.first_name"},
		{"short last name", func(c *assessment.Contact) { c.LastName = " B " }, "contact.last_name"},
		{"bad email", func(c *assessment.Contact) { c.Email = "not-an-email" }, "contact.email"},
		{"dotless email domain", func(c *assessment.Contact) { c.Email = "a@b" }, "contact.email"},
		{"bad phone", func(c *assessment.Contact) { c.Phone = "12345" }, "contact.phone"},
		{"no consent", func(c *assessment.Contact) { c.Consent = false }, "contact.consent"},
	}

	rec := assessment.AnswerRecord{Contact: good}
	if errs := assessment.ValidateStage(rec, assessment.StageContact); len(errs) != 0 {
		t.Fatalf("valid contact rejected: %v", errs)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := good
			tt.mutate(&c)
			errs := assessment.ValidateStage(assessment.AnswerRecord{Contact: c}, assessment.StageContact)
			if len(errs) == 0 {
				t.Fatal("expected validation error, got none")
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s in %v", tt.field, errs)
			}
		})
	}
}

func TestNormalizeUSPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"(212) 555-0175", "+12125550175", true},
		{"212.555.0175", "+12125550175", true},
		{"+1 212 555 0175", "+12125550175", true},
		{"12125550175", "+12125550175", true},
		{"2125550175", "+12125550175", true},
		{"555-0175", "", false},          // too short
		{"(112) 555-0175", "", false},    // area code starts with 1
		{"(212) 155-0175", "", false},    // exchange starts with 1
		{"22125550175", "", false},       // 11 digits, no leading 1
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := assessment.NormalizeUSPhone(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("NormalizeUSPhone(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("NormalizeUSPhone(%q) = %q, want error", tt.in, got)
		}
	}
}

func TestCatalogFor_DefaultsToTechnology(t *testing.T) {
	unset := assessment.CatalogFor("", assessment.FieldBusinessModel)
	tech := assessment.CatalogFor(assessment.TypeTechnology, assessment.FieldBusinessModel)
	if len(unset) != len(tech) {
		t.Fatalf("unset type catalog has %d options, technology has %d", len(unset), len(tech))
	}
	for i := range tech {
		if unset[i].ID != tech[i].ID {
			t.Errorf("option %d: %q != %q", i, unset[i].ID, tech[i].ID)
		}
	}
}

func TestCatalogFor_MaterialsVaryByType(t *testing.T) {
	tech := assessment.CatalogFor(assessment.TypeTechnology, assessment.FieldExistingMaterials)
	phys := assessment.CatalogFor(assessment.TypePhysical, assessment.FieldExistingMaterials)

	techIDs := make(map[string]bool, len(tech))
	for _, o := range tech {
		techIDs[o.ID] = true
	}
	shared, distinct := 0, 0
	for _, o := range phys {
		if techIDs[o.ID] {
			shared++
		} else {
			distinct++
		}
	}
	if distinct == 0 {
		t.Error("physical materials catalog should differ from technology's")
	}
	if shared == 0 {
		t.Error("catalogs should share the universal materials (plan, research)")
	}
}
