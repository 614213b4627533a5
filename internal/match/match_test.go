package match

import (
	"strings"
	"testing"
	"time"
)

func TestAnalysisKey(t *testing.T) {
	key := AnalysisKey("profile_u1_20250101T120000", "https://jobs.example.com/1")
	if key != "profile_u1_20250101T120000:https://jobs.example.com/1" {
		t.Fatalf("unexpected key: %s", key)
	}
}

func TestNewProfileIDIsSecondGranular(t *testing.T) {
	at := time.Date(2025, 3, 14, 15, 9, 26, 535000000, time.UTC)
	id := NewProfileID("u1", at)
	if id != "profile_u1_20250314T150926" {
		t.Fatalf("unexpected profile id: %s", id)
	}

	// Sub-second difference must not change the id.
	if other := NewProfileID("u1", at.Add(400*time.Millisecond)); other != id {
		t.Fatalf("expected identical ids within one second, got %s and %s", id, other)
	}
}

func TestAcceptable(t *testing.T) {
	cases := []struct {
		name string
		job  *RawJobMatch
		want bool
	}{
		{"full", &RawJobMatch{JobURL: "u", Title: "t", Description: "d"}, true},
		{"title only", &RawJobMatch{JobURL: "u", Title: "t"}, true},
		{"description only", &RawJobMatch{JobURL: "u", Description: "d"}, true},
		{"no content", &RawJobMatch{JobURL: "u"}, false},
		{"no url", &RawJobMatch{Title: "t", Description: "d"}, false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		if got := tc.job.Acceptable(); got != tc.want {
			t.Errorf("%s: Acceptable() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRawJobMetadataRoundTrip(t *testing.T) {
	min, max := 60000, 80000
	job := &RawJobMatch{
		JobURL:         "https://jobs.example.com/1",
		Title:          "Go Developer",
		CompanyName:    "Acme",
		Location:       "London",
		SalaryMin:      &min,
		SalaryMax:      &max,
		SalaryString:   "£60,000 - £80,000",
		WorkSetting:    WorkSettingHybrid,
		ScheduleType:   "Full-time",
		Qualifications: []string{"Go", "SQL"},
		Description:    "Build services",
		PostedAt:       "3 days ago",
	}

	meta, err := job.Metadata()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored, err := RawJobFromMetadata(meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if restored.JobURL != job.JobURL || restored.Title != job.Title {
		t.Fatalf("identity fields lost: %+v", restored)
	}
	if restored.SalaryMin == nil || *restored.SalaryMin != 60000 {
		t.Fatalf("salary min lost: %+v", restored.SalaryMin)
	}
	if len(restored.Qualifications) != 2 || restored.Qualifications[1] != "SQL" {
		t.Fatalf("qualifications lost: %v", restored.Qualifications)
	}
	if restored.WorkSetting != WorkSettingHybrid {
		t.Fatalf("work setting lost: %s", restored.WorkSetting)
	}
}

func TestFormatSalary(t *testing.T) {
	min, max := 50000, 70000

	if got := FormatSalary(&min, &max); got != "£50000 - £70000" {
		t.Fatalf("unexpected range: %s", got)
	}
	if got := FormatSalary(&min, nil); got != "£50000" {
		t.Fatalf("unexpected min-only: %s", got)
	}
	if got := FormatSalary(nil, nil); got != NotSpecified {
		t.Fatalf("unexpected empty: %s", got)
	}
}

func TestReportByCompany(t *testing.T) {
	analyses := Analyses{
		{Title: "Go Developer", Company: "Acme", JobURL: "u1", TopApplicantScore: 88, TechStack: []string{"Go", "Postgres"}},
		{Title: "Platform Engineer", Company: "Acme", JobURL: "u2", TopApplicantScore: 72},
		{Title: "Data Engineer", JobURL: "u3", TopApplicantScore: 61},
	}

	report := analyses.ReportByCompany()

	if len(report["Acme"]) != 2 {
		t.Fatalf("expected 2 Acme entries, got %d", len(report["Acme"]))
	}
	if len(report[CompanyUnknown]) != 1 {
		t.Fatalf("expected unnamed company under %q", CompanyUnknown)
	}

	first := report["Acme"][0]
	if first["score"] != "88" {
		t.Fatalf("unexpected score: %s", first["score"])
	}
	if !strings.Contains(first["tech_stack"], "Postgres") {
		t.Fatalf("unexpected tech stack: %s", first["tech_stack"])
	}
}
