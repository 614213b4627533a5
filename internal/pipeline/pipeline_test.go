package pipeline

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"cv-job-matcher/internal/ai"
	"cv-job-matcher/internal/analysiscache"
	"cv-job-matcher/internal/library"
	"cv-job-matcher/internal/match"
	"cv-job-matcher/internal/profiles"
	"cv-job-matcher/internal/store"
)

type stubExtractor struct {
	profile *match.CandidateProfile
	err     error
	calls   int
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (*match.CandidateProfile, error) {
	s.calls++
	return s.profile, s.err
}

type stubResearcher struct {
	jobs    match.RawJobs
	lastReq *ai.ResearchRequest
}

func (s *stubResearcher) Research(_ context.Context, req *ai.ResearchRequest) (match.RawJobs, error) {
	s.lastReq = req
	return s.jobs, nil
}

type stubAnalyst struct {
	analyses match.Analyses
	calls    int
	lastJobs match.RawJobs
}

func (s *stubAnalyst) Analyse(_ context.Context, _ *match.CandidateProfile, jobs match.RawJobs) (match.Analyses, error) {
	s.calls++
	s.lastJobs = jobs
	return s.analyses, nil
}

type fixture struct {
	pipeline   *Pipeline
	extractor  *stubExtractor
	researcher *stubResearcher
	analyst    *stubAnalyst
	profiles   *profiles.Store
	cache      *analysiscache.Cache
}

func job(url, title string) *match.RawJobMatch {
	return &match.RawJobMatch{JobURL: url, Title: title, Description: title + " description"}
}

func analysis(url, title string) *match.AnalysedJobMatch {
	return &match.AnalysedJobMatch{JobURL: url, Title: title, TopApplicantScore: 70}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := zap.NewNop()
	f := &fixture{
		extractor: &stubExtractor{
			profile: &match.CandidateProfile{
				FullName:        "Jane Doe",
				CurrentLocation: "London",
				KeySkills:       []string{"Go"},
			},
		},
		researcher: &stubResearcher{},
		analyst:    &stubAnalyst{},
		profiles:   profiles.New(db.Collection("candidate_profiles"), log),
		cache:      analysiscache.New(db.Collection("user_job_analyses"), log),
	}

	p, err := New(Deps{
		Extractor:  f.extractor,
		Researcher: f.researcher,
		Analyst:    f.analyst,
		Profiles:   f.profiles,
		Library:    library.New(db.Collection("global_raw_jobs"), log),
		Cache:      f.cache,
		Logger:     log,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	f.pipeline = p

	return f
}

func TestNewRequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Fatal("expected error for empty deps")
	}
}

func TestRunFullFlow(t *testing.T) {
	f := newFixture(t)
	f.researcher.jobs = match.RawJobs{job("u1", "Go Engineer"), job("u2", "Platform Engineer")}
	f.analyst.analyses = match.Analyses{analysis("u1", "Go Engineer"), analysis("u2", "Platform Engineer")}

	state, err := f.pipeline.Run(context.Background(), &RunConfig{
		RawCV:  "Jane Doe, Go engineer",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if state.ProfileID == "" {
		t.Error("state has no profile id after parse stage")
	}
	if state.Profile == nil || state.Profile.FullName != "Jane Doe" {
		t.Errorf("state profile = %+v", state.Profile)
	}
	if state.Research.Len() != 2 {
		t.Errorf("research jobs = %d, want 2", state.Research.Len())
	}
	if state.Analyses.Len() != 2 {
		t.Errorf("analyses = %d, want 2", state.Analyses.Len())
	}
	if f.analyst.calls != 1 {
		t.Errorf("analyst calls = %d, want 1", f.analyst.calls)
	}

	// The parsed profile must be fetchable under its generated id.
	saved, err := f.profiles.Fetch(context.Background(), state.ProfileID)
	if err != nil {
		t.Fatalf("Fetch saved profile: %v", err)
	}
	if saved.FullName != "Jane Doe" {
		t.Errorf("saved profile name = %q", saved.FullName)
	}
}

func TestRunRequiresUserIDWithCV(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Run(context.Background(), &RunConfig{RawCV: "some cv"})
	if err == nil || !strings.Contains(err.Error(), "user id") {
		t.Fatalf("error = %v, want user id requirement", err)
	}
}

func TestRunWithoutCVOrProfileFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Run(context.Background(), &RunConfig{UserID: "user-1"})
	if err == nil || !strings.Contains(err.Error(), "no profile available") {
		t.Fatalf("error = %v, want missing profile error", err)
	}
}

func TestRunReusesSavedProfile(t *testing.T) {
	f := newFixture(t)

	profileID, err := f.profiles.Save(context.Background(), "user-1", &match.CandidateProfile{
		FullName:        "Jane Doe",
		CurrentLocation: "London",
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	state, err := f.pipeline.Run(context.Background(), &RunConfig{
		UserID:    "user-1",
		ProfileID: profileID,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if f.extractor.calls != 0 {
		t.Errorf("extractor calls = %d, want 0 without a cv", f.extractor.calls)
	}
	if state.ProfileID != profileID {
		t.Errorf("state profile id = %q, want %q", state.ProfileID, profileID)
	}
	if state.Profile == nil || state.Profile.FullName != "Jane Doe" {
		t.Errorf("state profile = %+v", state.Profile)
	}
}

func TestLocationPriority(t *testing.T) {
	cases := []struct {
		name        string
		cfgLocation string
		profileLoc  string
		want        string
	}{
		{name: "config override wins", cfgLocation: "Manchester", profileLoc: "London", want: "Manchester"},
		{name: "profile location next", profileLoc: "London", want: "London"},
		{name: "fallback when both empty", want: "Remote"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.extractor.profile = &match.CandidateProfile{
				FullName:        "Jane Doe",
				CurrentLocation: tc.profileLoc,
			}

			_, err := f.pipeline.Run(context.Background(), &RunConfig{
				RawCV:    "cv",
				UserID:   "user-1",
				Location: tc.cfgLocation,
			})
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}

			if f.researcher.lastReq.Location != tc.want {
				t.Errorf("search location = %q, want %q", f.researcher.lastReq.Location, tc.want)
			}
		})
	}
}

func TestAnalystSkippedWhenAllCached(t *testing.T) {
	f := newFixture(t)
	f.researcher.jobs = match.RawJobs{job("u1", "Go Engineer")}
	f.analyst.analyses = match.Analyses{analysis("u1", "Go Engineer")}

	first, err := f.pipeline.Run(context.Background(), &RunConfig{
		RawCV:  "cv",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	if f.analyst.calls != 1 {
		t.Fatalf("analyst calls after first run = %d, want 1", f.analyst.calls)
	}

	// Re-run against the saved profile so the cache keys line up.
	second, err := f.pipeline.Run(context.Background(), &RunConfig{
		UserID:    "user-1",
		ProfileID: first.ProfileID,
	})
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}

	if f.analyst.calls != 1 {
		t.Errorf("analyst calls after second run = %d, want still 1 (all hits)", f.analyst.calls)
	}
	if second.Analyses.Len() != 1 {
		t.Errorf("second run analyses = %d, want 1 from cache", second.Analyses.Len())
	}
}

func TestAnalystOnlySeesMisses(t *testing.T) {
	f := newFixture(t)
	f.researcher.jobs = match.RawJobs{job("u1", "Cached"), job("u2", "New")}
	f.analyst.analyses = match.Analyses{analysis("u1", "Cached")}

	first, err := f.pipeline.Run(context.Background(), &RunConfig{
		RawCV:  "cv",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("first Run() error: %v", err)
	}

	// Only u1 got cached (the analyst returned nothing for u2), so a second
	// run must hand the analyst exactly the uncached job.
	f.analyst.analyses = match.Analyses{analysis("u2", "New")}
	_, err = f.pipeline.Run(context.Background(), &RunConfig{
		UserID:    "user-1",
		ProfileID: first.ProfileID,
	})
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}

	if f.analyst.lastJobs.Len() != 1 || f.analyst.lastJobs[0].JobURL != "u2" {
		t.Errorf("analyst received %v, want only u2", f.analyst.lastJobs.URLs())
	}
}

func TestUntracedAnalysisDropped(t *testing.T) {
	f := newFixture(t)
	f.researcher.jobs = match.RawJobs{job("u1", "Real Job")}
	f.analyst.analyses = match.Analyses{
		analysis("u1", "Real Job"),
		analysis("https://invented.example.com", "Hallucinated Job"),
	}

	state, err := f.pipeline.Run(context.Background(), &RunConfig{
		RawCV:  "cv",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if state.Analyses.Len() != 1 {
		t.Fatalf("analyses = %d, want 1 after dropping untraced entry", state.Analyses.Len())
	}
	if state.Analyses[0].JobURL != "u1" {
		t.Errorf("kept analysis URL = %q, want u1", state.Analyses[0].JobURL)
	}

	// The invented entry must not have been cached either.
	cached, err := f.cache.ListForProfile(context.Background(), state.ProfileID)
	if err != nil {
		t.Fatalf("ListForProfile: %v", err)
	}
	if cached.Len() != 1 {
		t.Errorf("cached analyses = %d, want 1", cached.Len())
	}
}

func TestEmptyResearchSkipsAnalyst(t *testing.T) {
	f := newFixture(t)
	f.researcher.jobs = nil

	state, err := f.pipeline.Run(context.Background(), &RunConfig{
		RawCV:  "cv",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if f.analyst.calls != 0 {
		t.Errorf("analyst calls = %d, want 0 with no jobs", f.analyst.calls)
	}
	if state.Analyses == nil || state.Analyses.Len() != 0 {
		t.Errorf("analyses = %v, want empty non-nil list", state.Analyses)
	}
}

func TestTranscriptAccumulates(t *testing.T) {
	f := newFixture(t)
	f.researcher.jobs = match.RawJobs{job("u1", "Go Engineer")}
	f.analyst.analyses = match.Analyses{analysis("u1", "Go Engineer")}

	state, err := f.pipeline.Run(context.Background(), &RunConfig{
		RawCV:  "cv text",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// User CV message plus one assistant message per stage.
	if len(state.Messages) != 4 {
		t.Fatalf("messages = %d, want 4: %+v", len(state.Messages), state.Messages)
	}
	if state.Messages[0].Role != "user" {
		t.Errorf("first message role = %q, want user", state.Messages[0].Role)
	}
}
