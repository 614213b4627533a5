// Package ai defines the contracts of the three external agents the
// pipeline delegates to. The orchestrator treats each invocation as an
// opaque, potentially slow external operation.
package ai

import (
	"context"

	"cv-job-matcher/internal/match"
)

// Extractor turns raw CV text into a structured candidate profile. Fields
// absent from the source text come back empty; implementations must not
// invent skills.
type Extractor interface {
	Extract(ctx context.Context, cvText string) (*match.CandidateProfile, error)
}

// ResearchRequest describes one research run: the candidate, an optional
// role hint, and the already-resolved search location.
type ResearchRequest struct {
	Profile  *match.CandidateProfile
	Role     string
	Location string
}

// Researcher finds raw job postings for a candidate. Implementations are
// bounded to at most three search-tool invocations per run; running out of
// budget is a normal stop, not an error.
type Researcher interface {
	Research(ctx context.Context, req *ResearchRequest) (match.RawJobs, error)
}

// Analyst produces a fit analysis of the supplied jobs against the
// profile. By prompt contract it covers the top 5 most relevant jobs and
// never invents company facts not present in the descriptions.
type Analyst interface {
	Analyse(ctx context.Context, profile *match.CandidateProfile, jobs match.RawJobs) (match.Analyses, error)
}
