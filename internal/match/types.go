package match

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
)

// Work settings recognized on a RawJobMatch.
const (
	WorkSettingRemote  = "Remote"
	WorkSettingHybrid  = "Hybrid"
	WorkSettingOnSite  = "On-site"
	WorkSettingUnknown = "Unknown"
)

const (
	// CompanyUnknown is used when a scraped posting carries no company name.
	CompanyUnknown = "Unknown"
	// NotSpecified marks fields the source listing did not provide.
	NotSpecified = "Not specified"
)

// CandidateProfile is one parsed-CV snapshot. It is immutable once produced
// by the parse stage; a new CV submission creates a new profile version.
type CandidateProfile struct {
	FullName          string   `json:"full_name"`
	JobTitles         []string `json:"job_titles"`
	KeySkills         []string `json:"key_skills"`
	YearsOfExperience int      `json:"years_of_experience"`
	CurrentLocation   string   `json:"current_location,omitempty"`
	SeniorityLevel    string   `json:"seniority_level"`
	Summary           string   `json:"summary"`
	Industries        []string `json:"industries"`
	WorkPreference    string   `json:"work_preference"`
}

// ProfileRecord is a stored CandidateProfile plus its identity and lineage.
type ProfileRecord struct {
	ProfileID string            `json:"profile_id"`
	UserID    string            `json:"user_id"`
	CreatedAt string            `json:"created_at"`
	Profile   *CandidateProfile `json:"profile"`
}

// RawJobMatch is a scraped job posting. The canonical URL is its primary
// identity key across the whole system.
type RawJobMatch struct {
	JobURL         string   `json:"job_url"`
	Title          string   `json:"title"`
	CompanyName    string   `json:"company_name"`
	Location       string   `json:"location"`
	SalaryMin      *int     `json:"salary_min,omitempty"`
	SalaryMax      *int     `json:"salary_max,omitempty"`
	SalaryString   string   `json:"salary_string"`
	WorkSetting    string   `json:"work_setting"`
	ScheduleType   string   `json:"schedule_type"`
	IsContract     bool     `json:"is_contract"`
	Qualifications []string `json:"qualifications"`
	Description    string   `json:"description"`
	PostedAt       string   `json:"posted_at"`
}

// Acceptable reports whether the posting carries enough identity and content
// to be stored: a non-empty URL and at least one of title or description.
func (j *RawJobMatch) Acceptable() bool {
	if j == nil || j.JobURL == "" {
		return false
	}
	return j.Title != "" || j.Description != ""
}

// AnalysedJobMatch is the LLM fit analysis of one job for one profile.
type AnalysedJobMatch struct {
	Title                 string   `json:"title"`
	Company               string   `json:"company"`
	JobURL                string   `json:"job_url"`
	Location              string   `json:"location"`
	OfficeDays            string   `json:"office_days"`
	JobSummary            string   `json:"job_summary"`
	Qualifications        []string `json:"qualifications"`
	Attributes            []string `json:"attributes"`
	TechStack             []string `json:"tech_stack"`
	SalaryMin             *int     `json:"salary_min,omitempty"`
	SalaryMax             *int     `json:"salary_max,omitempty"`
	TopApplicantScore     int      `json:"top_applicant_score"`
	TopApplicantReasoning string   `json:"top_applicant_reasoning"`
}

// RawJobs is an ordered list of scraped postings.
type RawJobs []*RawJobMatch

func (j RawJobs) Len() int { return len(j) }

// URLs returns the canonical URLs in list order.
func (j RawJobs) URLs() []string {
	urls := make([]string, 0, len(j))
	for _, job := range j {
		urls = append(urls, job.JobURL)
	}
	return urls
}

// Analyses is an ordered list of fit analyses.
type Analyses []*AnalysedJobMatch

func (a Analyses) Len() int { return len(a) }

// DumpToTmpFile writes the analyses as indented JSON to a temporary file and
// returns its name.
func (a Analyses) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "job_analyses_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Metadata flattens the posting into a loosely-typed map suitable for the
// keyed store.
func (j *RawJobMatch) Metadata() (map[string]any, error) {
	return toMetadata(j)
}

// RawJobFromMetadata rebuilds a posting from a stored metadata map.
func RawJobFromMetadata(meta map[string]any) (*RawJobMatch, error) {
	var job RawJobMatch
	if err := decodeMetadata(meta, &job); err != nil {
		return nil, fmt.Errorf("decode stored job: %w", err)
	}
	return &job, nil
}

func toMetadata(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func decodeMetadata(meta map[string]any, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(meta)
}
