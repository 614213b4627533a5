package pipeline

import (
	"cv-job-matcher/internal/match"
)

// Message is one entry of the run transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the shared document the stages read and write. It only ever
// grows: messages append, and the other fields are filled in as stages
// complete.
type State struct {
	Messages  []Message
	Profile   *match.CandidateProfile
	ProfileID string
	Research  match.RawJobs
	Analyses  match.Analyses
}

// Update is the partial state change one stage emits. Zero-valued fields
// leave the current state untouched; Messages always append.
type Update struct {
	Messages  []Message
	Profile   *match.CandidateProfile
	ProfileID string
	Research  match.RawJobs
	Analyses  match.Analyses
}

func (s *State) apply(u *Update) {
	if u == nil {
		return
	}

	s.Messages = append(s.Messages, u.Messages...)
	if u.Profile != nil {
		s.Profile = u.Profile
	}
	if u.ProfileID != "" {
		s.ProfileID = u.ProfileID
	}
	if u.Research != nil {
		s.Research = u.Research
	}
	if u.Analyses != nil {
		s.Analyses = u.Analyses
	}
}

func assistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}
