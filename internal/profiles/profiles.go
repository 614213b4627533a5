// Package profiles persists parsed candidate profiles. Records are
// write-once: every CV parse creates a new profile version and older
// versions stay around, most recent first.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"cv-job-matcher/internal/match"
	"cv-job-matcher/internal/store"
)

// ErrNotFound is returned by Fetch when no record exists for the id.
var ErrNotFound = errors.New("profile not found")

type Store struct {
	store  store.Store
	logger *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

func New(s store.Store, logger *zap.Logger) *Store {
	return &Store{store: s, logger: logger, now: time.Now}
}

// Save persists the profile for the given user and returns the generated
// profile id. The id embeds a second-granularity timestamp: two saves for
// the same user within one second would collide. That limitation is kept
// from the id format this store inherited; callers parse one CV at a time.
func (s *Store) Save(ctx context.Context, userID string, profile *match.CandidateProfile) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required to attribute a profile")
	}
	if profile == nil {
		return "", fmt.Errorf("profile is required")
	}

	createdAt := s.now().UTC()
	profileID := match.NewProfileID(userID, createdAt)

	meta, err := encodeProfile(profileID, userID, createdAt, profile)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}

	err = s.store.AddTexts(ctx,
		[]string{profile.Summary},
		[]map[string]any{meta},
		[]string{profileID},
	)
	if err != nil {
		return "", fmt.Errorf("store profile %q: %w", profileID, err)
	}

	s.logger.Info("saved candidate profile",
		zap.String("profile_id", profileID),
		zap.String("user_id", userID),
		zap.String("full_name", profile.FullName),
	)

	return profileID, nil
}

// Fetch returns the profile stored under the given id.
func (s *Store) Fetch(ctx context.Context, profileID string) (*match.CandidateProfile, error) {
	result, err := s.store.Get(ctx, []string{profileID})
	if err != nil {
		return nil, fmt.Errorf("fetch profile %q: %w", profileID, err)
	}

	if result.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, profileID)
	}

	return decodeProfile(result.Metadatas[0]), nil
}

// ListForUser returns every profile version saved for the user, most
// recent first.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*match.ProfileRecord, error) {
	result, err := s.store.GetWhere(ctx, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list profiles for %q: %w", userID, err)
	}

	records := make([]*match.ProfileRecord, 0, result.Len())
	for _, meta := range result.Metadatas {
		records = append(records, &match.ProfileRecord{
			ProfileID: stringField(meta, "profile_id"),
			UserID:    stringField(meta, "user_id"),
			CreatedAt: stringField(meta, "created_at"),
			Profile:   decodeProfile(meta),
		})
	}

	// RFC 3339 strings sort chronologically.
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})

	return records, nil
}

func encodeProfile(profileID, userID string, createdAt time.Time, p *match.CandidateProfile) (map[string]any, error) {
	meta := map[string]any{
		"profile_id":          profileID,
		"user_id":             userID,
		"created_at":          createdAt.Format(time.RFC3339),
		"full_name":           p.FullName,
		"years_of_experience": p.YearsOfExperience,
		"current_location":    p.CurrentLocation,
		"seniority_level":     p.SeniorityLevel,
		"summary":             p.Summary,
		"work_preference":     p.WorkPreference,
	}

	// List-valued fields are stored as JSON strings inside the metadata
	// document, mirroring how dashboard consumers read them back.
	for key, list := range map[string][]string{
		"job_titles": p.JobTitles,
		"key_skills": p.KeySkills,
		"industries": p.Industries,
	} {
		encoded, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		meta[key] = string(encoded)
	}

	return meta, nil
}

func decodeProfile(meta map[string]any) *match.CandidateProfile {
	return &match.CandidateProfile{
		FullName:          stringField(meta, "full_name"),
		JobTitles:         listField(meta, "job_titles"),
		KeySkills:         listField(meta, "key_skills"),
		YearsOfExperience: intField(meta, "years_of_experience"),
		CurrentLocation:   stringField(meta, "current_location"),
		SeniorityLevel:    stringField(meta, "seniority_level"),
		Summary:           stringField(meta, "summary"),
		Industries:        listField(meta, "industries"),
		WorkPreference:    stringField(meta, "work_preference"),
	}
}

func stringField(meta map[string]any, key string) string {
	if value, ok := meta[key].(string); ok {
		return value
	}
	return ""
}

func intField(meta map[string]any, key string) int {
	switch value := meta[key].(type) {
	case int:
		return value
	case float64:
		return int(value)
	default:
		return 0
	}
}

// listField decodes a JSON-string list field. Malformed values degrade to
// an empty list rather than failing the read.
func listField(meta map[string]any, key string) []string {
	raw, ok := meta[key].(string)
	if !ok {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []string{}
	}
	return list
}
