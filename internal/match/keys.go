package match

import (
	"fmt"
	"time"
)

// AnalysisKey derives the composite identity of a fit analysis. The profile
// id comes first so all analyses for one profile share a prefix; profile ids
// are unique by construction, so the composite cannot collide across
// profiles.
func AnalysisKey(profileID, jobURL string) string {
	return profileID + ":" + jobURL
}

// NewProfileID derives a profile identifier from the owning user and the
// creation time. Granularity is one second: two saves for the same user
// within the same second would collide. Known limitation, kept as-is.
func NewProfileID(userID string, now time.Time) string {
	return fmt.Sprintf("profile_%s_%s", userID, now.UTC().Format("20060102T150405"))
}
