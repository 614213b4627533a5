package serpapi

import (
	"strconv"
	"strings"

	"cv-job-matcher/internal/match"
)

type searchResponse struct {
	JobsResults []searchJob `json:"jobs_results"`
	Error       string      `json:"error"`
}

type searchJob struct {
	Title              string        `json:"title"`
	CompanyName        string        `json:"company_name"`
	Location           string        `json:"location"`
	Description        string        `json:"description"`
	Link               string        `json:"link"`
	ApplyOptions       []applyOption `json:"apply_options"`
	DetectedExtensions extensions    `json:"detected_extensions"`
}

type applyOption struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type extensions struct {
	PostedAt       string `json:"posted_at"`
	ScheduleType   string `json:"schedule_type"`
	Salary         string `json:"salary"`
	WorkFromHome   bool   `json:"work_from_home"`
	Qualifications any    `json:"qualifications"`
}

func (j *searchJob) toRawJob() *match.RawJobMatch {
	ext := j.DetectedExtensions

	salary := ext.Salary
	if salary == "" {
		salary = match.NotSpecified
	}
	salaryMin, salaryMax := parseSalaryBounds(ext.Salary)

	company := strings.TrimSpace(j.CompanyName)
	if company == "" {
		company = match.CompanyUnknown
	}

	return &match.RawJobMatch{
		JobURL:         j.applyURL(),
		Title:          j.Title,
		CompanyName:    company,
		Location:       j.Location,
		Description:    j.Description,
		SalaryString:   salary,
		SalaryMin:      salaryMin,
		SalaryMax:      salaryMax,
		WorkSetting:    j.workSetting(),
		ScheduleType:   ext.ScheduleType,
		IsContract:     strings.Contains(strings.ToLower(ext.ScheduleType), "contract"),
		PostedAt:       ext.PostedAt,
		Qualifications: qualificationList(ext.Qualifications),
	}
}

// applyURL resolves the best application URL: first apply option, then the
// generic link.
func (j *searchJob) applyURL() string {
	if len(j.ApplyOptions) > 0 && j.ApplyOptions[0].Link != "" {
		return j.ApplyOptions[0].Link
	}
	if j.Link != "" {
		return j.Link
	}
	return match.NotSpecified
}

func (j *searchJob) workSetting() string {
	if j.DetectedExtensions.WorkFromHome {
		return match.WorkSettingRemote
	}

	haystack := strings.ToLower(j.Title + " " + j.Location + " " + j.Description)
	switch {
	case strings.Contains(haystack, "hybrid"):
		return match.WorkSettingHybrid
	case strings.Contains(haystack, "remote"):
		return match.WorkSettingRemote
	case strings.Contains(haystack, "on-site"), strings.Contains(haystack, "onsite"):
		return match.WorkSettingOnSite
	}
	return match.WorkSettingUnknown
}

func qualificationList(raw any) []string {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// parseSalaryBounds pulls numeric bounds out of free-text salary strings
// like "£50,000 - £70,000 a year" or "55k–65k". Figures below a thousand
// after suffix expansion are treated as hourly or daily rates and skipped.
func parseSalaryBounds(s string) (*int, *int) {
	var figures []int

	runes := []rune(s)
	for i := 0; i < len(runes); {
		if !isDigit(runes[i]) {
			i++
			continue
		}

		var digits strings.Builder
		for i < len(runes) && (isDigit(runes[i]) || runes[i] == ',') {
			if isDigit(runes[i]) {
				digits.WriteRune(runes[i])
			}
			i++
		}

		// Skip any fractional part, the integer part is enough.
		if i < len(runes) && runes[i] == '.' {
			i++
			for i < len(runes) && isDigit(runes[i]) {
				i++
			}
		}

		n, err := strconv.Atoi(digits.String())
		if err != nil {
			continue
		}

		if i < len(runes) && (runes[i] == 'k' || runes[i] == 'K') {
			n *= 1000
			i++
		}

		if n >= 1000 {
			figures = append(figures, n)
		}
	}

	if len(figures) == 0 {
		return nil, nil
	}

	min := figures[0]
	max := figures[0]
	for _, n := range figures[1:] {
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}

	return &min, &max
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
