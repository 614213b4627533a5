package match

import (
	"fmt"
	"strings"
)

// ReportByCompany groups the analyses by company name for reporting.
func (a Analyses) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, job := range a {
		company := job.Company
		if company == "" {
			company = CompanyUnknown
		}

		entry := map[string]string{
			"title":     job.Title,
			"url":       job.JobURL,
			"location":  job.Location,
			"salary":    FormatSalary(job.SalaryMin, job.SalaryMax),
			"score":     fmt.Sprintf("%d", job.TopApplicantScore),
			"reasoning": job.TopApplicantReasoning,
		}
		if len(job.TechStack) > 0 {
			entry["tech_stack"] = strings.Join(job.TechStack, ", ")
		}

		report[company] = append(report[company], entry)
	}
	return report
}

// FormatSalary renders a salary range for display. Nil bounds are omitted;
// when both are missing the listing did not specify a salary.
func FormatSalary(min, max *int) string {
	parts := make([]string, 0, 2)
	if min != nil {
		parts = append(parts, fmt.Sprintf("%d", *min))
	}
	if max != nil {
		parts = append(parts, fmt.Sprintf("%d", *max))
	}

	if len(parts) == 0 {
		return NotSpecified
	}
	return "£" + strings.Join(parts, " - £")
}
