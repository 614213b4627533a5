// Package export writes completed job research to disk: a machine-readable
// JSON dump and a human-readable text report.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"cv-job-matcher/internal/match"
)

type Exporter struct {
	outputDir string
	logger    *zap.Logger
	now       func() time.Time
}

func New(outputDir string, logger *zap.Logger) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		logger:    logger,
		now:       time.Now,
	}
}

// WriteJSON dumps the analyses as indented JSON into the output directory
// and returns the file path. The filename carries a timestamp and the
// candidate name so repeated runs never clobber each other.
func (e *Exporter) WriteJSON(candidateName string, analyses match.Analyses) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(e.outputDir, e.filename(candidateName, "json"))

	data, err := json.MarshalIndent(analyses, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analyses: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write json export: %w", err)
	}

	e.logger.Info("exported analyses",
		zap.String("path", path),
		zap.Int("jobs", analyses.Len()),
	)

	return path, nil
}

// WriteReport renders the analyses as a text report grouped by company and
// writes it next to the JSON export.
func (e *Exporter) WriteReport(candidateName string, analyses match.Analyses) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(e.outputDir, e.filename(candidateName, "txt"))

	if err := os.WriteFile(path, []byte(RenderReport(candidateName, analyses)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}

// RenderReport formats the analyses for terminal or file output.
func RenderReport(candidateName string, analyses match.Analyses) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Job research for %s (%d matches)\n", candidateName, analyses.Len())
	b.WriteString(strings.Repeat("=", 40) + "\n")

	report := analyses.ReportByCompany()

	companies := make([]string, 0, len(report))
	for company := range report {
		companies = append(companies, company)
	}
	sort.Strings(companies)

	for _, company := range companies {
		fmt.Fprintf(&b, "\n%s\n", company)
		for _, entry := range report[company] {
			fmt.Fprintf(&b, "  %s (score %s)\n", entry["title"], entry["score"])
			fmt.Fprintf(&b, "    Location: %s\n", entry["location"])
			fmt.Fprintf(&b, "    Salary:   %s\n", entry["salary"])
			fmt.Fprintf(&b, "    URL:      %s\n", entry["url"])
			if stack, ok := entry["tech_stack"]; ok {
				fmt.Fprintf(&b, "    Stack:    %s\n", stack)
			}
			fmt.Fprintf(&b, "    %s\n", entry["reasoning"])
		}
	}

	return b.String()
}

func (e *Exporter) filename(candidateName, ext string) string {
	return fmt.Sprintf("%s_%s_job_research.%s",
		e.now().UTC().Format("20060102T150405"),
		slugify(candidateName),
		ext,
	)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "candidate"
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	return b.String()
}
