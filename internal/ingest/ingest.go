// Package ingest extracts plain text from CV documents on disk.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"code.sajari.com/docconv"
	"go.uber.org/zap"
)

// File reads one CV document and returns its plain text. Rich formats go
// through docconv; plain text and markdown are read as-is.
func File(path string, logger *zap.Logger) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read cv file: %w", err)
		}
		return string(data), nil
	case ".pdf", ".docx", ".doc", ".rtf", ".odt":
		res, err := docconv.ConvertPath(path)
		if err != nil {
			return "", fmt.Errorf("convert cv document: %w", err)
		}
		logger.Debug("converted cv document",
			zap.String("path", path),
			zap.Int("chars", len(res.Body)),
		)
		return res.Body, nil
	default:
		return "", fmt.Errorf("unsupported cv format %q", ext)
	}
}

// Folder extracts text from every supported document in a directory and
// joins the results, each section headed by its source filename. Files
// that fail to convert are skipped with a warning so one broken document
// does not sink the whole folder.
func Folder(dir string, logger *zap.Logger) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read cv folder: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var sections []string
	for _, name := range names {
		text, err := File(filepath.Join(dir, name), logger)
		if err != nil {
			logger.Warn("skipping cv file", zap.String("file", name), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("--- CONTENT FROM %s ---\n\n%s", name, text))
	}

	if len(sections) == 0 {
		return "", fmt.Errorf("no readable cv documents in %s", dir)
	}

	return strings.Join(sections, "\n\n"), nil
}

// Load resolves a CV path that may be a single file or a folder of
// documents.
func Load(path string, logger *zap.Logger) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat cv path: %w", err)
	}

	if info.IsDir() {
		return Folder(path, logger)
	}
	return File(path, logger)
}
