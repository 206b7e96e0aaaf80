package classify

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hochfrequenz/changetrack/internal/domain"
)

// LoadRules reads an ordered category rules file. Files ending in
// .yaml/.yml hold a list of {prefix, category} mappings; anything else
// is parsed as "prefix,category" lines. Blank lines and lines starting
// with '#' are ignored. Rule order in the file is preserved.
func LoadRules(path string) ([]domain.CategoryRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLRules(data)
	default:
		return parseLineRules(data)
	}
}

func parseYAMLRules(data []byte) ([]domain.CategoryRule, error) {
	var rules []domain.CategoryRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	for i, r := range rules {
		if r.Prefix == "" || r.Category == "" {
			return nil, fmt.Errorf("rule %d: prefix and category are required", i+1)
		}
	}
	return rules, nil
}

func parseLineRules(data []byte) ([]domain.CategoryRule, error) {
	var rules []domain.CategoryRule
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prefix, category, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"prefix,category\", got %q", lineNum, line)
		}
		prefix = strings.TrimSpace(prefix)
		category = strings.TrimSpace(category)
		if prefix == "" || category == "" {
			return nil, fmt.Errorf("line %d: prefix and category are required", lineNum)
		}
		rules = append(rules, domain.CategoryRule{Prefix: prefix, Category: category})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}
