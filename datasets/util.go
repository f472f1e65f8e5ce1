package datasets

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// parseScore parses an opinion score; an empty cell is a missing rating.
func parseScore(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	return strconv.Atoi(s)
}

// FindDatasetFile returns the first dataset file (yaml, yml, json or csv) in
// dir, in that order of preference.
func FindDatasetFile(dir string) (string, error) {
	for _, ext := range []string{"yaml", "yml", "json", "csv"} {
		matches, err := filepath.Glob(filepath.Join(dir, "*."+ext))
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	if _, err := os.Stat(dir); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no dataset files found in %s", dir)
}
