// Package pool supplies the per-week contestant lists. The data ships inside
// the binary and is read-only after startup.
package pool

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"raffle/internal/models"
)

//go:embed data/week*.json
var dataFS embed.FS

var weekFile = regexp.MustCompile(`^week(\d+)\.json$`)

// Load parses every embedded week file into ordered contestant pools keyed by
// week number.
func Load() (map[int][]models.Contestant, error) {
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("read pool data: %w", err)
	}

	pools := make(map[int][]models.Contestant)
	for _, entry := range entries {
		m := weekFile.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		week, err := strconv.Atoi(m[1])
		if err != nil || week < 1 {
			return nil, fmt.Errorf("bad week file name %q", entry.Name())
		}

		raw, err := dataFS.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var contestants []models.Contestant
		if err := json.Unmarshal(raw, &contestants); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		pools[week] = contestants
	}
	return pools, nil
}
