package timezone

import (
	"bufio"
	"embed"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
)

//go:embed data/zones.txt
var dataFS embed.FS

var defaultZones = sync.OnceValues(func() ([]string, error) {
	f, err := dataFS.Open("data/zones.txt")
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadZones(f)
})

// DefaultZones returns the bundled zone list, sorted.
func DefaultZones() ([]string, error) {
	zones, err := defaultZones()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), zones...), nil
}

// LoadZones reads one zone per line. Blank lines, # comments and
// duplicates are skipped; the result is sorted.
func LoadZones(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, errors.New("timezone: missing reader")
	}
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	var zones []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		zones = append(zones, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.Strings(zones)
	return zones, nil
}

// Search returns up to limit zones containing query, case-insensitively.
// Zones starting with query rank first. An empty query or a limit below
// one matches nothing.
func Search(zones []string, query string, limit int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit < 1 {
		return nil
	}
	type match struct {
		zone   string
		prefix bool
	}
	var matches []match
	for _, zone := range zones {
		lower := strings.ToLower(zone)
		if !strings.Contains(lower, query) {
			continue
		}
		matches = append(matches, match{zone: zone, prefix: strings.HasPrefix(lower, query)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].prefix != matches[j].prefix {
			return matches[i].prefix
		}
		return matches[i].zone < matches[j].zone
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.zone)
	}
	return out
}

// Label renders a zone for display: "America/New_York" becomes
// "America / New York".
func Label(zone string) string {
	return strings.ReplaceAll(strings.ReplaceAll(zone, "_", " "), "/", " / ")
}

func inRegions(zone string, regions []string) bool {
	if len(regions) == 0 {
		return true
	}
	for _, region := range regions {
		region = strings.Trim(strings.TrimSpace(region), "/")
		if region == "" {
			continue
		}
		if zone == region || strings.HasPrefix(zone, region+"/") {
			return true
		}
	}
	return false
}
