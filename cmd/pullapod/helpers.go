package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"pullapod/internal/favorites"
	"pullapod/internal/services"
)

const dateLayout = "2006-01-02"

func requireRange(flag string, value, lo, hi int) error {
	if value < lo || value > hi {
		return services.Validationf("--%s must be between %d and %d (got %d)", flag, lo, hi, value)
	}
	return nil
}

// parseDay parses a YYYY-MM-DD flag value as midnight UTC. Empty yields the
// zero time.
func parseDay(flag, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, services.Validationf("--%s must be a date like 2024-01-31 (got %q)", flag, value)
	}
	return t, nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(dateLayout)
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func isFeedURL(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// singleMatch narrows FindMatches output to exactly one favorite.
func singleMatch(query string, matches []favorites.FavoriteFeed) (favorites.FavoriteFeed, error) {
	switch len(matches) {
	case 0:
		return favorites.FavoriteFeed{}, fmt.Errorf("%w: no favorite matches %q", services.ErrNotFound, query)
	case 1:
		return matches[0], nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%q matches %d favorites; be more specific:", query, len(matches))
	for _, m := range matches {
		fmt.Fprintf(&b, "\n  - %s (%s)", m.Name, m.URL)
	}
	return favorites.FavoriteFeed{}, services.Validationf("%s", b.String())
}

// confirm asks a yes/no question; anything but y/yes declines.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
