package release

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ariel-frischer/chglog/internal/commit"
)

// Predicate decides whether a commit opens a new block.
type Predicate func(c *commit.Commit) bool

// ValidVersion is satisfied by commits whose derived version is a valid
// semantic version. A leading "v" or "=" is tolerated.
func ValidVersion(c *commit.Commit) bool {
	if c.Version == "" {
		return false
	}
	_, err := semver.StrictNewVersion(strings.TrimLeft(c.Version, "v="))
	return err == nil
}

// AnyVersion is satisfied by any commit carrying a derived version.
func AnyVersion(c *commit.Commit) bool {
	return c.Version != ""
}

// Never keeps the whole stream in a single block.
func Never(*commit.Commit) bool {
	return false
}

// PredicateByName resolves the predicate names accepted in option files.
func PredicateByName(name string) (Predicate, error) {
	switch name {
	case "", "semver":
		return ValidVersion, nil
	case "version":
		return AnyVersion, nil
	case "never":
		return Never, nil
	default:
		return nil, fmt.Errorf("unknown generate_on %q (expected: semver, version, never)", name)
	}
}
