package core

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Version is a parsed semantic version. The zero value is an unknown
// version that no non-empty range matches.
type Version struct {
	v *semver.Version
}

// RangeSpec is a conjunction of range expressions. A RangeSpec built from
// zero expressions matches every version.
type RangeSpec struct {
	exprs       []string
	constraints []*semver.Constraints
}

// ParseVersion parses a semantic version, coercing partial forms such as
// "1.2" to "1.2.0".
func ParseVersion(text string) (Version, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Version{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty version")
	}
	v, err := semver.NewVersion(trimmed)
	if err != nil {
		return Version{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version: %s", text)).
			WithCause(err)
	}
	return Version{v: v}, nil
}

// MustParseVersion is ParseVersion for literals known to be valid.
func MustParseVersion(text string) Version {
	v, err := ParseVersion(text)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseRange parses one range expression. Comma separated clauses are
// combined as a conjunction and an empty text matches every version.
func ParseRange(text string) (RangeSpec, error) {
	expr := normalizeRange(text)
	if expr == "" {
		return RangeSpec{}, nil
	}
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return RangeSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version range: %s", text)).
			WithCause(err)
	}
	return RangeSpec{exprs: []string{expr}, constraints: []*semver.Constraints{c}}, nil
}

// Intersect returns the conjunction of ranges.
func Intersect(ranges ...RangeSpec) RangeSpec {
	var out RangeSpec
	for _, r := range ranges {
		out.exprs = append(out.exprs, r.exprs...)
		out.constraints = append(out.constraints, r.constraints...)
	}
	return out
}

// Match reports whether v satisfies every expression of r.
func (r RangeSpec) Match(v Version) bool {
	if len(r.constraints) == 0 {
		return true
	}
	if v.v == nil {
		return false
	}
	for _, c := range r.constraints {
		if !c.Check(v.v) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether r has no expressions.
func (r RangeSpec) IsEmpty() bool {
	return len(r.exprs) == 0
}

func (r RangeSpec) String() string {
	return strings.Join(r.exprs, ",")
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

func (v Version) IsZero() bool {
	return v.v == nil
}

func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// Compare returns -1, 0 or 1. An unknown version sorts first.
func (v Version) Compare(other Version) int {
	switch {
	case v.v == nil && other.v == nil:
		return 0
	case v.v == nil:
		return -1
	case other.v == nil:
		return 1
	}
	return v.v.Compare(other.v)
}

// normalizeRange maps the "==" operator used in app manifests onto the
// equivalent single "=" form.
func normalizeRange(text string) string {
	expr := strings.TrimSpace(text)
	return strings.ReplaceAll(expr, "==", "=")
}

// rangeCache memoizes parsed ranges so that repeated version range
// recomputation over a graph does not reparse the same texts.
type rangeCache struct {
	ranges map[string]RangeSpec
	errs   map[string]error
}

func newRangeCache() *rangeCache {
	return &rangeCache{
		ranges: map[string]RangeSpec{},
		errs:   map[string]error{},
	}
}

func (c *rangeCache) parse(text string) (RangeSpec, error) {
	if parsed, ok := c.ranges[text]; ok {
		return parsed, nil
	}
	if err, ok := c.errs[text]; ok {
		return RangeSpec{}, err
	}
	parsed, err := ParseRange(text)
	if err != nil {
		c.errs[text] = err
		return RangeSpec{}, err
	}
	c.ranges[text] = parsed
	return parsed, nil
}
