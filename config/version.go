package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Version is a game client version. The exe build number is not part of
// it, so == and map keys agree with Compare.
type Version struct {
	Major, Minor, Patch int
}

func parseComponents(s, sep string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), sep)
	if len(parts) < 3 {
		return Version{}, errors.Errorf("Invalid version %q", s)
	}
	var nums [3]int
	for i := 0; i < len(parts) && i < 4; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 {
			return Version{}, errors.Errorf("Invalid version component %q in %q", parts[i], s)
		}
		if i < 3 {
			nums[i] = n
		}
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// ParseVersion parses "12.5.0".
func ParseVersion(s string) (Version, error) {
	return parseComponents(s, ".")
}

// ParseExeVersion parses the meta header form "12,5,0,1234". The build
// component is validated and dropped.
func ParseExeVersion(s string) (Version, error) {
	return parseComponents(s, ",")
}

func MustVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	default:
		return cmpInt(v.Patch, o.Patch)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

func (v Version) AtLeast(o Version) bool {
	return v.Compare(o) >= 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Dir is the schema directory name for this version.
func (v Version) Dir() string {
	return v.String()
}
