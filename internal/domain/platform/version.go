package platform

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// NormalizeVersion turns an OS version such as "22.04", "13" or "10.0.19045"
// into a canonical semver string ("v22.4.0"). Anything after the third
// numeric component is dropped.
func NormalizeVersion(v string) (string, bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return "", false
	}
	parts := strings.Split(v, ".")
	nums := []int{0, 0, 0}
	for i, part := range parts {
		if i == len(nums) {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return "", false
		}
		nums[i] = n
	}
	s := fmt.Sprintf("v%d.%d.%d", nums[0], nums[1], nums[2])
	return s, semver.IsValid(s)
}

// CompareVersions returns -1, 0 or +1 comparing OS versions a and b.
func CompareVersions(a, b string) (int, error) {
	na, ok := NormalizeVersion(a)
	if !ok {
		return 0, fmt.Errorf("invalid version %q", a)
	}
	nb, ok := NormalizeVersion(b)
	if !ok {
		return 0, fmt.Errorf("invalid version %q", b)
	}
	return semver.Compare(na, nb), nil
}
