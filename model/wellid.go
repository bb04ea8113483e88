package model

import (
	"regexp"
	"strconv"
	"strings"
)

// WellIDExpr matches quadrant, block and well suffix, e.g. 15/9-13, 15_9-F-11
const WellIDExpr = `(\d{1,2})[/_](\d{1,2})-([A-Za-z0-9]+(?:-[A-Za-z0-9]+)*)`

var wellIDExactPattern = regexp.MustCompile(`^` + WellIDExpr + `$`)

// NormalizeWellID returns the canonical form of a well id.
// 15/9-13, 15_9-13 and 15/09-13 all become 15_9-13.
func NormalizeWellID(raw string) (string, bool) {
	m := wellIDExactPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	return CanonicalWellID(m[1], m[2], m[3]), true
}

// CanonicalWellID joins the parts of a well id in canonical form
func CanonicalWellID(quadrant, block, suffix string) string {
	return trimZeros(quadrant) + "_" + trimZeros(block) + "-" + strings.ToUpper(suffix)
}

// canonicalOrRaw keeps ids that are not in quadrant/block form unchanged
func canonicalOrRaw(raw string) string {
	if id, ok := NormalizeWellID(raw); ok {
		return id
	}
	return raw
}

func trimZeros(digits string) string {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return digits
	}
	return strconv.Itoa(n)
}
