// Package robust implements sample-consensus estimation over an abstract
// measurement problem, with the RANSAC family of methods.
package robust

import (
	"fmt"
	"strings"

	"gps-no-locate/internal/positioning"
)

type Method string

const (
	RANSAC  Method = "RANSAC"
	LMedS   Method = "LMEDS"
	MSAC    Method = "MSAC"
	PROSAC  Method = "PROSAC"
	PROMedS Method = "PROMEDS"
)

func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToUpper(s)) {
	case RANSAC, LMedS, MSAC, PROSAC, PROMedS:
		return Method(strings.ToUpper(s)), nil
	default:
		return "", fmt.Errorf("%w: unknown robust method %q", positioning.ErrInvalidArgument, s)
	}
}

// UsesQualityScores reports whether the method guides its sampling by
// per-sample quality scores.
func (m Method) UsesQualityScores() bool {
	return m == PROSAC || m == PROMedS
}

// usesMedianScore reports whether consensus is scored by the median squared
// residual instead of a fixed inlier threshold.
func (m Method) usesMedianScore() bool {
	return m == LMedS || m == PROMedS
}
