package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reLeadingDotsAndSpace = regexp.MustCompile(`^[.\s]+`)
	reEdgeNonLetters      = regexp.MustCompile(`^[^A-Za-z]+|[^A-Za-z]+$`)
	reIdentifierNoise     = regexp.MustCompile(`[\s-]+`)
)

// StripLeadingDots removes a leading run of periods and whitespace. Nothing
// else in the value is touched.
func StripLeadingDots(s string) string {
	return reLeadingDotsAndSpace.ReplaceAllString(s, "")
}

// SanitizeSubjectName trims every non-letter character from both ends of a
// name returned by the directory service.
func SanitizeSubjectName(s string) string {
	return reEdgeNonLetters.ReplaceAllString(s, "")
}

// SanitizeNameField is applied to the four name fields of a submission before
// it is forwarded.
func SanitizeNameField(s string) string {
	return Pipeline{StripLeadingDots}.Apply(s)
}

// NormalizeNYSID uppercases and drops spaces and dashes typed between groups.
func NormalizeNYSID(s string) string {
	p := Pipeline{
		strings.TrimSpace,
		strings.ToUpper,
		func(v string) string { return reIdentifierNoise.ReplaceAllString(v, "") },
	}
	return p.Apply(s)
}

// NormalizeBookAndCase keeps the digits as typed, minus surrounding spaces.
func NormalizeBookAndCase(s string) string {
	return strings.TrimSpace(s)
}
