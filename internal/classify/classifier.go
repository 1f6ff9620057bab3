// Package classify maps opaque upstream error text onto actionable outcomes.
// All upstream wording lives in the pattern table below; call sites only see Kind.
package classify

import (
	"errors"
	"regexp"
	"strconv"
)

type rule struct {
	kind    Kind
	pattern *regexp.Regexp
}

// First match wins.
var rules = []rule{
	{
		kind:    KindQuotaExceeded,
		pattern: regexp.MustCompile(`(?i)too many requests|exceeded your current quota|quotafailure|resource_exhausted|quota|rate limit|429`),
	},
	{
		kind:    KindModelNotFound,
		pattern: regexp.MustCompile(`(?i)not found for api version|\bnot found\b`),
	},
}

var (
	retryDelayField = regexp.MustCompile(`retryDelay"?\s*:\s*"?(\d+)(?:\.\d+)?s`)
	bareSeconds     = regexp.MustCompile(`(\d+)(?:\.\d+)?s`)
)

// Classify inspects an upstream error message. It never looks at anything but text.
func Classify(message string) *ClassifiedError {
	for _, r := range rules {
		if !r.pattern.MatchString(message) {
			continue
		}
		out := &ClassifiedError{Kind: r.kind, Message: message}
		if r.kind == KindQuotaExceeded {
			out.RetryAfterSeconds = RetryAfter(message)
		}
		return out
	}
	return Generic(message)
}

// FromError classifies err, passing an already classified error through.
func FromError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	return Classify(err.Error())
}

// RetryAfter extracts a retry delay in whole seconds: a retryDelay field first,
// then the first "<digits>s" token anywhere. Nil when neither is present.
func RetryAfter(message string) *int {
	for _, re := range []*regexp.Regexp{retryDelayField, bareSeconds} {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}
