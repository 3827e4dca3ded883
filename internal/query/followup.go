package query

import (
	"regexp"
	"strings"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
)

// followUpIndicators are anaphora and continuation markers. Short
// queries count as follow-ups on their own: "and in the spring?" only
// makes sense against the previous turn.
var followUpIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\b(it|that|this|those)\b`),
	regexp.MustCompile(`\bthe course\b`),
	regexp.MustCompile(`^what about`),
	regexp.MustCompile(`^how about`),
	regexp.MustCompile(`\b(also|too|instead|another|similar|alternatives?)\b`),
}

const shortFollowUpWords = 5

// detectFollowUp decides whether the utterance continues the previous
// exchange rather than opening a new topic. A fresh conversation (no
// history) is never a follow-up.
func detectFollowUp(lower string, codes []string, history []Turn) bool {
	if len(history) == 0 {
		return false
	}

	for _, re := range followUpIndicators {
		if re.MatchString(lower) {
			return true
		}
	}

	if len(strings.Fields(lower)) <= shortFollowUpWords {
		return true
	}

	// Echoing a code the assistant just mentioned reads as drilling
	// into the previous answer.
	if len(codes) > 0 {
		if last := lastAssistantTurn(history); last != "" {
			mentioned := catalog.FindCodes(last)
			for _, code := range codes {
				for _, m := range mentioned {
					if code == m {
						return true
					}
				}
			}
		}
	}

	return false
}

// codesFromLastAssistantTurn resolves "is it hard?" style references to
// the courses named in the assistant's previous reply.
func codesFromLastAssistantTurn(history []Turn) []string {
	last := lastAssistantTurn(history)
	if last == "" {
		return nil
	}
	return catalog.FindCodes(last)
}

func lastAssistantTurn(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "assistant" {
			return history[i].Content
		}
	}
	return ""
}
