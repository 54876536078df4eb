package supervisor

import (
	"strings"
	"time"

	"github.com/pmrun/pmrun/internal/model"
)

// Profile bounds one executor invocation's timing. DisableOverallTimeout
// exists for genuinely long-running tasks that opt out of the safety net
// explicitly, never implicitly.
type Profile struct {
	IdleTimeout           time.Duration
	OverallTimeout        time.Duration
	SilenceLogInterval    time.Duration
	DisableOverallTimeout bool
}

var (
	smallProfile  = Profile{IdleTimeout: 30 * time.Second, OverallTimeout: 5 * time.Minute, SilenceLogInterval: 20 * time.Second}
	mediumProfile = Profile{IdleTimeout: 45 * time.Second, OverallTimeout: 10 * time.Minute, SilenceLogInterval: 30 * time.Second}
	largeProfile  = Profile{IdleTimeout: 60 * time.Second, OverallTimeout: 20 * time.Minute, SilenceLogInterval: 45 * time.Second}
	xlargeProfile = Profile{IdleTimeout: 90 * time.Second, OverallTimeout: 45 * time.Minute, SilenceLogInterval: 60 * time.Second}
)

var xlargeKeywords = []string{"entire codebase", "whole project", "migrate", "rewrite", "large-scale", "comprehensive refactor"}
var largeKeywords = []string{"refactor", "redesign", "architecture", "multiple files", "across the codebase"}
var smallKeywords = []string{"rename", "typo", "one line", "single line", "small fix", "bump version"}

// EstimateProfile is a pure function of prompt text (and optional task
// type) selecting a timeout profile. DANGEROUS_OP tasks are bumped to at
// least the large profile regardless of keyword match, since a dangerous
// operation is rarely trivially fast and deserves the longer safety net.
func EstimateProfile(prompt string, taskType model.TaskType) Profile {
	lower := strings.ToLower(prompt)

	profile := mediumProfile
	switch {
	case containsAny(lower, xlargeKeywords):
		profile = xlargeProfile
	case containsAny(lower, largeKeywords):
		profile = largeProfile
	case containsAny(lower, smallKeywords):
		profile = smallProfile
	}

	if taskType == model.TaskTypeDangerousOp && profile.OverallTimeout < largeProfile.OverallTimeout {
		profile = largeProfile
	}
	return profile
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
