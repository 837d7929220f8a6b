package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const maxGroupTitleLen = 200

var groupSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,50}$`)

// ValidateGroupSlug validates that slug can be used as a /group/{slug}/ routing key.
func ValidateGroupSlug(slug string) error {
	if !groupSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 1-50 characters of letters, numbers, underscores or hyphens")
	}
	return nil
}

// ValidateGroupTitle checks the title is present and fits the column.
func ValidateGroupTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if len([]rune(title)) > maxGroupTitleLen {
		return fmt.Errorf("title must not exceed %d characters", maxGroupTitleLen)
	}
	return nil
}
