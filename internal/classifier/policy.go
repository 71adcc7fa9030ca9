package classifier

import (
	"strings"

	"github.com/noah-isme/barangay-api/internal/models"
)

// MaxPolicies bounds how many policies a single reply cites.
const MaxPolicies = 3

// MatchPolicies returns up to limit policies relevant to text, in the given order.
// A policy matches when one of its comma separated keywords occurs in the text, or
// when the whole text occurs in its title or summary.
func MatchPolicies(text string, policies []models.PolicyDocument, limit int) []models.PolicyDocument {
	if limit <= 0 {
		limit = MaxPolicies
	}
	query := strings.ToLower(text)
	if strings.TrimSpace(query) == "" {
		return nil
	}

	matched := make([]models.PolicyDocument, 0, limit)
	for _, policy := range policies {
		if len(matched) == limit {
			break
		}
		if policyMatches(query, policy) {
			matched = append(matched, policy)
		}
	}
	return matched
}

func policyMatches(query string, policy models.PolicyDocument) bool {
	for _, keyword := range strings.Split(policy.Keywords, ",") {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(query, keyword) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(policy.Title), query) ||
		strings.Contains(strings.ToLower(policy.Summary), query)
}
