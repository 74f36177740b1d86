// Package match defines ranking results.
package match

// MatchScore ranks one candidate for a requester. Score is nominally 0-10.
type MatchScore struct {
	UserID  string   `json:"userId"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// FallbackReason labels scores produced without the oracle.
const FallbackReason = "Fallback matching algorithm used"

// IsFallback reports whether the score came from the local fallback.
func (m MatchScore) IsFallback() bool {
	return len(m.Reasons) == 1 && m.Reasons[0] == FallbackReason
}
