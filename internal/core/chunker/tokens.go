package chunker

// EstimateTokens approximates token count from character count:
// ceil(len / charsPerToken). This is a deliberate approximation, not a real
// tokenizer; chunk boundaries must stay reproducible across runs, so keep it
// exact. Empty input is 0 tokens; partial tokens round up.
func EstimateTokens(s string, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	n := len(s)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}
