package textutil

// OverlapScore computes the token-multiset overlap between two token lists:
// |tokens(a) ∩ tokens(b)| / max(|tokens(a)|, |tokens(b)|). Returns 0 when
// either side is empty.
func OverlapScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	counts := make(map[string]int, len(a))
	for _, token := range a {
		counts[token]++
	}
	shared := 0
	for _, token := range b {
		if counts[token] > 0 {
			counts[token]--
			shared++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(shared) / float64(denom)
}

// ScoreTitles tokenizes both titles and returns their overlap score.
func ScoreTitles(a, b string) float64 {
	return OverlapScore(Tokenize(a), Tokenize(b))
}
