package domain

const (
	ResultNoMatch = 0
	ResultMatch   = 1

	LabelMatch   = "Match"
	LabelNoMatch = "No Match"
)

// Compare returns ResultMatch only when both values are byte-for-byte equal.
// No trimming or case folding is applied.
func Compare(barcode1, barcode2 string) int {
	if barcode1 == barcode2 {
		return ResultMatch
	}
	return ResultNoMatch
}

func ResultLabel(result int) string {
	if result == ResultMatch {
		return LabelMatch
	}
	return LabelNoMatch
}
