package quiz

// Points computes the score earned for one answer: a correct answer
// is worth 100 minus 3 per elapsed second, truncated and never
// negative. Incorrect or missing answers earn nothing.
func Points(correct bool, elapsed float64) int {
	if !correct {
		return 0
	}
	points := int(100 - 3*elapsed)
	if points < 0 {
		return 0
	}
	return points
}
