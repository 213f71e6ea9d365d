package mediatex

// aspectRatio is width/height of a ready surface and 1 otherwise.
func aspectRatio(ready bool, width, height int) float64 {
	if !ready {
		return 1
	}
	return float64(width) / float64(height)
}
