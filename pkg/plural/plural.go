package plural

// Int returns suffix unless n is one.
func Int(n int, suffix string) string {
	if n == 1 {
		return ""
	}
	return suffix
}
