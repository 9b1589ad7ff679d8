package sanitizer

// NormalizeMoney floors negative monetary amounts at zero. Ledger totals are
// monotonically non-decreasing outside explicit admin updates, and an admin
// update may not push them below zero either.
func NormalizeMoney(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	return amount
}

// NormalizeCount floors negative counters at zero.
func NormalizeCount(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
