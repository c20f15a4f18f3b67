package mathx

import "math"

// CeilDiv returns ceil(a / b) for non-negative a and positive b.
// It returns 0 when b <= 0.
func CeilDiv(a, b int) int {
	if b <= 0 || a <= 0 {
		return 0
	}
	return a/b + min(a%b, 1)
}

// Offset returns the zero-based index of the first item of a 1-based page.
// It saturates at math.MaxInt instead of overflowing.
func Offset(page, size int) int {
	if page < 1 || size < 1 {
		return 0
	}
	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}

// PastEnd reports whether a 1-based page lies wholly beyond n items.
func PastEnd(n, page, size int) bool {
	return page-1 >= CeilDiv(n, size)
}

// Window returns the [lo, hi) bounds of a page within n items.
// Pages past the end, and non-positive sizes, yield an empty window.
func Window(n, page, size int) (lo, hi int) {
	if n <= 0 {
		return 0, 0
	}
	if size < 1 {
		return 0, 0
	}
	if page < 1 {
		page = 1
	}
	if PastEnd(n, page, size) {
		return n, n
	}
	lo = (page - 1) * size
	if size > n-lo {
		return lo, n
	}
	return lo, lo + size
}
