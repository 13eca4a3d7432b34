package math

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func Min[T Integer](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// DivRoundUp divides `a` by `b`, rounding any remainder up. Sizes in bytes
// become sector counts this way.
func DivRoundUp[T Integer](a, b T) T {
	if a%b == 0 {
		return a / b
	}
	return a/b + 1
}
