package numutil

import "fmt"

// Integer is any integer type counters are kept in.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// IntWithCommas returns a string representation of an integer with commas.
//
// Example:
//
//	12345 -> "12,345"
func IntWithCommas[T Integer](i T) string {
	n := int64(i)
	if n < 0 {
		return "-" + IntWithCommas(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return IntWithCommas(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}
