package chain

import "fmt"

// TODO(aroman) Replace calls with an explicit error type
func panicf(msgfmt string, args ...any) {
	panic(fmt.Errorf(msgfmt, args...))
}

// ordinalize renders a 1-based position for error messages: 1st, 2nd, 11th.
func ordinalize(n int) string {
	suffix := "th"
	if m := n % 100; m < 11 || m > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
