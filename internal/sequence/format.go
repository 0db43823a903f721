package sequence

import (
	"fmt"
	"strconv"
)

// Formatter renders an allocated integer as the string stored on the
// record and shown to clerks.
type Formatter func(n int) string

// PrefixFormat renders numbers as "<prefix>-<n>" with no padding, the
// style used for blotter and hearing case numbers.
func PrefixFormat(prefix string) Formatter {
	return func(n int) string {
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// PaddedFormat renders numbers as "<prefix>-<n>" zero-padded to the
// given width, the style used for barangay ID numbers.
func PaddedFormat(prefix string, width int) Formatter {
	return func(n int) string {
		return fmt.Sprintf("%s-%0*d", prefix, width, n)
	}
}

// BareFormat renders the integer with no prefix at all, the style used
// for directly filed referral case numbers.
func BareFormat() Formatter {
	return strconv.Itoa
}
