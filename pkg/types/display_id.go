package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Display identifier prefixes for the sequence-backed human IDs.
const (
	VendorIDPrefix     = "U"
	CommitmentIDPrefix = "C"
	DealIDPrefix       = "D"
)

// FormatDisplayID renders a sequence number as PREFIX-00001. Values wider than
// five digits are printed in full.
func FormatDisplayID(prefix string, seq int64) string {
	if seq <= 0 {
		return ""
	}
	return fmt.Sprintf("%s-%05d", prefix, seq)
}

func FormatVendorID(seq int64) string     { return FormatDisplayID(VendorIDPrefix, seq) }
func FormatCommitmentID(seq int64) string { return FormatDisplayID(CommitmentIDPrefix, seq) }
func FormatDealID(seq int64) string       { return FormatDisplayID(DealIDPrefix, seq) }

// ParseDisplayID reverses FormatDisplayID for the given prefix.
func ParseDisplayID(prefix, value string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(value)), prefix+"-")
	if !ok || rest == "" {
		return 0, fmt.Errorf("display id %q does not start with %s-", value, prefix)
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("display id %q has an invalid sequence", value)
	}
	return seq, nil
}
