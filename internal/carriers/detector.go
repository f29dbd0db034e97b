package carriers

import (
	"regexp"
	"strings"

	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
)

// minTrackingLength is the shortest normalized input worth classifying.
const minTrackingLength = 8

type pattern struct {
	carrier enums.Carrier
	expr    *regexp.Regexp
}

// patterns are evaluated in order; the first match wins. Digit-only forms
// are prefix-scoped so that a 20-22 digit number lands on exactly one carrier.
var patterns = []pattern{
	{carrier: enums.CarrierUPS, expr: regexp.MustCompile(`^1Z[0-9A-Z]{16}$`)},

	{carrier: enums.CarrierFedEx, expr: regexp.MustCompile(`^\d{12}$`)},
	{carrier: enums.CarrierFedEx, expr: regexp.MustCompile(`^\d{15}$`)},
	{carrier: enums.CarrierFedEx, expr: regexp.MustCompile(`^[0-8]\d{19}$`)},
	{carrier: enums.CarrierFedEx, expr: regexp.MustCompile(`^96\d{20}$`)},

	{carrier: enums.CarrierUSPS, expr: regexp.MustCompile(`^9[1-5]\d{18,20}$`)},
	{carrier: enums.CarrierUSPS, expr: regexp.MustCompile(`^[A-Z]{2}\d{9}US$`)},

	{carrier: enums.CarrierDHL, expr: regexp.MustCompile(`^\d{10,11}$`)},
	{carrier: enums.CarrierDHL, expr: regexp.MustCompile(`^(JD|GM|LX)[0-9A-Z]{8,}$`)},
}

var stripper = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "", "-", "")

// Normalize strips whitespace and hyphens and uppercases the result.
func Normalize(trackingNumber string) string {
	return strings.ToUpper(stripper.Replace(strings.TrimSpace(trackingNumber)))
}

// Detect maps a tracking number to its carrier. Unrecognized input yields
// enums.CarrierUnknown; the function never fails.
func Detect(trackingNumber string) enums.Carrier {
	normalized := Normalize(trackingNumber)
	if len(normalized) < minTrackingLength {
		return enums.CarrierUnknown
	}
	for _, p := range patterns {
		if p.expr.MatchString(normalized) {
			return p.carrier
		}
	}
	return enums.CarrierUnknown
}

// matchingCarriers lists every pattern hit for the normalized input, in
// precedence order, so overlaps can be inspected.
func matchingCarriers(trackingNumber string) []enums.Carrier {
	normalized := Normalize(trackingNumber)
	var out []enums.Carrier
	for _, p := range patterns {
		if p.expr.MatchString(normalized) {
			out = append(out, p.carrier)
		}
	}
	return out
}
