package invoice

import "strings"

// AddressSeparator joins the non-empty address components.
const AddressSeparator = ", "

// JoinAddress builds a bill-to line from address components (room/suite,
// line 2, city, state, zip). Each component is trimmed and blank ones are
// dropped, so the result never contains doubled separators.
//
// Example: ["Rm 4", "", "Newton", "NC", "28658"] -> "Rm 4, Newton, NC, 28658"
func JoinAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, AddressSeparator)
}
