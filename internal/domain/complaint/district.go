package complaint

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeDistrict folds case and collapses whitespace so that declared
// districts and directory labels compare exactly.
func NormalizeDistrict(district string) string {
	fields := strings.Fields(district)
	if len(fields) == 0 {
		return ""
	}
	return cases.Fold().String(strings.Join(fields, " "))
}
