package httpcontroller

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// displayName turns a dataset label such as "Pepper__bell___Bacterial_spot"
// into "Pepper Bell Bacterial Spot".
func displayName(label string) string {
	words := strings.FieldsFunc(label, func(r rune) bool {
		return r == '_' || r == ' '
	})
	// Casers keep state and must not be shared between goroutines.
	return cases.Title(language.English).String(strings.Join(words, " "))
}
