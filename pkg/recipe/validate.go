package recipe

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var validName = regexp.MustCompile(`^[0-9a-z.-]+$`)

var reservedNames = []string{"forcevariable", "append", "prepend", "remove"}

// ValidateName checks that pn is usable as the name of a new recipe.
func ValidateName(pn string) error {
	switch {
	case !validName.MatchString(pn):
		return fmt.Errorf("%w: recipe name %q is invalid: only characters 0-9, a-z, - and . are allowed", ErrInvalidInput, pn)
	case slices.Contains(reservedNames, pn):
		return fmt.Errorf("%w: recipe name %q is invalid: is a reserved keyword", ErrInvalidInput, pn)
	case strings.HasPrefix(pn, "pn-"):
		return fmt.Errorf("%w: recipe name %q is invalid: names starting with \"pn-\" are reserved", ErrInvalidInput, pn)
	}
	return nil
}
