package quality

import (
	"strings"

	"github.com/graintec/ricenet-go/internal/errors"
)

// RiceType is the processing state of the analyzed sample. The model embeds
// the type as a categorical input, so each type maps to a fixed index.
type RiceType string

const (
	RicePaddy RiceType = "paddy"
	RiceBrown RiceType = "brown"
	RiceWhite RiceType = "white"
)

// riceTypeIndices maps each type to its embedding index in the model input.
var riceTypeIndices = map[RiceType]int{
	RicePaddy: 0,
	RiceBrown: 1,
	RiceWhite: 2,
}

// ParseRiceType normalizes a user-supplied rice type string.
func ParseRiceType(s string) (RiceType, error) {
	rt := RiceType(strings.ToLower(strings.TrimSpace(s)))
	if !rt.Valid() {
		return "", errors.Newf("unknown rice type %q, expected paddy, brown or white", s).
			Component("quality").
			Category(errors.CategoryValidation).
			Context("rice_type", s).
			Build()
	}
	return rt, nil
}

// Valid reports whether the rice type is one of the known processing states.
func (rt RiceType) Valid() bool {
	_, ok := riceTypeIndices[rt]
	return ok
}

// Index returns the model embedding index for the rice type. Unknown types
// map to the white index, matching the most common sample state.
func (rt RiceType) Index() int {
	if idx, ok := riceTypeIndices[rt]; ok {
		return idx
	}
	return riceTypeIndices[RiceWhite]
}

// Title returns the capitalized display form, e.g. "Paddy".
func (rt RiceType) Title() string {
	if len(rt) == 0 {
		return ""
	}
	return strings.ToUpper(string(rt[0])) + string(rt[1:])
}

func (rt RiceType) String() string {
	return string(rt)
}
