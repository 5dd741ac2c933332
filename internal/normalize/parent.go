package normalize

import "strings"

// ParentStrategy derives the coarse object grouping for one object name.
// supplied is the source's own object_parent value, nil when the source has
// none. A nil result means "no parent".
type ParentStrategy func(objectName string, supplied *string) *string

// FirstWordParent takes the lowercase first whitespace-delimited token of the
// object name. Blank names have no parent. This is a text heuristic: "Pipa
// bocor" and "pipa retak" share the parent "pipa".
func FirstWordParent(objectName string, _ *string) *string {
	fields := strings.Fields(objectName)
	if len(fields) == 0 {
		return nil
	}
	parent := strings.ToLower(fields[0])
	return &parent
}

// SuppliedParent uses the source's explicit hierarchy field as is.
func SuppliedParent(_ string, supplied *string) *string {
	if supplied == nil {
		return nil
	}
	v := strings.TrimSpace(*supplied)
	if v == "" {
		return nil
	}
	return &v
}

// ChainParent tries each strategy in order and returns the first non-nil parent.
func ChainParent(strategies ...ParentStrategy) ParentStrategy {
	return func(objectName string, supplied *string) *string {
		for _, s := range strategies {
			if p := s(objectName, supplied); p != nil {
				return p
			}
		}
		return nil
	}
}

// DefaultParent keeps a supplied parent and falls back to the first word.
var DefaultParent = ChainParent(SuppliedParent, FirstWordParent)
