package chunker

import (
	"strconv"

	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
)

// Stringify renders a leaf the way it appears after "- " in markup.
// Booleans and null are lowercase literals, numbers use their canonical
// locale-independent form and text is written verbatim. Containers that end
// up in leaf position (a sequence inside a sequence) render as compact JSON.
func Stringify(v *doctree.Value) string {
	switch v.Kind() {
	case doctree.KindNull:
		return "null"
	case doctree.KindBool:
		return strconv.FormatBool(v.BoolValue())
	case doctree.KindInt:
		return strconv.FormatInt(v.IntValue(), 10)
	case doctree.KindFloat:
		return doctree.FormatFloat(v.FloatValue())
	case doctree.KindText:
		return v.TextValue()
	case doctree.KindSequence, doctree.KindMapping:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	}
	return ""
}
