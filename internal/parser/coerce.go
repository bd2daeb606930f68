package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/leduardoaraujo/jsonexplorer/internal/doctree"
)

// quotePairs are the opening/closing quotes stripped from text values.
var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"\u201c", "\u201d"},
	{"\u2018", "\u2019"},
}

// Coerce converts a markup value token to the most specific scalar:
// boolean, null, integer, float, then text with one layer of quotes removed.
// Integers outside int64 become float64, matching DecodeJSON.
func Coerce(token string) *doctree.Value {
	switch strings.ToLower(token) {
	case "true":
		return doctree.Bool(true)
	case "false":
		return doctree.Bool(false)
	case "null":
		return doctree.Null()
	}
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return doctree.Int(n)
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return doctree.Float(f)
	}
	return doctree.Text(StripQuotes(token))
}

// StripQuotes removes a single layer of matching surrounding quotes.
func StripQuotes(s string) string {
	for _, q := range quotePairs {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			return s[len(q[0]) : len(s)-len(q[1])]
		}
	}
	return s
}
