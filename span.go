package highlight

import (
	"strings"

	"go.spyglass.dev/highlight/syntax"
)

// Category is the semantic highlight category of a span. It is a closed
// enumeration so a renderer's theme table can be checked for exhaustiveness;
// capture names outside the recognized set map to CategoryUnrecognized and
// keep their raw name on the span for pass-through themes.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryAttribute
	CategoryComment
	CategoryConstant
	CategoryConstructor
	CategoryEmbedded
	CategoryFunction
	CategoryKeyword
	CategoryNumber
	CategoryOperator
	CategoryProperty
	CategoryPunctuation
	CategoryString
	CategoryTag
	CategoryType
	CategoryVariable
	CategoryUnrecognized
)

var categoryNames = map[string]Category{
	"attribute":   CategoryAttribute,
	"comment":     CategoryComment,
	"constant":    CategoryConstant,
	"constructor": CategoryConstructor,
	"embedded":    CategoryEmbedded,
	"function":    CategoryFunction,
	"keyword":     CategoryKeyword,
	"number":      CategoryNumber,
	"operator":    CategoryOperator,
	"property":    CategoryProperty,
	"punctuation": CategoryPunctuation,
	"string":      CategoryString,
	"tag":         CategoryTag,
	"type":        CategoryType,
	"variable":    CategoryVariable,
}

var categoryStrings = [...]string{
	CategoryNone:         "none",
	CategoryAttribute:    "attribute",
	CategoryComment:      "comment",
	CategoryConstant:     "constant",
	CategoryConstructor:  "constructor",
	CategoryEmbedded:     "embedded",
	CategoryFunction:     "function",
	CategoryKeyword:      "keyword",
	CategoryNumber:       "number",
	CategoryOperator:     "operator",
	CategoryProperty:     "property",
	CategoryPunctuation:  "punctuation",
	CategoryString:       "string",
	CategoryTag:          "tag",
	CategoryType:         "type",
	CategoryVariable:     "variable",
	CategoryUnrecognized: "unrecognized",
}

func (c Category) String() string {
	if int(c) < len(categoryStrings) {
		return categoryStrings[c]
	}
	return "unrecognized"
}

// CategoryForCapture resolves a capture name to its category. Dotted capture
// names fall back to their longest recognized prefix, so "function.builtin"
// resolves to CategoryFunction when "function.builtin" itself is not in the
// recognized set.
func CategoryForCapture(name string) Category {
	for n := name; n != ""; {
		if cat, ok := categoryNames[n]; ok {
			return cat
		}
		dot := strings.LastIndex(n, ".")
		if dot == -1 {
			break
		}
		n = n[:dot]
	}
	return CategoryUnrecognized
}

// Span is one highlighted byte range of the input document. Spans returned
// from a highlight pass are pairwise disjoint and ordered by Start; bytes not
// covered by any span carry no highlight.
type Span struct {
	Start    uint
	End      uint
	Category Category
	// Capture is the raw capture name that produced the span, e.g.
	// "function.builtin". It disambiguates CategoryUnrecognized spans.
	Capture string
}

// Range returns the span's byte range.
func (s Span) Range() syntax.Range {
	return syntax.Range{Start: s.Start, End: s.End}
}
