package classify

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Flag is a boolean decoded leniently: JSON booleans, non-zero numbers and
// the strings true, yes, y and 1 (any case, surrounding space ignored) are
// true. Anything else, including null, is false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag(parseFlag(data))
	return nil
}

func parseFlag(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true
		}
	}
	return false
}

// Ingredient is one classified ingredient.
type Ingredient struct {
	Name    string `json:"name"`
	Reason  string `json:"reason,omitempty"`
	IsVeg   Flag   `json:"is_veg"`
	IsVegan Flag   `json:"is_vegan"`
}

// Summary is the service's overall verdict.
type Summary struct {
	OverallJainSafe Flag     `json:"overall_jain_safe"`
	NonJainFound    []string `json:"non_jain_ingredients_found,omitempty"`
	Note            string   `json:"note,omitempty"`
}

// Result is the classification response.
type Result struct {
	NonJain   []Ingredient `json:"non_jain_ingredients"`
	Uncertain []Ingredient `json:"uncertain_ingredients"`
	Jain      []Ingredient `json:"jain_ingredients"`
	Summary   *Summary     `json:"summary,omitempty"`
}

// Category is a result section.
type Category int

const (
	NonJain Category = iota
	Uncertain
	Jain
)

func (c Category) String() string {
	switch c {
	case NonJain:
		return "non-jain"
	case Uncertain:
		return "uncertain"
	case Jain:
		return "jain"
	default:
		return "unknown"
	}
}

// Title is the heading shown above the section.
func (c Category) Title() string {
	switch c {
	case NonJain:
		return "Non-Jain Ingredients"
	case Uncertain:
		return "Uncertain Ingredients"
	case Jain:
		return "Jain Ingredients"
	default:
		return ""
	}
}

// Section groups ingredients of one category.
type Section struct {
	Category Category
	Items    []Ingredient
}

// Title is the heading of the section.
func (s Section) Title() string { return s.Category.Title() }

// Sections returns the non-empty sections in display order: non-Jain first,
// then uncertain, then Jain.
func (r *Result) Sections() []Section {
	if r == nil {
		return nil
	}
	var out []Section
	for _, s := range []Section{
		{Category: NonJain, Items: r.NonJain},
		{Category: Uncertain, Items: r.Uncertain},
		{Category: Jain, Items: r.Jain},
	} {
		if len(s.Items) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Note returns the summary note, if any.
func (r *Result) Note() string {
	if r == nil || r.Summary == nil {
		return ""
	}
	return r.Summary.Note
}

// Empty reports whether there is nothing to show.
func (r *Result) Empty() bool {
	return r.Note() == "" && len(r.Sections()) == 0
}
