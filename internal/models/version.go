package models

import "strings"

// TextVersion is the edit history state of a text node: either Pristine
// (never edited) or Edited (original frozen, current is the latest edit).
type TextVersion interface {
	// Current returns the displayed text
	Current() string
	isTextVersion()
}

// Pristine is a text node that has never been edited
type Pristine struct {
	Text string
}

// Edited is a text node with at least one edit
type Edited struct {
	Original string
	Latest   string
}

func (p Pristine) Current() string { return p.Text }
func (Pristine) isTextVersion()    {}

func (e Edited) Current() string { return e.Latest }
func (Edited) isTextVersion()    {}

// ApplyEdit returns the state after editing v to content. changed is false
// when the trimmed content equals the current text, in which case v is
// returned unchanged.
func ApplyEdit(v TextVersion, content string) (next TextVersion, changed bool) {
	trimmed := strings.TrimSpace(content)

	switch v := v.(type) {
	case Edited:
		if trimmed == v.Latest {
			return v, false
		}
		return Edited{Original: v.Original, Latest: trimmed}, true
	case Pristine:
		if trimmed == v.Text {
			return v, false
		}
		return Edited{Original: v.Text, Latest: trimmed}, true
	default:
		return Pristine{Text: trimmed}, true
	}
}
