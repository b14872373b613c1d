package model

// Token is one segmentation unit of an input string. Offsets are rune
// positions into the original input, not byte positions, so they line up
// with what a client sees character-by-character.
type Token struct {
	Text       string   `json:"text"`
	Start      int      `json:"startIndex"`
	End        int      `json:"endIndex"`
	IsCompound bool     `json:"isCompound"`
	Confidence float64  `json:"confidence"`
	Category   string   `json:"category,omitempty"`
	Components []string `json:"components,omitempty"`
}

// Len returns the token length in runes.
func (t Token) Len() int {
	return t.End - t.Start
}

// DictionaryEntry is one known compound term with its metadata. Entries are
// owned by the dictionary snapshot and never mutated after load.
type DictionaryEntry struct {
	Term       string   `json:"term"`
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	Components []string `json:"components,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}
