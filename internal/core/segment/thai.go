package segment

import "unicode"

// Thai combining characters never start a segmentation unit: above/below
// vowels, tone marks, and the other non-spacing signs of the Thai block.
func isThaiCombining(r rune) bool {
	switch {
	case r == 0x0E31: // mai han-akat
		return true
	case r >= 0x0E34 && r <= 0x0E3A: // sara i..phinthu
		return true
	case r >= 0x0E47 && r <= 0x0E4E: // maitaikhu..yamakkan
		return true
	}
	return false
}

// Leading vowels are written before the consonant they belong to, so a
// cluster boundary never falls between one and the following consonant.
func isThaiLeadingVowel(r rune) bool {
	return r >= 0x0E40 && r <= 0x0E44 // sara e..sara ai maimalai
}

// Trailing vowels follow the consonant on the baseline.
func isThaiTrailingVowel(r rune) bool {
	return r == 0x0E30 || r == 0x0E32 || r == 0x0E33 || r == 0x0E45 // sara a, sara aa, sara am, lakkhangyao
}

func isThai(r rune) bool {
	return unicode.Is(unicode.Thai, r)
}
