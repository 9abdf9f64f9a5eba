package atlas

import "github.com/mattn/go-runewidth"

// emojiRanges lists the Unicode blocks the dynamic atlas treats as emoji
// (double-width, style-less) rather than ordinary double-width CJK text.
// No third-party emoji-classification library appears anywhere in the
// example pack (see DESIGN.md); these ranges are transcribed from the
// Unicode Standard's emoji block assignments (Emoticons, Misc Symbols &
// Pictographs, Transport & Map, Supplemental Symbols & Pictographs,
// Symbols & Pictographs Extended-A, and the widely-implemented presentation
// selector / regional indicator / variation-selector ranges original_source
// also special-cases).
var emojiRanges = [][2]rune{
	{0x1F300, 0x1F5FF}, // Misc Symbols and Pictographs
	{0x1F600, 0x1F64F}, // Emoticons
	{0x1F680, 0x1F6FF}, // Transport and Map
	{0x1F900, 0x1F9FF}, // Supplemental Symbols and Pictographs
	{0x1FA70, 0x1FAFF}, // Symbols and Pictographs Extended-A
	{0x2600, 0x26FF},   // Misc symbols (includes weather, religious glyphs)
	{0x2700, 0x27BF},   // Dingbats
	{0x1F1E6, 0x1F1FF}, // Regional indicator symbols (flags)
	{0xFE0F, 0xFE0F},   // Variation Selector-16 (emoji presentation)
}

// classifyEmoji reports whether grapheme should be treated as an emoji
// glyph: double-width, no bold/italic variants, requested style ignored.
func classifyEmoji(grapheme string) bool {
	runes := []rune(grapheme)
	if len(runes) == 0 {
		return false
	}
	for _, r := range runes {
		if inEmojiRanges(r) {
			return true
		}
	}
	return false
}

func inEmojiRanges(r rune) bool {
	for _, rr := range emojiRanges {
		if r >= rr[0] && r <= rr[1] {
			return true
		}
	}
	return false
}

// classifyWide reports whether grapheme needs two terminal cells, using
// go-runewidth for general East-Asian-width classification and
// classifyEmoji for the emoji special case (spec.md section 4.6).
func classifyWide(grapheme string) bool {
	if classifyEmoji(grapheme) {
		return true
	}
	for _, r := range grapheme {
		if runewidth.RuneWidth(r) >= 2 {
			return true
		}
	}
	return false
}
