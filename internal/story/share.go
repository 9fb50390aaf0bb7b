package story

import "strings"

const sharePreviewRunes = 200

// ShareText formats s for social sharing: title, a preview of the body, the
// haiku, where it was seen from and the hashtags.
func ShareText(s Story, object, location string) string {
	var b strings.Builder
	b.WriteString("🌌 " + s.Title + "\n\n")

	preview := []rune(s.Story)
	if len(preview) > sharePreviewRunes {
		preview = preview[:sharePreviewRunes]
	}
	b.WriteString(string(preview) + "...\n\n")

	if s.Haiku != "" {
		b.WriteString("✨ Haiku:\n" + s.Haiku + "\n\n")
	}
	b.WriteString("📍 Seen from: " + location + "\n")
	b.WriteString("⭐ Tonight's star: " + object + "\n\n")
	b.WriteString("🌟 Generated by Zen-IT-Story\n")
	b.WriteString("#astronomy #bedtimestories #AI")
	return b.String()
}
