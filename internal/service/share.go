package service

import (
	"net/url"
	"strings"
)

const (
	shareEmailSubject = "🌌 My Zen-IT Story"
	twitterMaxRunes   = 240
)

// Platforms lists the supported share targets.
var Platforms = []string{"whatsapp", "email", "twitter", "telegram"}

// ShareLink builds the share URL for platform, or "" for an unknown one.
func ShareLink(text, platform string) string {
	switch platform {
	case "whatsapp":
		return "https://wa.me/?text=" + encode(text)
	case "email":
		return "mailto:?subject=" + encode(shareEmailSubject) + "&body=" + encode(text)
	case "twitter":
		if r := []rune(text); len(r) > twitterMaxRunes {
			text = string(r[:twitterMaxRunes])
		}
		return "https://twitter.com/intent/tweet?text=" + encode(text)
	case "telegram":
		return "https://t.me/share/url?text=" + encode(text)
	}
	return ""
}

// encode percent-encodes s with spaces as %20, which mail clients require.
func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
