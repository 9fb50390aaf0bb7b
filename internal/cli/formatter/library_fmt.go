package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/zenstory/internal/domain"
	"github.com/alexanderramin/zenstory/internal/render"
)

// FormatStoryList renders saved stories newest first with their 1-based
// numbers.
func FormatStoryList(stories []*domain.SavedStory, now time.Time, width int) string {
	if len(stories) == 0 {
		return Dim("No saved stories yet. Generate and save your first cosmic tale!") + "\n"
	}
	rows := make([][]string, len(stories))
	for i, s := range stories {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			s.Title,
			s.Location,
			s.ObjectName,
			strings.ToUpper(s.Language),
			RelativeTime(s.CreatedAt, now),
		}
	}
	return RenderTable([]string{"#", "TITLE", "LOCATION", "OBJECT", "LANG", "SAVED"}, rows, width, 1)
}

// FormatCanvasList renders dream canvases like FormatStoryList.
func FormatCanvasList(canvases []*domain.DreamCanvas, now time.Time, width int) string {
	if len(canvases) == 0 {
		return Dim("No Dream Canvas created yet. Generate a story and create your printable canvas!") + "\n"
	}
	rows := make([][]string, len(canvases))
	for i, c := range canvases {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			c.Title,
			c.Location,
			strings.ToUpper(c.Language),
			RelativeTime(c.CreatedAt, now),
		}
	}
	return RenderTable([]string{"#", "TITLE", "LOCATION", "LANG", "CREATED"}, rows, width, 1)
}

// FormatStoryDetail renders one saved story as wrapped text.
func FormatStoryDetail(s *domain.SavedStory, now time.Time, width int) string {
	var b strings.Builder
	b.WriteString(Header("🌌 "+s.Title) + "\n")
	fmt.Fprintf(&b, "%s\n", Dim(fmt.Sprintf("📍 %s  •  ⭐ %s  •  📅 %s (%s)",
		s.Location, s.ObjectName, s.CreatedAt.Local().Format("2006-01-02 15:04"), RelativeTime(s.CreatedAt, now))))

	blocks := render.PlainText(s.StoryHTML)
	for _, block := range blocks {
		if block == s.Title {
			continue
		}
		b.WriteString("\n" + Wrap(block, width, 0) + "\n")
	}
	if s.ImageURL != "" {
		b.WriteString("\n🖼️  " + s.ImageURL + "\n")
	}
	return b.String()
}
