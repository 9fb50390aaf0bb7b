package service

import "fmt"

// User-facing confirmations shared by the web and terminal surfaces.

func SavedMessage(total int) string {
	return fmt.Sprintf("💖 Story saved! You now have %d saved stories.", total)
}

func StoryDeletedMessage(location string) string {
	return fmt.Sprintf("✓ Story from %s deleted successfully!", location)
}

func StoriesClearedMessage(n int) string {
	if n == 0 {
		return "ℹ️ No stories to delete."
	}
	return fmt.Sprintf("✓ All %d stories deleted successfully!", n)
}

func CanvasCreatedMessage(total int) string {
	return fmt.Sprintf("✓ Dream Canvas created! You now have %d Dream Canvas ready to download.", total)
}

func CanvasDeletedMessage(location string) string {
	return fmt.Sprintf("✓ Postcard from %s deleted successfully!", location)
}

func CanvasesClearedMessage(n int) string {
	if n == 0 {
		return "ℹ️ No postcards to delete."
	}
	return fmt.Sprintf("✓ All %d postcards deleted successfully!", n)
}

// NothingToSaveMessage is shown for ErrNothingToSave.
const NothingToSaveMessage = "⚠️ No story to save. Generate a story first!"
