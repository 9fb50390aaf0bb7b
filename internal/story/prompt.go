package story

import "strings"

const storyPromptTemplate = `
You are a gentle storyteller creating a bedtime story for young children about a celestial object they can see tonight.

CELESTIAL OBJECT: {object_name}
TYPE: {object_type}
VISIBLE FROM: {location}
SCIENTIFIC FACTS: {scientific_facts}

TARGET LANGUAGE: {language}
CRITICAL: Write the ENTIRE story in {language} - every word, every title, everything.

STORY STRUCTURE:

Write a gentle bedtime story with these elements:

1. OPENING (2-3 sentences)
   - A child looking at the night sky
   - The celestial object begins to speak or appears magical
   - Tone: wonder, gentleness, invitation

2. MAIN STORY (3-5 paragraphs)
   - The celestial object shares its story
   - Weave in 1-2 scientific facts poetically (e.g., "I'm so big that 1,300 Earths could fit inside me")
   - Express themes: beauty of nature, connection, dreams, patience, wonder
   - The child and celestial object have a gentle dialogue or shared moment

3. CLOSING (1-2 sentences)
   - Reassuring promise: "I'll be here tomorrow night"
   - Peaceful ending for sleep

4. HAIKU (3 lines)
   - Title the section "Goodnight Haiku" (in {language})
   - Italian: 5-7-5 syllables ±1
   - Other languages: short-long-short rhythm
   - Capture the gentle emotion of the story

STYLE:
- Simple, poetic language for ages 2-8
- Calm, warm, loving tone
- NO fear, violence, sadness, or scary elements
- Natural imagery: sky, stars, light, dreams, gentle wind
- Readable in 60-90 seconds
- Like a lullaby in story form

FORMAT AS MARKDOWN:
# [Beautiful Story Title in {language}]

[Story text flowing naturally, without section headers]

### [Goodnight Haiku Title in {language}]
[haiku line 1]
[haiku line 2]
[haiku line 3]

IMPORTANT:
- Everything in {language} - no mixing languages
- Sweet, magical, reassuring
- Perfect for bedtime
`

const funFactsPromptTemplate = `Write exactly 3 short "Did you know?" facts about {object_name} (a {object_type}) for children aged 4-8.
Each fact is one or two sentences, cheerful, true, and written entirely in {language}.
No fear, violence, sadness, or scary elements.

Output ONLY a JSON object with this exact shape and no text before or after:
{"facts": ["...", "...", "..."]}`

// PromptInput fills the story prompt. Language is the display name
// ("Italiano"), not the code.
type PromptInput struct {
	Object     string
	ObjectType string
	Location   string
	Facts      string
	Language   string
}

// BuildPrompt renders the story prompt for in.
func BuildPrompt(in PromptInput) string {
	return strings.NewReplacer(
		"{object_name}", in.Object,
		"{object_type}", in.ObjectType,
		"{location}", in.Location,
		"{scientific_facts}", in.Facts,
		"{language}", in.Language,
	).Replace(storyPromptTemplate)
}

func buildFunFactsPrompt(object, objectType, language string) string {
	return strings.NewReplacer(
		"{object_name}", object,
		"{object_type}", objectType,
		"{language}", language,
	).Replace(funFactsPromptTemplate)
}
