package dispatcher

import "fmt"

const visionPrompt = `Analyze this image and answer in exactly three lines, with no labels and no extra text:
Line 1: a one or two sentence description of the image.
Line 2: a comma-separated list of categories that fit the image.
Line 3: a comma-separated list of the 5 dominant colors as hex codes.`

const audioPrompt = `Transcribe this audio. Answer in exactly three lines:
**Transcript:** the verbatim transcript in the spoken language
**Language:** the name of the spoken language
**Translation:** an English translation, or leave empty when the audio is already English`

func generatePrompt(userPrompt string) string {
	return fmt.Sprintf(`Generate an image for the following request: %s

Also answer with a short title and description in this form:
**Title:** <title>
**Description:** <description>`, userPrompt)
}
