package openai

import "fmt"

const sentimentSystemPrompt = `You are a narration director for a children's storybook reader. ` +
	`Given one sentence, describe how it should be read aloud. ` +
	`Answer with short English adjective phrases: "tone" for the voice color, ` +
	`"emotion" for the feeling carried, and "pacing" for the reading speed.`

func translationSystemPrompt(targetLang string) string {
	return fmt.Sprintf(`You are translating a children's storybook. `+
		`The user message contains a [CURRENT] sentence, optionally preceded by `+
		`[PREVIOUS] and followed by [NEXT] siblings. Translate only the [CURRENT] `+
		`sentence into %s as a single fluent sentence suited to reading aloud to a `+
		`child. Use the siblings for pronoun resolution and narrative flow only; `+
		`never include them in the output.`, targetLang)
}
