package openai

import (
	"fmt"
	"strings"
)

// maxPromptCandidates bounds the candidate list embedded in the prompt.
const maxPromptCandidates = 50

const correctionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "city": {
      "type": "string"
    },
    "confidence": {
      "type": "integer",
      "minimum": 1,
      "maximum": 10
    }
  },
  "required": ["city", "confidence"],
  "additionalProperties": false
}`

const correctionPromptTemplate = `You identify which city a user means. The user text may be misspelled, abbreviated,
written in another script (Cyrillic or Latin transliteration), or use an old or local name.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "city" is the city name as it is commonly written in its own country.
- Confidence is an integer from 1 (wild guess) to 10 (certain).
- If the text does not name a city, return {"city":"","confidence":1}.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.
%s
Example (misspelled):
Input: "Masqva"
Output:
{"city":"Moscow","confidence":9}

Example (transliterated):
Input: "Sankt-Peterburg"
Output:
{"city":"Saint Petersburg","confidence":10}

Example (old name):
Input: "alma ata"
Output:
{"city":"Almaty","confidence":8}`

// buildSystemPrompt creates the system prompt, restricting answers to
// candidates when any are given.
func buildSystemPrompt(candidates []string) string {
	var restriction string
	if len(candidates) > 0 {
		if len(candidates) > maxPromptCandidates {
			candidates = candidates[:maxPromptCandidates]
		}
		restriction = fmt.Sprintf("- \"city\" must be exactly one of: %s.\n", strings.Join(candidates, ", "))
	}
	return fmt.Sprintf(correctionPromptTemplate, correctionResponseSchema, restriction)
}
