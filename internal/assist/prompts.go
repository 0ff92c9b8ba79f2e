package assist

import (
	"fmt"
	"strings"

	"github.com/idilsaglam/journal/internal/model"
)

// DefaultSummaryInstruction is used when the caller gives no instruction.
const DefaultSummaryInstruction = "Summarize the content of the log(s)."

const summarySystemPrompt = `You are a helpful assistant that summarizes personal journal logs.

Output format constraints:
- Only use basic Markdown features:
  - Plain paragraphs.
  - Bullet lists using '-' or '*'.
  - Numbered lists like '1.', '2.', etc.
  - Simple headings using '# ' or '## '.
- Do NOT use tables, images, HTML tags, footnotes, or links.
- Avoid fenced code blocks; if quoting text, use inline quotes or indented lines.
- Do not include any YAML front matter.

Content requirements:
- Base your response only on the provided log text.
- Do not invent details that are not supported by the logs.
- Follow any user instruction in the prompt. If no clear instruction is given, summarize the content.
- Focus on the main events, feelings, and themes in the logs.`

const tagsSystemPrompt = `Task: From the provided journal log content, select zero or more relevant tags from the allowed set.

Rules:
- Only select from the allowedTags list provided. Do not invent new tags.
- If no tags clearly apply, return an empty list.
- There is no limit on how many tags you may select, as long as they are clearly relevant.
- Base your choices strictly on the provided content (title/description/body).
- Do not recommend tags solely based on their names. Ensure the tag's description matches the content.

Output requirements:
- Return only valid JSON.
- JSON fields: selected = array of tag names (strings).
- Each name must match exactly one of the allowedTags names.`

var sentimentSystemPrompt = buildSentimentPrompt()

func buildSentimentPrompt() string {
	quoted := make([]string, len(model.EmotionLabels))
	for i, l := range model.EmotionLabels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	var b strings.Builder
	b.WriteString(`Task: Perform sentiment analysis on the provided personal journal log content.

Output requirements:
- Return only valid JSON.
- The JSON must be an object mapping each emotion label to a numeric score.
- For each emotion in emotionLabels:
  - The key MUST be the emotion label.
  - The value MUST be a number. If the intensity of an emotion can be determined, score it from 1.0 to 10.0 (decimals allowed).
  - If a score cannot be decided because of limited information, or the emotion is irrelevant to the text, give -1.
  - Do NOT give -1 solely because an emotion is absent; use -1 only when a score cannot be properly determined.
  General scoring guideline:
    1  - Extremely minimal or absent.
    2  - Very mild; faint emotional tone.
    3  - Mild; present but not disruptive.
    4  - Noticeable; clearly felt but manageable.
    5  - Moderate; balanced expression with some internal tension.
    6  - Strong; significantly influences mood or tone.
    7  - Very strong; dominates current thoughts.
    8  - Intense; overwhelming or hard to regulate.
    9  - Extreme; overtakes reasoning or control.
    10 - Maximum intensity; fully consumes attention.
- Evaluate strictly from the text provided. Do not infer beyond the text.
- Do not include explanations in the JSON output.

Safety requirement:
- Additionally, include these keys in the JSON object:
  - riskToSelf: boolean.
  - riskSeveritySelf: number from 0 to 10.
  - riskToOthers: boolean.
  - riskSeverityOthers: number from 0 to 10.
- If the content indicates potential risk of self-harm set riskToSelf=true and grade riskSeveritySelf:
  0 no distress; 3 noticeable emotional pain without suicidal thinking; 5 passive ideation without plan;
  7 considering methods abstractly; 9 active intent with a plan; 10 immediate danger.
- If the content indicates potential risk of harming others set riskToOthers=true and grade riskSeverityOthers:
  0 no aggression; 3 hostile tone, purely verbal; 5 abstract or hypothetical violence;
  7 specific people or situations contemplated; 9 stated plan to harm; 10 imminent explicit threat.
- If no indication is present, set riskToSelf=false, riskSeveritySelf=0, riskToOthers=false, riskSeverityOthers=0.
- Do not provide advice or instructions; return classification only.

emotionLabels:
`)
	b.WriteString("[" + strings.Join(quoted, ",") + "]")
	return b.String()
}

func formatLog(l *model.Log) string {
	parts := []string{"Log name: " + l.Name}
	if l.Description != "" {
		parts = append(parts, "", "Description:", l.Description)
	}
	if l.Body != "" {
		parts = append(parts, "", "Body:", l.Body)
	}
	return strings.Join(parts, "\n")
}

func summaryUserPrompt(logs []*model.Log, instruction string) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = DefaultSummaryInstruction
	}
	parts := []string{"Instruction: " + instruction, ""}
	if len(logs) == 1 {
		parts = append(parts, "The following is a single log entry:", "", formatLog(logs[0]))
		return strings.Join(parts, "\n")
	}
	parts = append(parts, fmt.Sprintf("The following are %d log entries. Use them all when responding to the instruction above.", len(logs)))
	for i, l := range logs {
		parts = append(parts, "", fmt.Sprintf("=== Log %d ===", i+1), formatLog(l))
	}
	return strings.Join(parts, "\n")
}

func tagsUserPrompt(l *model.Log, tags []model.Tag) string {
	lines := []string{"allowedTags:"}
	for _, t := range tags {
		desc := t.Description
		if desc == "" {
			desc = "(no description provided)"
		}
		lines = append(lines, fmt.Sprintf("- name: %s\n  description: %s", t.Name, desc))
	}
	return strings.Join(lines, "\n") + "\n\n" + formatLog(l)
}
