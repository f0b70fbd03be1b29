package summary

import (
	"fmt"
	"strings"
)

const structureSystemPrompt = `You are an expert assistant for gathering information on construction and remodeling projects (kitchens, bathrooms, etc.).
Your task is to IMPROVE the transcribed text of an audio recording: do not summarize or shorten it. Preserve every piece of information the client communicates.
MANDATORY:
1) CLASSIFY the information into logical sections. Section titles must be in English. Examples: SPACE DIMENSIONS, APPLIANCES AND EQUIPMENT, FURNITURE / CABINETRY, MATERIALS AND FINISHES, ROOM FEATURES, ADDITIONAL NOTES. Use only those that apply.
2) ALWAYS present the content as a LIST under each section. Every fact or idea must be a list item starting with "- ".
3) Section titles in UPPERCASE, without symbols (#). One blank line between sections.
4) ALWAYS answer in English. If the transcript is in another language, translate it to English preserving data and measurements. Do not invent data or measurements.
5) Plain text only (no Markdown, tables, JSON or HTML).`

func structureUserPrompt(transcript string) string {
	return strings.Join([]string{
		"Organize the following audio transcription for information gathering.",
		"",
		"Requirements:",
		"- Include ALL information from the text; do not summarize or omit data.",
		"- CLASSIFY the content into sections (e.g. dimensions, equipment, materials, features). Use section titles in English.",
		`- Write each piece of data or observation as a list item ("- "). No loose paragraphs; everything in lists under its section.`,
		"- Improve wording and clarity if needed, without changing the meaning.",
		"- Output MUST be entirely in English (translate from the source language if necessary).",
		"- Respond only with the organized text, no introduction or extra comments.",
		"",
		"Transcribed text:",
		"<<<\n" + transcript + "\n>>>",
	}, "\n")
}

const expandSystemPrompt = "You are an expert writing assistant. Rewrite summaries strictly following the user instructions. " +
	"Always output IN ENGLISH, translating if needed. Preserve fidelity, do not invent facts."

func expandUserPrompt(target int, sourceSample, current string) string {
	return strings.Join([]string{
		"Goal: Rewrite and expand the following summary to meet these rules:",
		fmt.Sprintf("- Minimum length: %d characters (aim for ~60%%-80%% of the source length when possible).", target),
		"- Language: Output MUST be ENGLISH only. Translate if required with high fidelity.",
		"- Content: preserve facts, do not invent. Elaborate on existing ideas with explicit details.",
		"- Style: clear, structured, and readable. Use paragraphs and concise lists where appropriate.",
		"",
		"Output format (important):",
		`- SECTION TITLES IN UPPERCASE, without any "#" prefix.`,
		"- Leave one blank line between sections.",
		`- Use lists with "- " for items, and numbering like "1)", "2)" when applicable.`,
		"- Do not use advanced Markdown, tables, JSON, or HTML. Plain structured text only.",
		"- Do not wrap the output in quotes or add extra commentary.",
		"",
		"Source text (sample for context):",
		"<<<\n" + sourceSample + "\n>>>",
		"",
		"Current summary:",
		"<<<\n" + current + "\n>>>",
		"",
		"Respond ONLY with the new summary, following the requested format, without preambles or explanations.",
	}, "\n")
}
