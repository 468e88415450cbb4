package summarizer

import (
	"github.com/kgraptor/engine/prompts"
)

// layerPromptTemplate returns the base prompt template for layer,
// generalizing the teacher's single DefaultSummaryPromptTmpl
// (prompts/default_prompts.go) into one template per layer mode.
func layerPromptTemplate(layer Layer) *prompts.PromptTemplate {
	switch layer {
	case LayerDetails:
		return prompts.NewPromptTemplate(detailsPromptTmpl, prompts.PromptTypeSummary)
	case LayerBullets:
		return prompts.NewPromptTemplate(bulletsPromptTmpl, prompts.PromptTypeSummary)
	case LayerKeywords:
		return prompts.NewPromptTemplate(keywordsPromptTmpl, prompts.PromptTypeSummary)
	default:
		return prompts.NewPromptTemplate(prompts.DefaultSummaryPromptTmpl, prompts.PromptTypeSummary)
	}
}

const (
	detailsPromptTmpl = `Here is the content of a section:

{context_str}

Write a detailed summary that preserves the section's specific facts, names, and figures. Do not copy sentences verbatim; restate them in your own words.

DETAILED SUMMARY:`

	bulletsPromptTmpl = `Here is the content of a section:

{context_str}

Summarize the key points as a bulleted list. Every line must start with "- ". Do not copy sentences verbatim.

BULLETS:`

	keywordsPromptTmpl = `Here is the content of a section:

{context_str}

List the key topics and named entities of the section as a short comma-separated phrase, not a sentence copied from the text.

KEYWORDS:`

	rewriteSuffixTmpl = `

Your previous answer below copied too much of the source text verbatim instead of abstracting it. Rewrite it as an original abstraction that does not reuse the source's phrasing, headings, or sentence structure:

PREVIOUS ANSWER:
%s`

	compressionSuffixTmpl = `

Your previous answer was cut off before it finished. Rewrite it as a single complete summary that fits within the requested length:

PREVIOUS ANSWER:
%s`

	bulletRewriteSuffix = "\n\nReformat your previous answer as a bulleted list where every line starts with \"- \"."
)

func buildPrompt(layer Layer, contextStr string) string {
	return layerPromptTemplate(layer).Format(map[string]string{"context_str": contextStr})
}
