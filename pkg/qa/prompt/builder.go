// Package prompt renders the generation templates for each query category.
// Templates are bilingual by instruction: the model mirrors the language of
// the question (Arabic or English) rather than us maintaining two copies.
package prompt

import (
	"strings"

	"ai-helpdesk-be/pkg/llm"
)

const assistantIdentity = "You are the helpdesk assistant. You answer questions in Arabic or English, always in the language the user wrote in."

// BuildGreeting renders the minimal template for greeting queries. No
// history, no reference material: greetings are context-free.
func BuildGreeting(query string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString(assistantIdentity)
	prompt.WriteString("\nThe user sent a greeting. Reply with a short, warm greeting and offer to help.\n")
	prompt.WriteString("Do not invent any facts. One or two sentences at most.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<user_message>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_message>\n\n")
	prompt.WriteString("Reply:")

	return prompt.String()
}

// BuildCalculation renders the template for arithmetic queries. Like
// greetings these are context-free, so no history rides along.
func BuildCalculation(query string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString(assistantIdentity)
	prompt.WriteString("\nThe user asked for a calculation. Compute it step by step and end with the final numeric result.\n")
	prompt.WriteString("Numbers may use Western (123) or Arabic-Indic (١٢٣) digits; ÷ and × are division and multiplication.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<user_message>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_message>\n\n")
	prompt.WriteString("Reply:")

	return prompt.String()
}

// BuildSmallTalk renders the template for identity and small-talk queries.
// Recent history is included when available so follow-ups read naturally.
func BuildSmallTalk(query string, history []llm.Message) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString(assistantIdentity)
	prompt.WriteString("\nThe user is making small talk or asking about you. Answer briefly and honestly:\n")
	prompt.WriteString("you are an automated assistant for this helpdesk, you search the knowledge base and answer questions.\n")
	prompt.WriteString("Do not claim abilities you do not have.\n")
	prompt.WriteString("</task>\n\n")

	writeHistory(&prompt, history)

	prompt.WriteString("<user_message>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_message>\n\n")
	prompt.WriteString("Reply:")

	return prompt.String()
}

// ContextualBuilder assembles the retrieval-branch prompt from the reranked
// context block, the conversation history, and the query.
type ContextualBuilder struct {
	query        string
	contextBlock string
	history      []llm.Message
}

// NewContextualBuilder creates a prompt builder for the retrieval branch.
func NewContextualBuilder(query string, contextBlock string, history []llm.Message) *ContextualBuilder {
	return &ContextualBuilder{
		query:        query,
		contextBlock: contextBlock,
		history:      history,
	}
}

// Build renders the grounded prompt. The history section appears only when
// there is history to show; a first-turn prompt carries no empty scaffolding.
func (b *ContextualBuilder) Build() string {
	var prompt strings.Builder

	b.writeReferenceMaterial(&prompt)
	writeHistory(&prompt, b.history)
	b.writeTask(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *ContextualBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	prompt.WriteString("<reference_material>\n")
	prompt.WriteString(b.contextBlock)
	prompt.WriteString("\n</reference_material>\n\n")
}

func (b *ContextualBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString(assistantIdentity)
	prompt.WriteString("\nAnswer the user's question using ONLY the reference material above.\n")
	prompt.WriteString("\n")
	prompt.WriteString("Rules:\n")
	prompt.WriteString("1. Base the answer strictly on the reference material. No outside knowledge.\n")
	prompt.WriteString("2. If the material does not contain the answer, say so honestly.\n")
	prompt.WriteString("3. Answer in the language of the question.\n")
	prompt.WriteString("4. Be complete but concise; lead with the answer, then supporting detail.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *ContextualBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Answer:")
}

// writeHistory emits the conversation block, or nothing when history is
// empty. Callers rely on that: templates only reference the conversation
// when one exists.
func writeHistory(prompt *strings.Builder, history []llm.Message) {
	if len(history) == 0 {
		return
	}

	prompt.WriteString("<conversation_history>\n")
	for _, msg := range history {
		prompt.WriteString(msg.Role)
		prompt.WriteString(": ")
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</conversation_history>\n\n")
}
