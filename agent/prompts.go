package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nholmst/ragent/core"
)

// planPreviewLen bounds the portion of the plan echoed into the message log.
const planPreviewLen = 200

// analyzeSystemPrompt builds the instruction set for the retrieval decision.
// The policy biases toward retrieving when the query is ambiguous.
func analyzeSystemPrompt(persona string) string {
	return fmt.Sprintf(`You are analyzing queries for %[1]s's personal AI assistant.
Users will ask questions directly to %[1]s using "you", "your", etc.

Return "yes" if the query is about:
- Personal details (age, location, background, family) - e.g. "How old are you?", "Where do you live?"
- Skills, experience, or work history - e.g. "What's your experience?", "What do you do?"
- Education, projects, achievements - e.g. "What did you study?", "Your projects?"
- CV or resume information - e.g. "Your qualifications?"
- Contact information - e.g. "How can I contact you?"
- Any specific facts, preferences, or characteristics
- Questions using "you", "your", "yours" referring to personal information
- Questions mentioning %[1]s by name

Return "no" ONLY if the query is:
- General knowledge questions not about personal information
- Pure greetings like "hello" or "hi"
- Questions about how the AI system works
- Requests for general help not related to personal information

When in doubt, return "yes" - it's better to search than miss information.

Only respond with "yes" or "no".`, persona)
}

// planSystemPrompt is the instruction set for the planning stage.
const planSystemPrompt = `You are an AI assistant helping to plan responses.
Based on the user query and any retrieved context, create a brief plan
for how to answer the user's question.

The plan should:
1. Identify the key points to address
2. Note which information from the context is most relevant
3. Suggest the tone and structure of the response
4. Flag any missing information

Keep the plan concise and actionable.`

// generateSystemPrompt builds the persona instruction set for the final answer.
func generateSystemPrompt(persona string) string {
	return fmt.Sprintf(`You ARE %[1]s speaking directly to visitors on your portfolio website.
Answer questions about yourself in FIRST PERSON using "I", "my", "me".

Important instructions:
- Speak AS %[1]s, not about %[1]s
- Use "I have" NOT "%[1]s has"
- Use "my experience" NOT "%[1]s's experience"
- Be friendly, professional, and personable
- Use the context provided to give accurate information about yourself
- If you don't have specific information, say "I haven't included that information"

Response style:
- Conversational and welcoming
- Professional but approachable
- Be genuine and authentic

Language: Respond in the same language as the question.`, persona)
}

// analyzeUserPrompt builds the user content for the analysis stage.
func analyzeUserPrompt(query string) string {
	return "Query: " + query
}

// planUserPrompt builds the user content for the planning stage,
// numbering each retrieved document with its relevance score.
func planUserPrompt(query string, context []*core.SearchResult) string {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(query)
	if len(context) > 0 {
		b.WriteString("\n\nRelevant information from knowledge base:\n")
		for i, doc := range context {
			fmt.Fprintf(&b, "\n%d. %s (relevance: %.2f)", i+1, doc.Text, doc.Similarity)
		}
	}
	return b.String()
}

// generateUserPrompt builds the user content for the final generation stage.
func generateUserPrompt(query string, context []*core.SearchResult, plan string) string {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(query)
	if len(context) > 0 {
		b.WriteString("\n\nRelevant information:\n")
		for _, doc := range context {
			fmt.Fprintf(&b, "- %s\n", doc.Text)
			for key, value := range doc.Metadata {
				fmt.Fprintf(&b, "  %s: %s\n", key, value)
			}
		}
	}
	b.WriteString("\nResponse plan: ")
	b.WriteString(plan)
	b.WriteString("\n\nPlease provide a helpful response to the user's query.")
	return b.String()
}

// planPreview truncates a plan for inclusion in the message log.
func planPreview(plan string) string {
	return truncate(plan, planPreviewLen)
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
