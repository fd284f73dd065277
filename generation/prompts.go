package generation

import "fmt"

const EnhanceSystemPrompt = `You are a prompt enhancement specialist. The user wants to make changes to their website. Enhance their request to be more specific and actionable for a web developer.

Enhance this by:
1. Being specific about what elements to change
2. Mentioning design details (colors, spacing, sizes)
3. Clarifying the desired outcome
4. Using clear technical terms

Return ONLY the enhanced request, nothing else. Keep it concise (1-2 sentences).`

const CodeSystemPrompt = `You are an expert web developer.

CRITICAL REQUIREMENTS:
- Return ONLY the complete updated HTML code with the requested changes.
- Use Tailwind CSS for ALL styling (NO custom CSS).
- Use Tailwind utility classes for all styling changes.
- Include all JavaScript in <script> tags before closing </body>
- Make sure it's a complete, standalone HTML document with Tailwind CSS
- Return the HTML Code Only, nothing else

Apply the requested changes while maintaining the Tailwind CSS styling approach.`

func EnhanceUserPrompt(instruction string) string {
	return fmt.Sprintf("user request: \"%s\"", instruction)
}

// CodeUserPrompt embeds the whole current document; there is no diffing.
func CodeUserPrompt(currentCode, instruction string) string {
	return fmt.Sprintf("Here is the current HTML code of the website: \"%s\" The user wants this change: \"%s\"",
		currentCode, instruction)
}
