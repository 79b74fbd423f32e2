package llm

import (
	"fmt"
	"strings"
)

// System prompts
const (
	AgentSystemPrompt = `You are the assistant inside Levrix, a CRM for real estate agents.
Be professional, helpful and concise. Never invent facts about a property or a buyer.`

	ValidatorSystemPrompt = `You are an API validator for real estate software.
You check whether credentials look plausible for their provider. You never call the provider.`
)

// PriorityPrompt asks for a single 0-100 number
func PriorityPrompt(name, stage, property, notes string) string {
	return fmt.Sprintf(`Analyze this real estate lead and give a priority score 0-100.
Name: %s
Stage: %s
Property: %s
Notes: %s
Return ONLY a number.`, name, stage, property, notes)
}

// ComposePrompt drafts a bulk-personalizable outreach message
func ComposePrompt(channel, name, status, notes string) string {
	if strings.TrimSpace(notes) == "" {
		notes = "No previous notes"
	}
	return fmt.Sprintf(`Draft a professional %s outreach for a lead.
Lead Name: %s
Current Status: %s
Notes: %s
Tone: Professional, helpful, concise.
Context: Follow up on their interest and suggest a brief call.
IMPORTANT: Use the placeholder {{name}} for the recipient's name so I can bulk personalize it.`, channel, name, status, notes)
}

// NextStepPrompt asks for a follow-up suggestion
func NextStepPrompt(name, property, notes string) string {
	return fmt.Sprintf(`Context: Real Estate Lead. Name: %s, Property: %s. Notes: %s. Generate a professional next-step suggestion.`,
		name, property, notes)
}

// VoiceNotePrompt accompanies a recorded call summary
const VoiceNotePrompt = "Extract real estate lead details: interaction summary, next follow-up task, and sentiment. Return JSON."

// InsightPrompt asks for three plain-paragraph tactics
func InsightPrompt(total, won, critical int) string {
	return fmt.Sprintf(`Analyze this real estate pipeline: %d total leads, %d won, %d at risk.
Provide 3 high-impact tactical suggestions for the agent.

CRITICAL FORMATTING RULES:
Write in clear, professional paragraphs.
DO NOT use numbers, bullet points, or any markdown symbols like asterisks or hashes.
Use full words for numbers where possible.
Each suggestion should be a concise paragraph of professional advice.
Avoid headers entirely.`, total, won, critical)
}

// ValidatePrompt asks the model to judge credential formats
func ValidatePrompt(service, data string) string {
	return fmt.Sprintf(`Review these credentials for %s: %s.
Check if the formats look plausible for the provider.
If the keys are explicitly "test", "demo", or standard placeholder formats, return valid: true but with a note about it being a simulated connection.
Return JSON ONLY: {"valid": boolean, "error": string}.`, service, data)
}

// FabricateLeadPrompt asks for one sample lead from an ad platform
func FabricateLeadPrompt(platform string) string {
	return fmt.Sprintf("Provide 1 new mock lead for %s in JSON format.", platform)
}

// EmailCheckPrompt asks whether an address is deliverable
func EmailCheckPrompt(email string) string {
	return fmt.Sprintf(`Is this email address likely to be real and deliverable for a real estate buyer inquiry? %q
Consider disposable domains, keyboard mashing, role accounts and obvious placeholders.
Return JSON ONLY: {"valid": boolean, "reason": string}.`, email)
}

// MarketingImagePrompt describes the listing photo to render
func MarketingImagePrompt(description string) string {
	return fmt.Sprintf(`A photorealistic, high-end architectural shot of this property: %s. Luxury real estate magazine style, evening twilight lighting, wide-angle lens, professional staging. Landscape 16:9 aspect ratio.`, description)
}

// MarketingCopyPrompt asks for social and flyer copy
func MarketingCopyPrompt(description string) string {
	return fmt.Sprintf(`Create marketing assets for this property: %s.
Provide:
an Instagram caption (ig),
a Facebook post (fb),
a LinkedIn professional update (li),
and formal flyer text with a headline, a body and 5 key features.
Format as JSON.`, description)
}
