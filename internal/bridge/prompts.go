package bridge

import (
	"fmt"

	"receptionist-platform/internal/business"
)

// apologyLine is spoken intent for unrecoverable mid-call failures; with
// the backend down we cannot synthesize it, so it is logged for the
// operator notice instead.
const apologyLine = "I apologize, but I'm experiencing technical difficulties right now. Our team has your phone number and will call you back shortly."

// instructionsFor builds the session instructions. A business can override
// the whole prompt; otherwise a generic receptionist prompt is derived
// from the profile.
func instructionsFor(p business.Profile) string {
	if p.Instructions != "" {
		return p.Instructions
	}

	agent := p.AgentName
	if agent == "" {
		agent = "Alex"
	}
	name := p.Name
	if name == "" {
		name = "the office"
	}

	return fmt.Sprintf(`You are %s, a helpful AI receptionist for %s.

Start by greeting the caller: "Hi, thanks for calling %s! I'm %s. How can I help you today?"

Your job:
- Answer questions about the business.
- Offer appointment times using the scheduling tools and book the one the caller agrees to.
- Ask for the caller's name and email address when booking; repeat the email back normally and confirm it before moving on.
- If the caller wants the free trial, send the trial link by text.
- If you cannot help, take a message with the message tools.

Keep responses to one or two sentences. Ask one question at a time. Never invent appointment times; always use the tools.`, agent, name, name, agent)
}
