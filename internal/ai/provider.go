// Package ai wraps the chat-completion providers. A provider receives an
// ordered role-tagged message sequence and returns generated text; the
// persona system prompt is prepended here so callers only hand over the
// conversation itself.
package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)

	// GenerateTitle summarizes the first user message into a short chat
	// title. Callers treat failure as non-fatal and keep the placeholder.
	GenerateTitle(ctx context.Context, firstMessage string) (string, error)
}

// systemPrompt is the assistant persona sent ahead of every conversation.
const systemPrompt = `You are RizzGPT, an AI-powered dating and relationship assistant. You provide helpful, respectful, and practical advice about dating, relationships, social interactions, and communication skills.

Your responses should be:
- Supportive and encouraging
- Practical and actionable
- Respectful and appropriate
- Focused on building genuine connections
- Emphasizing consent, respect, and healthy relationships

Avoid:
- Manipulative tactics or "pickup artist" techniques
- Disrespectful or objectifying language
- Encouraging dishonesty or deception
- Inappropriate or explicit content

Keep responses conversational and helpful, like a knowledgeable friend giving advice.`

// titlePrompt drives the title-summarization variant.
const titlePrompt = "Generate a short, descriptive title (max 6 words) for a chat conversation based on the first user message. Focus on the main topic or question."

func withSystemPrompt(messages []Message) []Message {
	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: "system", Content: systemPrompt})
	out = append(out, messages...)
	return out
}
