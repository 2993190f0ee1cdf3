package prompt

import (
	"fmt"
	"strings"

	"fishquery-be/internal/constant"
	"fishquery-be/pkg/llm"
	"fishquery-be/pkg/rag/fusion"
)

// Builder assembles the generator's chat history from the system prompt, the
// fused reference material, the prior turns and the current query.
type Builder struct {
	fused   *fusion.Context
	query   string
	history []llm.Message
}

func NewBuilder(fused *fusion.Context, query string, history []llm.Message) *Builder {
	return &Builder{
		fused:   fused,
		query:   query,
		history: history,
	}
}

// Build returns the full message sequence for the generator. An empty fused
// context produces an explicit "no supporting evidence" instruction instead
// of silently omitting the reference block.
func (b *Builder) Build() []llm.Message {
	messages := make([]llm.Message, 0, len(b.history)+3)

	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: constant.SystemPromptV1,
	})

	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: b.referenceBlock(),
	})

	messages = append(messages, b.history...)

	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: b.query,
	})

	return messages
}

func (b *Builder) referenceBlock() string {
	if b.fused == nil || len(b.fused.Items) == 0 {
		return "REFERENCE MATERIAL: none. No supporting regulation text was retrieved for this question; acknowledge that in the answer."
	}

	var sb strings.Builder
	sb.WriteString("REFERENCE MATERIAL (ranked, most relevant first):\n")
	for _, item := range b.fused.Items {
		sb.WriteString(fmt.Sprintf("[%d] (%s) %s\n", item.Position+1, item.Source, item.Payload))
	}
	if b.fused.Unreranked {
		sb.WriteString("Note: ranking is approximate for this set.\n")
	}
	return sb.String()
}
