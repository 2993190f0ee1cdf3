package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

// Source tags carried on retrieval candidates. Order here is also the fusion
// tie-break priority.
const (
	CandidateSourceVector = "vector"
	CandidateSourceGraph  = "graph"
	CandidateSourceGeo    = "geo"
)

const (
	// ConversationTitleMaxLen clamps auto-generated titles.
	ConversationTitleMaxLen = 50
)

// SystemPromptV1 primes the generator for the fisheries regulation domain.
const SystemPromptV1 = `You are FishQuery, an assistant answering questions about recreational and commercial fisheries regulation.
Answer using the provided reference material when it is present. Cite boundary names, species rules and document passages naturally.
If no reference material is provided, say that no supporting regulation text was found and answer from general knowledge, clearly marked as such.
Never invent closure dates, bag limits or boundaries.`
