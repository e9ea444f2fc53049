// Package summarize implements the LLM synthesis contract: SOURCE_ID
// binding, the prompt protocol, structured-output validation with a
// repair-retry ladder, and the post-hoc confidence/priority/redundancy
// derivation.
package summarize

import "context"

// Provider is the narrowed LLM contract this package needs: one
// synchronous structured-generation call, down to the single call shape
// the synthesis prompt protocol requires. The returned token count feeds
// run_stats.llm_tokens_used; a provider that cannot report usage returns 0.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (text string, tokensUsed int, err error)
}
