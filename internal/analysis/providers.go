package analysis

// Default chat-completions endpoints for the built-in providers.
const (
	MistralURL = "https://api.mistral.ai/v1/chat/completions"
	MinimaxURL = "https://api.minimax.chat/v1/text/chatcompletion_v2"
)

// NewMistralProvider returns the primary provider preset.
func NewMistralProvider(apiKey string) *ChatProvider {
	return &ChatProvider{
		ProviderName: "mistral",
		URL:          MistralURL,
		APIKey:       apiKey,
		Model:        "pixtral-12b-2409",
		MaxTokens:    100,
		Temperature:  0.1,
	}
}

// NewMinimaxProvider returns the fallback provider preset. It never sees
// the frame, so the prompt asks for a general assessment.
func NewMinimaxProvider(apiKey, groupID string) *ChatProvider {
	p := &ChatProvider{
		ProviderName: "minimax",
		URL:          MinimaxURL,
		APIKey:       apiKey,
		Model:        "abab6.5s-chat",
		MaxTokens:    100,
		Temperature:  0.1,
		PromptSuffix: " (Image unavailable, give a general tactical assessment.)",
	}
	if groupID != "" {
		p.Headers = map[string]string{"GroupId": groupID}
	}
	return p
}
