// internal/workers/ai/llm-generate/models.go
package llmgenerate

type Input struct {
	Prompt string `json:"prompt"`
}

type Output struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
