package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"segrag/internal/rse"
)

// Answer generates an answer to the question grounded in the evidence
// segments, via an OpenAI-compatible chat completions endpoint.
func (a *App) Answer(ctx context.Context, question string, evidence []rse.Evidence) (string, error) {
	prompt := a.buildAnswerPrompt(question, evidence)
	return a.queryLLM(ctx, prompt)
}

// queryLLM sends a prompt to the configured chat endpoint.
func (a *App) queryLLM(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": a.cfg.LlmMain.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  a.cfg.MaxTokens,
		"temperature": a.cfg.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := a.cfg.LlmMain.URL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if a.cfg.LlmMain.Key != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.LlmMain.Key)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("LLM returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return response.Choices[0].Message.Content, nil
}

// buildAnswerPrompt assembles the question and evidence under the prompt
// token budget. Evidence comes in value order, so when the budget runs out
// the least valuable segments are the ones dropped.
func (a *App) buildAnswerPrompt(question string, evidence []rse.Evidence) string {
	var buf strings.Builder

	buf.WriteString("You are a careful assistant. Answer the question using only the evidence excerpts below. ")
	buf.WriteString("If the evidence is insufficient, say so.\n\n")
	buf.WriteString("Question:\n<<<\n")
	buf.WriteString(question)
	buf.WriteString("\n>>>\n\nEvidence:\n")

	const tailReserve = 50 // room for the closing instruction
	budget := a.cfg.MaxPromptTokens - a.countTokens(buf.String()) - tailReserve

	for i, ev := range evidence {
		entry := fmt.Sprintf("%d. [%s, chunks %d-%d] (value: %.2f)\n<<<\n%s\n>>>\n\n",
			i+1, ev.DocID, ev.Start, ev.End-1, ev.Value, ev.Text)
		cost := a.countTokens(entry)
		if cost > budget {
			break
		}
		buf.WriteString(entry)
		budget -= cost
	}

	buf.WriteString("Answer concisely and cite the evidence numbers you used.\n")
	return buf.String()
}

// countTokens falls back to a rough character estimate when the encoder
// could not be initialized.
func (a *App) countTokens(text string) int {
	if a.encoder == nil {
		return len(text) / 4
	}
	return len(a.encoder.Encode(text, nil, nil))
}
