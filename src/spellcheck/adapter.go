package spellcheck

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const languageToolEndpoint = "https://api.languagetool.org/v2/check"

// LanguageToolAdapter checks words against the LanguageTool HTTP API, consulting the
// built-in dictionary first.
type LanguageToolAdapter struct {
	endpoint string
	client   *http.Client
	fastDict map[string]struct{}
}

// NewLanguageToolAdapter creates an adapter for the public LanguageTool endpoint.
func NewLanguageToolAdapter() *LanguageToolAdapter {
	return NewLanguageToolAdapterWithEndpoint(languageToolEndpoint, &http.Client{Timeout: 5 * time.Second})
}

// NewLanguageToolAdapterWithEndpoint targets a custom LanguageTool server.
func NewLanguageToolAdapterWithEndpoint(endpoint string, client *http.Client) *LanguageToolAdapter {
	dict := make(map[string]struct{}, len(defaultDictionary))
	for _, w := range defaultDictionary {
		dict[strings.ToLower(w)] = struct{}{}
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &LanguageToolAdapter{endpoint: endpoint, client: client, fastDict: dict}
}

type ltResponse struct {
	Matches []struct {
		Replacements []struct {
			Value string `json:"value"`
		} `json:"replacements"`
	} `json:"matches"`
}

// Check validates a word. Network or decoding failures count as correct so that an
// unreachable server never blocks the user.
func (a *LanguageToolAdapter) Check(word string) (bool, []string) {
	if a == nil {
		return true, nil
	}
	w := strings.ToLower(word)
	if _, ok := a.fastDict[w]; ok {
		return true, nil
	}

	resp, err := a.client.PostForm(a.endpoint, url.Values{"text": {word}, "language": {"en-US"}})
	if err != nil {
		slog.Debug("languagetool request failed", "word", word, "error", err)
		return true, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Debug("languagetool returned status", "word", word, "status", resp.StatusCode)
		return true, nil
	}

	var res ltResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return true, nil
	}
	if len(res.Matches) == 0 {
		return true, nil
	}
	var suggestions []string
	for _, repl := range res.Matches[0].Replacements {
		suggestions = append(suggestions, repl.Value)
	}
	return false, suggestions
}
