package provider

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject decodes the outermost JSON object embedded in free-form
// model output into v. Markdown fences and surrounding prose are tolerated.
// Any failure is a malformed_response ProviderError attributed to provider.
func ExtractJSONObject(provider, text string, v interface{}) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return malformed(provider, "no JSON object in response")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return malformed(provider, "invalid JSON object: "+err.Error())
	}
	return nil
}
