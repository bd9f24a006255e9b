package llm

import (
	"encoding/json"
	"strings"

	"github.com/ledgerlens/ledgerlens/internal/common"
)

// cleanMarkdownWrapper strips markdown code fences that models sometimes
// wrap around JSON despite instructions not to.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx >= 0 {
			content = content[idx+1:]
		} else {
			content = strings.TrimPrefix(content, "```json")
			content = strings.TrimPrefix(content, "```")
		}
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	return strings.TrimSpace(content)
}

// parseClassification extracts a single classification from raw model output.
func parseClassification(content string) (ClassificationResponse, error) {
	var jsonResp struct {
		Category    string   `json:"category"`
		Subcategory string   `json:"subcategory,omitempty"`
		Reasoning   []string `json:"reasoning"`
		Confidence  float64  `json:"confidence"`
	}

	content = cleanMarkdownWrapper(content)

	if err := json.Unmarshal([]byte(content), &jsonResp); err != nil {
		return ClassificationResponse{}, common.NewValidationError("malformed classification JSON", err)
	}

	if jsonResp.Category == "" {
		return ClassificationResponse{}, common.NewValidationError("no category in classification response", nil)
	}
	if jsonResp.Confidence < 0 || jsonResp.Confidence > 1 {
		return ClassificationResponse{}, common.NewValidationError("confidence outside [0,1]", nil)
	}

	return ClassificationResponse{
		Category:    jsonResp.Category,
		Subcategory: jsonResp.Subcategory,
		Confidence:  jsonResp.Confidence,
		Reasoning:   jsonResp.Reasoning,
	}, nil
}

// parseBatch extracts a bulk classification response from raw model output.
func parseBatch(content string) (BatchResponse, error) {
	content = cleanMarkdownWrapper(content)

	var resp BatchResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return BatchResponse{}, common.NewValidationError("malformed batch JSON", err)
	}

	if len(resp.Classifications) == 0 {
		return BatchResponse{}, common.NewValidationError("no classifications in batch response", nil)
	}
	for _, c := range resp.Classifications {
		if c.TransactionID == "" {
			return BatchResponse{}, common.NewValidationError("batch entry missing transaction_id", nil)
		}
		if c.Category == "" {
			return BatchResponse{}, common.NewValidationError("batch entry missing category", nil)
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			return BatchResponse{}, common.NewValidationError("batch entry confidence outside [0,1]", nil)
		}
	}

	return resp, nil
}
