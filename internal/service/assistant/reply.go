package assistant

import (
	"fmt"

	"github.com/buger/jsonparser"
)

// FallbackReply is shown when the endpoint answers with none of the known fields.
const FallbackReply = "I apologize, but I received an unexpected response format."

// replyFields lists the response fields tried in order.
var replyFields = []string{"message", "response", "content"}

// ExtractReply pulls the assistant text out of a JSON object body.
// The first non-empty string among replyFields wins; otherwise FallbackReply.
func ExtractReply(body []byte) (string, error) {
	if err := jsonparser.ObjectEach(body, func([]byte, []byte, jsonparser.ValueType, int) error {
		return nil
	}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	for _, field := range replyFields {
		value, err := jsonparser.GetString(body, field)
		if err != nil || value == "" {
			continue
		}
		return value, nil
	}
	return FallbackReply, nil
}
