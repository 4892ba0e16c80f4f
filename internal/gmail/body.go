package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
)

// extractBodies walks the MIME tree and returns the first text/plain and
// text/html parts. Attachments are skipped.
func extractBodies(part *gmailapi.MessagePart) (plain, html string, err error) {
	if part == nil {
		return "", "", nil
	}

	mimeType := strings.ToLower(part.MimeType)
	if part.Filename == "" && part.Body != nil && part.Body.Data != "" {
		switch {
		case strings.HasPrefix(mimeType, "text/plain"):
			plain, err = decodeBody(part.Body.Data)
			if err != nil {
				return "", "", err
			}
		case strings.HasPrefix(mimeType, "text/html"):
			html, err = decodeBody(part.Body.Data)
			if err != nil {
				return "", "", err
			}
		}
	}

	for _, child := range part.Parts {
		p, h, childErr := extractBodies(child)
		if childErr != nil {
			return "", "", childErr
		}
		if plain == "" {
			plain = p
		}
		if html == "" {
			html = h
		}
		if plain != "" && html != "" {
			break
		}
	}

	return plain, html, nil
}

// decodeBody decodes Gmail's base64url data, padded or not.
func decodeBody(data string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(decoded), nil
}
