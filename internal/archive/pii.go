package archive

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?[0-9]{2,4}\)?[-.\s]?[0-9]{3,5}[-.\s]?[0-9]{4}`)
)

// HashEmail returns the hex-encoded SHA-256 hash of a normalized email
// address so transcripts can be correlated without storing the address.
func HashEmail(email string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("%x", h)
}

// ScrubPII replaces emails with [EMAIL] and phone numbers with [PHONE].
// Names are kept so transcripts stay readable for staff review.
func ScrubPII(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = phoneRe.ReplaceAllString(text, "[PHONE]")
	return text
}

// ScrubMessages applies PII scrubbing to all transcript turns in-place.
func ScrubMessages(msgs []Message) {
	for i := range msgs {
		msgs[i].Body = ScrubPII(msgs[i].Body)
	}
}
