package reader

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

const defaultEncoding = "utf-8"

// DecodeText decodes a text record. Encoding labels are resolved the way a
// browser TextDecoder resolves them; an empty label means UTF-8.
func DecodeText(rec Record) (string, error) {
	label := strings.TrimSpace(rec.Encoding)
	if label == "" {
		label = defaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("unsupported record encoding %q: %w", rec.Encoding, err)
	}
	out, err := enc.NewDecoder().Bytes(rec.Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode record: %w", err)
	}
	return string(out), nil
}
