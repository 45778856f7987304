package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

// EncodeCanonical serializes a Review with sorted keys, UTF-8, and no
// HTML escaping. Two encodings of the same Review are byte-identical;
// masking generated_at makes two equivalent plans byte-identical.
func EncodeCanonical(review *Review) ([]byte, error) {
	structBytes, err := json.Marshal(review)
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}
	// Round-trip through generic values: encoding/json writes map keys in
	// sorted order, which pins the byte layout.
	var generic any
	if err := json.Unmarshal(structBytes, &generic); err != nil {
		return nil, fmt.Errorf("normalize review: %w", err)
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(generic); err != nil {
		return nil, fmt.Errorf("encode review: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

var generatedAtPattern = regexp.MustCompile(`"generated_at":"[^"]*"`)

// MaskGeneratedAt replaces the generated_at value so plans from different
// instants can be compared byte-for-byte.
func MaskGeneratedAt(encoded []byte) []byte {
	return generatedAtPattern.ReplaceAll(encoded, []byte(`"generated_at":"MASKED"`))
}
