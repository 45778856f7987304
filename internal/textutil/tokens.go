package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// digitWords maps spelled-out numbers to their digit form so "Part Two" and
// "Part 2" fold to the same token.
var digitWords = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"ten": "10", "eleven": "11", "twelve": "12", "thirteen": "13",
	"fourteen": "14", "fifteen": "15", "sixteen": "16", "seventeen": "17",
	"eighteen": "18", "nineteen": "19", "twenty": "20",
}

var apostropheReplacer = strings.NewReplacer(
	"’", "", // right single quotation mark
	"‘", "", // left single quotation mark
	"ʼ", "", // modifier letter apostrophe
	"'", "",
)

// Fold normalizes text for comparison: NFC, lowercase, and apostrophe
// variants removed. Other punctuation is kept; Tokenize splits on it.
func Fold(text string) string {
	text = norm.NFC.String(text)
	text = strings.ToLower(text)
	return apostropheReplacer.Replace(text)
}

// Tokenize splits text into folded comparison tokens. Spelled-out numbers
// up to twenty collapse to digits.
func Tokenize(text string) []string {
	folded := Fold(text)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if digit, ok := digitWords[field]; ok {
			field = digit
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// TitleNorm produces the canonical lookup form of a title: folded tokens
// joined by single spaces. Used as the decision and entity index key.
func TitleNorm(title string) string {
	return strings.Join(Tokenize(title), " ")
}
