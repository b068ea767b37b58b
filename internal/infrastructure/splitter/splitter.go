// Package splitter segments paragraph text into sentences. It understands
// both Latin terminators and CJK full-width punctuation so the same splitter
// serves source and target languages.
package splitter

import (
	"strings"
	"unicode"
)

type SentenceSplitter struct{}

func New() *SentenceSplitter {
	return &SentenceSplitter{}
}

// abbreviations whose trailing period does not end a sentence.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "st": {}, "jr": {}, "sr": {},
	"prof": {}, "vs": {}, "etc": {}, "no": {}, "vol": {},
}

// Split returns the sentences of text in order. Empty input yields nil.
// Newlines inside a paragraph are treated as plain whitespace.
func (s *SentenceSplitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var sentences []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		if runes[i] == '.' && !periodEndsSentence(runes, i) {
			continue
		}

		// Swallow runs of terminators ("?!", "...") and trailing quotes
		// or closing brackets.
		end := i + 1
		for end < len(runes) && isTerminator(runes[end]) {
			end++
		}
		for end < len(runes) && isTrailing(runes[end]) {
			end++
		}

		if sentence := normalize(runes[start:end]); sentence != "" {
			sentences = append(sentences, sentence)
		}
		i = end - 1
		start = end
	}

	if sentence := normalize(runes[start:]); sentence != "" {
		sentences = append(sentences, sentence)
	}
	return sentences
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '…':
		return true
	default:
		return false
	}
}

func isTrailing(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', ')', ']', '」', '』', '〉', '》':
		return true
	default:
		return false
	}
}

// periodEndsSentence guards decimals ("3.5"), initials ("J. K.") and common
// abbreviations ("Mr.").
func periodEndsSentence(runes []rune, i int) bool {
	if i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
		return false
	}

	wordStart := i
	for wordStart > 0 && (unicode.IsLetter(runes[wordStart-1]) || unicode.IsDigit(runes[wordStart-1])) {
		wordStart--
	}
	word := string(runes[wordStart:i])
	if len(word) == 1 && unicode.IsUpper(runes[wordStart]) {
		return false
	}
	if _, ok := abbreviations[strings.ToLower(word)]; ok {
		return false
	}
	return true
}

func normalize(runes []rune) string {
	return strings.Join(strings.Fields(string(runes)), " ")
}
