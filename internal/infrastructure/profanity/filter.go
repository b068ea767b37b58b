// Package profanity masks banned words in translated text before it is
// voiced. The list is loaded once at startup and immutable afterwards.
package profanity

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

type Filter struct {
	words map[string]struct{}
}

type listFile struct {
	Words []string `yaml:"words"`
}

// Load reads the YAML word list at path. A missing file yields an empty
// filter so the pipeline runs unfiltered rather than failing startup.
func Load(path string) (*Filter, error) {
	if path == "" {
		return &Filter{words: map[string]struct{}{}}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Filter{words: map[string]struct{}{}}, nil
		}
		return nil, fmt.Errorf("read profanity list: %w", err)
	}

	var file listFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse profanity list: %w", err)
	}

	words := make(map[string]struct{}, len(file.Words))
	for _, w := range file.Words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words[w] = struct{}{}
		}
	}
	return &Filter{words: words}, nil
}

// Mask replaces each banned word with asterisks of the same length,
// matching case-insensitively on whole words.
func (f *Filter) Mask(text string) string {
	if len(f.words) == 0 || text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); {
		if !isWordRune(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && isWordRune(runes[j]) {
			j++
		}
		word := string(runes[i:j])
		if _, banned := f.words[strings.ToLower(word)]; banned {
			b.WriteString(strings.Repeat("*", j-i))
		} else {
			b.WriteString(word)
		}
		i = j
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}
