package splitter

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	s := New()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "empty input",
			in:   "   ",
			want: nil,
		},
		{
			name: "single sentence without terminator",
			in:   "a small brown fox",
			want: []string{"a small brown fox"},
		},
		{
			name: "plain sentences",
			in:   "The fox ran. The dog slept!",
			want: []string{"The fox ran.", "The dog slept!"},
		},
		{
			name: "newlines treated as spaces",
			in:   "The fox\nran home. It was\nlate.",
			want: []string{"The fox ran home.", "It was late."},
		},
		{
			name: "terminator runs stay together",
			in:   "Really?! Yes... maybe.",
			want: []string{"Really?!", "Yes...", "maybe."},
		},
		{
			name: "trailing quote belongs to the sentence",
			in:   `"Stop!" she said.`,
			want: []string{`"Stop!"`, "she said."},
		},
		{
			name: "abbreviation does not split",
			in:   "Mr. Badger waved. Dr. Mole nodded.",
			want: []string{"Mr. Badger waved.", "Dr. Mole nodded."},
		},
		{
			name: "single initial does not split",
			in:   "J. K. wrote the book. It was long.",
			want: []string{"J. K. wrote the book.", "It was long."},
		},
		{
			name: "decimal does not split",
			in:   "It was 3.5 meters tall. Wow.",
			want: []string{"It was 3.5 meters tall.", "Wow."},
		},
		{
			name: "cjk terminators",
			in:   "ねこが走った。いぬは寝た！",
			want: []string{"ねこが走った。", "いぬは寝た！"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Split(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Split(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
