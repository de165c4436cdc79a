package teambattle

import "strings"

const wordSeparator = "/"

// DefaultWords is used when a battle is created without its own list
const DefaultWords = "apple/house/cat/sun/tree/boat/guitar/rocket/umbrella/snowman/bicycle/castle"

// ParseWordList builds a list from words joined by "/", blank entries are skipped
func ParseWordList(description string) WordList {
	var words []string
	for _, w := range strings.Split(description, wordSeparator) {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}

	return WordList{words: words}
}

// WordList hands out drawing topics in order and wraps around when it runs out.
// The zero value is empty, Next on an empty list returns "".
type WordList struct {
	words []string
	next  int
}

func (l *WordList) Next() string {
	if len(l.words) == 0 {
		return ""
	}

	w := l.words[l.next]
	l.next = (l.next + 1) % len(l.words)

	return w
}

func (l WordList) Len() int {
	return len(l.words)
}

// String is the stored form, the inverse of ParseWordList
func (l WordList) String() string {
	return strings.Join(l.words, wordSeparator)
}

// isGuessCorrect compares a guess with the topic ignoring case and surrounding spaces
func isGuessCorrect(guess, topic string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(topic))
}
