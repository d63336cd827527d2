package agent

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

var alphabetic = regexp.MustCompile(`^[a-zA-Z]+$`)

// Validator decides whether a normalized query word is acceptable.
type Validator interface {
	Valid(word string) bool
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(word string) bool

// Valid implements Validator.
func (f ValidatorFunc) Valid(word string) bool { return f(word) }

// Alphabetic accepts words made only of ASCII letters.
func Alphabetic() Validator {
	return ValidatorFunc(func(word string) bool {
		return alphabetic.MatchString(word)
	})
}

// WordList accepts alphabetic words present in a known vocabulary.
type WordList struct {
	words map[string]struct{}
}

// LoadWordList reads a newline-delimited word list from path.
func LoadWordList(path string) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()
	return ReadWordList(f)
}

// ReadWordList reads one word per line. Blank lines are ignored and words are
// normalized the same way queries are.
func ReadWordList(r io.Reader) (*WordList, error) {
	wl := &WordList{words: make(map[string]struct{})}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := etymology.NormalizeWord(sc.Text())
		if w == "" {
			continue
		}
		wl.words[w] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return wl, nil
}

// Len returns the number of distinct words.
func (wl *WordList) Len() int { return len(wl.words) }

// Valid implements Validator.
func (wl *WordList) Valid(word string) bool {
	if !alphabetic.MatchString(word) {
		return false
	}
	_, ok := wl.words[word]
	return ok
}
