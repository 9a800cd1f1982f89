package bibtex

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/autocite/internal/reference"
)

var (
	// ErrEmptyKey is returned when a key has no alphanumeric characters.
	ErrEmptyKey = errors.New("empty citation key")

	// ErrKeySpaceExhausted is returned when every suffix of a base key is taken.
	ErrKeySpaceExhausted = errors.New("citation key suffixes exhausted")
)

var (
	nonKeyCharRegex = regexp.MustCompile(`[^A-Za-z0-9]+`)
	titleWordRegex  = regexp.MustCompile(`[A-Za-z0-9]+`)
)

// KeyRegistry is the set of citation keys in use during one run: keys of the
// existing corpus plus every key allocated so far. Allocation is sequential;
// a registry must not be shared between goroutines.
type KeyRegistry struct {
	used map[string]bool
}

// NewKeyRegistry creates a registry holding keys.
func NewKeyRegistry(keys ...string) *KeyRegistry {
	r := &KeyRegistry{used: make(map[string]bool, len(keys))}
	for _, k := range keys {
		r.used[k] = true
	}
	return r
}

// Has reports whether key is in use.
func (r *KeyRegistry) Has(key string) bool {
	return r.used[key]
}

// Add marks key as in use.
func (r *KeyRegistry) Add(key string) {
	r.used[key] = true
}

// Len returns the number of keys in use.
func (r *KeyRegistry) Len() int {
	return len(r.used)
}

// Allocate returns key if unused, otherwise the first unused of key+"a",
// key+"b", ... key+"z", then key+"aa" ... key+"zz". The returned key is
// recorded as in use.
func (r *KeyRegistry) Allocate(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	if !r.used[key] {
		r.used[key] = true
		return key, nil
	}
	for _, suffix := range keySuffixes {
		candidate := key + suffix
		if !r.used[candidate] {
			r.used[candidate] = true
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrKeySpaceExhausted, key)
}

// keySuffixes lists "a".."z" followed by "aa".."zz".
var keySuffixes = func() []string {
	var s []string
	for c := 'a'; c <= 'z'; c++ {
		s = append(s, string(c))
	}
	for c1 := 'a'; c1 <= 'z'; c1++ {
		for c2 := 'a'; c2 <= 'z'; c2++ {
			s = append(s, string(c1)+string(c2))
		}
	}
	return s
}()

// MakeKey concatenates author surname, year and title word and strips every
// non-alphanumeric character.
func MakeKey(authorLast, year, titleWord string) string {
	return nonKeyCharRegex.ReplaceAllString(authorLast+year+titleWord, "")
}

// AllocateKey builds a key with MakeKey and allocates it in r.
func AllocateKey(r *KeyRegistry, authorLast, year, titleWord string) (string, error) {
	return r.Allocate(MakeKey(authorLast, year, titleWord))
}

// KeyForRecord builds the base key for a candidate record.
func KeyForRecord(p reference.PaperRecord) string {
	year := ""
	if p.Year > 0 {
		year = fmt.Sprintf("%d", p.Year)
	}
	return MakeKey(FirstAuthorLast(p.Authors), year, FirstTitleWord(p.Title))
}

// FirstAuthorLast returns the first author's surname, or "Unknown".
func FirstAuthorLast(authors []reference.Author) string {
	if len(authors) == 0 {
		return "Unknown"
	}
	last := strings.TrimSpace(authors[0].Last)
	if last == "" {
		return "Unknown"
	}
	return last
}

// FirstTitleWord returns the first alphanumeric word of a title, or "Work".
func FirstTitleWord(title string) string {
	if w := titleWordRegex.FindString(title); w != "" {
		return w
	}
	return "Work"
}
