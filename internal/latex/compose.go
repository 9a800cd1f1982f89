package latex

import "strings"

// Compose adds keys to a sentence: into its last citation command when it
// has one, otherwise as a new \cite before the sentence terminator.
// An empty key list returns the sentence unchanged.
func Compose(sentence string, keys []string) string {
	if HasCite(sentence) {
		return AppendCite(sentence, keys)
	}
	return InsertCite(sentence, keys)
}

// AppendCite merges keys into the last citation command of sentence. The
// command name is kept and already-present keys are never dropped. Without
// an existing command it behaves like InsertCite.
func AppendCite(sentence string, keys []string) string {
	if len(NormalizeKeys(keys)) == 0 {
		return sentence
	}
	spans := ExtractCites(sentence)
	if len(spans) == 0 {
		return InsertCite(sentence, keys)
	}

	last := spans[len(spans)-1]
	combined := NormalizeKeys(append(append([]string{}, last.Keys...), keys...))
	cmd := `\` + last.Command + "{" + strings.Join(combined, ",") + "}"
	return sentence[:last.Start] + cmd + sentence[last.End:]
}

// InsertCite places a new \cite command, separated by one space, before
// the sentence's trailing punctuation, or appends it after trimming trailing
// whitespace when there is none. A sentence that already cites is returned
// unchanged.
func InsertCite(sentence string, keys []string) string {
	keys = NormalizeKeys(keys)
	if len(keys) == 0 || HasCite(sentence) {
		return sentence
	}

	cite := `\cite{` + strings.Join(keys, ",") + "}"
	if m := terminatorRegex.FindStringSubmatchIndex(sentence); m != nil {
		idx := m[2]
		return sentence[:idx] + " " + cite + sentence[idx:]
	}
	return strings.TrimRight(sentence, " \t\r\n") + " " + cite
}
