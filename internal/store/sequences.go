package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/decsync/internal/platform"
)

// ErrMalformedSequences indicates a sequences file that is not a JSON object
// of integers. The read still returns a usable empty map.
var ErrMalformedSequences = errors.New("malformed sequences file")

// Sequences maps bucket hash to write generation.
type Sequences map[string]int

// LocalSequences maps remote app id to the generations already consumed.
type LocalSequences map[string]Sequences

// Get returns the consumed generation for (appID, hash), 0 when absent.
func (l LocalSequences) Get(appID, hash string) int {
	return l[appID][hash]
}

// Set records generation seq as consumed for (appID, hash).
func (l LocalSequences) Set(appID, hash string, seq int) {
	inner, ok := l[appID]
	if !ok {
		inner = make(Sequences)
		l[appID] = inner
	}
	inner[hash] = seq
}

// ReadSequences reads an app's own sequences file.
// A missing file yields an empty map and no error.
func ReadSequences(file platform.File) (Sequences, error) {
	seqs := make(Sequences)
	if err := readJSON(file, &seqs); err != nil {
		return make(Sequences), err
	}
	if seqs == nil {
		seqs = make(Sequences)
	}
	return seqs, nil
}

// WriteSequences replaces the contents of file with seqs.
func WriteSequences(file platform.File, seqs Sequences) error {
	return writeJSON(file, seqs)
}

// ReadLocalSequences reads the local consumption file.
// A missing file yields an empty map and no error.
func ReadLocalSequences(file platform.File) (LocalSequences, error) {
	seqs := make(LocalSequences)
	if err := readJSON(file, &seqs); err != nil {
		return make(LocalSequences), err
	}
	if seqs == nil {
		seqs = make(LocalSequences)
	}
	for appID, inner := range seqs {
		if inner == nil {
			seqs[appID] = make(Sequences)
		}
	}
	return seqs, nil
}

// WriteLocalSequences replaces the contents of file with seqs.
func WriteLocalSequences(file platform.File, seqs LocalSequences) error {
	return writeJSON(file, seqs)
}

func readJSON(file platform.File, dst any) error {
	text, ok, err := file.ReadText()
	if err != nil {
		return fmt.Errorf("read sequences: %w", err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedSequences, file.Path(), err)
	}
	return nil
}

func writeJSON(file platform.File, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode sequences: %w", err)
	}
	if err := file.WriteText(string(data)); err != nil {
		return fmt.Errorf("write sequences: %w", err)
	}
	return nil
}
