package entry

import (
	"errors"
	"fmt"

	"github.com/roach88/decsync/internal/value"
)

// ErrMalformedLine indicates a bucket file line that is not a valid entry.
// Callers skip such lines and continue with the next one.
var ErrMalformedLine = errors.New("malformed entry line")

// ToLine encodes e as one line of canonical JSON:
//
//	[path-segment, ..., key, datetime, value]
//
// Encoding an unchanged entry always yields the same bytes.
func (e EntryWithPath) ToLine() (string, error) {
	arr := make(value.Array, 0, len(e.Path)+3)
	for _, segment := range e.Path {
		arr = append(arr, value.String(segment))
	}
	arr = append(arr, e.Entry.Key, value.String(e.Entry.Datetime), e.Entry.Value)

	data, err := value.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("encode entry %s: %w", e.Path, err)
	}
	return string(data), nil
}

// ParseLine decodes a line produced by ToLine.
// Returns an error wrapping ErrMalformedLine for anything else.
func ParseLine(line string) (EntryWithPath, error) {
	v, err := value.Parse([]byte(line))
	if err != nil {
		return EntryWithPath{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}

	arr, ok := v.(value.Array)
	if !ok {
		return EntryWithPath{}, fmt.Errorf("%w: not a JSON array", ErrMalformedLine)
	}
	if len(arr) < 3 {
		return EntryWithPath{}, fmt.Errorf("%w: expected at least 3 elements, got %d", ErrMalformedLine, len(arr))
	}

	n := len(arr) - 3
	path := make(Path, 0, n)
	for i, elem := range arr[:n] {
		segment, ok := elem.(value.String)
		if !ok {
			return EntryWithPath{}, fmt.Errorf("%w: path segment %d is not a string", ErrMalformedLine, i)
		}
		path = append(path, string(segment))
	}

	datetime, ok := arr[n+1].(value.String)
	if !ok {
		return EntryWithPath{}, fmt.Errorf("%w: datetime is not a string", ErrMalformedLine)
	}

	return EntryWithPath{
		Path: path,
		Entry: Entry{
			Key:      arr[n],
			Datetime: string(datetime),
			Value:    arr[n+2],
		},
	}, nil
}

// FromLine is like ParseLine but reports failure as false instead of an error.
func FromLine(line string) (EntryWithPath, bool) {
	e, err := ParseLine(line)
	if err != nil {
		return EntryWithPath{}, false
	}
	return e, true
}

// ToLines encodes every entry.
func ToLines(entries []EntryWithPath) ([]string, error) {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line, err := e.ToLine()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}
