package engine

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/decsync/internal/platform"
)

// Version is the directory layout version this package reads and writes.
const Version = 2

const infoFile = ".decsync-info"

type decsyncInfo struct {
	Version *int `json:"version"`
}

// CheckDecsyncInfo verifies that decsyncDir uses a supported layout. A
// missing .decsync-info is created announcing Version.
func CheckDecsyncInfo(decsyncDir platform.Dir) error {
	file := decsyncDir.RawFile(infoFile)
	text, ok, err := file.ReadText()
	if err != nil {
		return err
	}
	if !ok {
		data, err := json.Marshal(map[string]int{"version": Version})
		if err != nil {
			return err
		}
		return file.WriteText(string(data))
	}

	var info decsyncInfo
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInfo, err)
	}
	if info.Version == nil {
		return fmt.Errorf("%w: missing version", ErrMalformedInfo)
	}
	if *info.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, *info.Version)
	}
	return nil
}
