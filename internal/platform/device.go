package platform

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DeviceName returns a human-readable name for this machine.
func DeviceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown"
	}
	// Keep only the short host name; FQDNs make app ids unwieldy.
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}

// AppID builds an app id of the form "<device>-<appName>", with a
// zero-padded five digit suffix when id is non-nil.
func AppID(appName string, id *int) string {
	appID := DeviceName() + "-" + appName
	if id == nil {
		return appID
	}
	return fmt.Sprintf("%s-%05d", appID, *id)
}

// NewAppID returns an AppID with a random suffix, for apps that may run
// several instances on one device.
func NewAppID(appName string) string {
	u := uuid.New()
	id := int(binary.BigEndian.Uint32(u[12:16]) % 100000)
	return AppID(appName, &id)
}

// appIDFile holds a generated app id below an app's local directory.
const appIDFile = "app-id"

// LoadOrCreateAppID returns the app id kept in localDir. On first use it
// generates one with NewAppID and stores it, so the id stays the same on
// later runs on this machine.
func LoadOrCreateAppID(localDir Dir, appName string) (string, error) {
	f := localDir.RawFile(appIDFile)
	text, ok, err := f.ReadText()
	if err != nil {
		return "", err
	}
	if ok {
		if id := strings.TrimSpace(text); id != "" {
			return id, nil
		}
	}

	id := NewAppID(appName)
	if err := f.WriteText(id + "\n"); err != nil {
		return "", fmt.Errorf("store app id: %w", err)
	}
	return id, nil
}

// DefaultDecsyncDir returns $DECSYNC_DIR, or ~/DecSync when unset.
func DefaultDecsyncDir() string {
	if dir := os.Getenv("DECSYNC_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "DecSync"
	}
	return filepath.Join(home, "DecSync")
}

// DecsyncSubdir returns the directory for one sync type and optional
// collection below root. An empty collection means none.
func DecsyncSubdir(root Dir, syncType, collection string) Dir {
	d := root.Dir(syncType)
	if collection != "" {
		d = d.Dir(collection)
	}
	return d
}
