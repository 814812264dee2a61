package platform

import (
	"net/url"
	"strings"
)

// EncodeName makes an app id, sync type or collection name safe to use as a
// single path element. Separators and '%' are percent-encoded, and a leading
// '.' is encoded so names never become hidden files or "..".
func EncodeName(name string) string {
	encoded := url.PathEscape(name)
	if strings.HasPrefix(encoded, ".") {
		encoded = "%2E" + encoded[1:]
	}
	return encoded
}

// DecodeName reverses EncodeName.
func DecodeName(name string) (string, error) {
	return url.PathUnescape(name)
}
