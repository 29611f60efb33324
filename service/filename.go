package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// StoredNameSeparator joins the owner and the original filename in a stored name
const StoredNameSeparator = "_"

var filenameStripRE = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to a flat ASCII filename that cannot address
// anything outside the storage directory. It may return "".
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	name = strings.Join(strings.Fields(name), "_")
	name = filenameStripRE.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// BuildStoredName is the naming convention that ties a document to its owner
func BuildStoredName(username, originalFilename string) string {
	return SecureFilename(username) + StoredNameSeparator + SecureFilename(originalFilename)
}

// storedNamePrefix is the prefix every stored name of username starts with
func storedNamePrefix(username string) string {
	return SecureFilename(username) + StoredNameSeparator
}

func extensionOf(filename string) (string, bool) {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "", false
	}
	return strings.ToLower(filename[i+1:]), true
}
