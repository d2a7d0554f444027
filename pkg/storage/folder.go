package storage

import (
	"strings"

	"github.com/gosimple/slug"
	"museumscraper/pkg/models"
)

// DefaultUnsortedFolder holds images whose author is unknown
const DefaultUnsortedFolder = "unsorted"

// FolderName transliterates an author name to a lower-case, dash separated
// Latin folder name. The mapping is deterministic. An empty or untranslatable
// author maps to unsorted.
func FolderName(author, unsorted string) string {
	if unsorted == "" {
		unsorted = DefaultUnsortedFolder
	}
	name := slug.Make(strings.TrimSpace(author))
	if name == "" {
		return unsorted
	}
	return name
}

// ImageFileName is the file an object's image is stored under
func ImageFileName(id models.ObjectID) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(id.String())
	return safe + ".jpg"
}
