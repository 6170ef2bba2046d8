package vault

import (
	"fmt"
	"path"
	"strings"
)

// Every backend lays objects out the same way:
//
//	archives/<name>              archive objects
//	metadata/<hostID>/<name>     per-host metadata items
const (
	archivePrefix  = "archives/"
	metadataPrefix = "metadata/"
)

// archivePath validates an archive name and returns its cloud path.
func archivePath(name string) (string, error) {
	if name == "" || strings.Contains(name, "\\") || path.IsAbs(name) || path.Clean(name) != name || strings.HasPrefix(name, "..") {
		return "", fmt.Errorf("invalid archive name %q", name)
	}
	return archivePrefix + name, nil
}

func metadataPath(hostID, name string) (string, error) {
	for _, part := range []string{hostID, name} {
		if part == "" || strings.ContainsAny(part, "/\\") || part == "." || part == ".." {
			return "", fmt.Errorf("invalid metadata key %q/%q", hostID, name)
		}
	}
	return metadataPrefix + hostID + "/" + name, nil
}
