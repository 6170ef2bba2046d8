//go:build !unix

package database

import "os"

// checkWritable creates a temporary file where access(2) is unavailable.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".bt-catalog-writable-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
