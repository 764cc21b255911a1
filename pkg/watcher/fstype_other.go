//go:build !linux

package watcher

// DetectFilesystemType returns FSTypeUnknown outside Linux; fsnotify is
// tried first and polling is the fallback if it fails.
func DetectFilesystemType(path string) FilesystemType {
	return FSTypeUnknown
}
