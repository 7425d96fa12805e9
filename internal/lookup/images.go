package lookup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ImageInfo describes a resolved backup image
type ImageInfo struct {
	Exists       bool
	ResolvedName string
	SizeBytes    int64
}

// BackupImages resolves image filenames against a local backup directory
type BackupImages struct {
	Dir string
}

// NewBackupImages creates a resolver rooted at dir
func NewBackupImages(dir string) *BackupImages {
	return &BackupImages{Dir: dir}
}

// Resolve looks for filename, then for the same stem with alternate extensions.
// A missing image is not an error.
func (b *BackupImages) Resolve(filename string) (ImageInfo, error) {
	if filename == "" {
		return ImageInfo{}, nil
	}

	for _, name := range candidateNames(filename) {
		info, err := os.Stat(filepath.Join(b.Dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return ImageInfo{}, fmt.Errorf("failed to stat image %s: %w", name, err)
		}
		if info.IsDir() {
			continue
		}
		return ImageInfo{Exists: true, ResolvedName: name, SizeBytes: info.Size()}, nil
	}
	return ImageInfo{}, nil
}

// candidateNames lists filename followed by its alternates: .jpg and .jpeg swap, then .tif and .tiff
func candidateNames(filename string) []string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	names := []string{filename}
	switch strings.ToLower(ext) {
	case ".jpg":
		names = append(names, stem+".jpeg")
	case ".jpeg":
		names = append(names, stem+".jpg")
	}
	return append(names, stem+".tif", stem+".tiff")
}

// FilenameFromURI returns the last path segment of an image URI such as ipfs://<cid>/<name>
func FilenameFromURI(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	parts := strings.Split(uri, "/")
	return parts[len(parts)-1]
}
