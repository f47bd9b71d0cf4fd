// Package inbox imports bank statement exports dropped into a directory.
// Files are fingerprinted by size and modification time so each version of
// a file is ingested once.
package inbox

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions maps a file extension to the parser format that reads it.
var Extensions = map[string]string{
	".csv": "csv",
	".sms": "sms",
	".txt": "sms",
}

// File is a statement export found in the inbox.
type File struct {
	Path    string
	Format  string
	MtimeNs int64
	Size    int64
}

// Scan walks dir and returns every file with a known extension, sorted by
// path. A missing dir yields no files.
func Scan(dir string) ([]File, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []File
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		format, ok := Extensions[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}
		files = append(files, File{
			Path:    path,
			Format:  format,
			MtimeNs: fi.ModTime().UnixNano(),
			Size:    fi.Size(),
		})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}
