package sectclient

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/h2non/filetype"
)

// sniffLen is the header size filetype inspects.
const sniffLen = 261

// ScanResult lists the images found by Scan.
type ScanResult struct {
	Images  []string
	Skipped []string
	// Dropped holds images past the batch cap.
	Dropped []string
}

// Scan expands paths into image files. Directories are walked recursively,
// files whose content is not an image are skipped and anything beyond max
// images is dropped. Results keep the order paths were given in, with
// directory contents sorted by name.
func Scan(paths []string, max int) (ScanResult, error) {
	var res ScanResult
	add := func(p string) error {
		ok, err := isImage(p)
		if err != nil {
			return err
		}
		switch {
		case !ok:
			res.Skipped = append(res.Skipped, p)
		case max > 0 && len(res.Images) >= max:
			res.Dropped = append(res.Dropped, p)
		default:
			res.Images = append(res.Images, p)
		}
		return nil
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return res, err
		}
		if !info.IsDir() {
			if err := add(root); err != nil {
				return res, err
			}
			continue
		}
		var files []string
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return res, err
		}
		sort.Strings(files)
		for _, f := range files {
			if err := add(f); err != nil {
				return res, err
			}
		}
	}
	if len(res.Images) == 0 {
		return res, ErrNoImages
	}
	return res, nil
}

func isImage(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return filetype.IsImage(head[:n]), nil
}
