package pathfetch

import (
	"context"
	"net/url"
	"os"

	"github.com/karrick/godirwalk"

	"github.com/tileflow/streamcore/cmn"
)

// FileBackend fetches file:// URIs and bare paths from local disk.
type FileBackend struct{}

func NewFileBackend() *FileBackend { return &FileBackend{} }

func (FileBackend) FetchBytes(_ context.Context, u *url.URL) ([]byte, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cmn.NewIoError("404 not found", err)
		}
		return nil, cmn.NewIoError("local read failed", err)
	}
	return data, nil
}

// EnumerateStreamingAssets walks root once at mount time and returns
// every regular file path beneath it, using godirwalk for the fast
// (no per-entry lstat) directory walk the teacher's fs package relies on
// (spec §4.J: the streaming-assets base is a platform-supplied directory
// whose contents are typically enumerated once up front).
func EnumerateStreamingAssets(root string) ([]string, error) {
	var files []string
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsRegular() {
				files = append(files, path)
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, cmn.NewIoError("streaming-assets enumeration failed", err)
	}
	return files, nil
}
