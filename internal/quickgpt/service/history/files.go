package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kiosk404/quickgpt/internal/quickgpt/pkg/errno"
)

// SessionFile describes a history file found on disk.
type SessionFile struct {
	ID      string
	Path    string
	Size    int64
	ModTime time.Time
}

// ListFiles scans dir for session files, newest first.
func ListFiles(dir string) ([]SessionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history dir: %w", err)
	}

	var files []SessionFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != FileExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, SessionFile{
			ID:      strings.TrimSuffix(e.Name(), FileExt),
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	// IDs start with a timestamp, so name order is creation order.
	sort.Slice(files, func(i, j int) bool { return files[i].ID > files[j].ID })
	return files, nil
}

// Resolve finds a session file from an ID, a file name, or a path.
func Resolve(dir, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty session reference", errno.ErrSessionNotFound)
	}
	candidates := []string{ref}
	if !filepath.IsAbs(ref) {
		candidates = append(candidates, filepath.Join(dir, ref))
	}
	if filepath.Ext(ref) != FileExt {
		candidates = append(candidates, filepath.Join(dir, ref+FileExt))
	}
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", errno.ErrSessionNotFound, ref)
}
