package builtin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kiosk404/quickgpt/internal/quickgpt/service/tools"
)

// Workspace resolves tool paths against a root directory.
// Absolute paths are used as given.
type Workspace struct {
	root string
}

func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workdir %s: %w", root, err)
	}
	return &Workspace{root: abs}, nil
}

func (w *Workspace) Root() string { return w.root }

func (w *Workspace) resolve(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "." {
		return w.root
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(w.root, p)
}

// FileInfo is what get_file_info reports.
type FileInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	Mode    string    `json:"mode"`
	ModTime time.Time `json:"mod_time"`
	IsDir   bool      `json:"is_dir"`
}

// contains reports whether target is the workspace root or one of its ancestors.
func (w *Workspace) contains(target string) bool {
	rel, err := filepath.Rel(target, w.root)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func pathParam(desc string) tools.ParameterDef {
	return tools.ParameterDef{Name: "path", Type: "string", Description: desc, Required: true}
}

func srcDstParams(verb string) []tools.ParameterDef {
	return []tools.ParameterDef{
		{Name: "src", Type: "string", Description: "Path of the item to " + verb, Required: true},
		{Name: "dst", Type: "string", Description: "Destination path", Required: true},
	}
}

func (w *Workspace) definitions() []tools.ToolDefinition {
	return []tools.ToolDefinition{
		{
			Name:        "create_folder",
			Description: "Create a folder, including any missing parent folders.",
			Parameters:  []tools.ParameterDef{pathParam("Folder to create")},
			Handler:     w.createFolder,
		},
		{
			Name:        "list_directory",
			Description: "List the entries of a directory. Folders are marked [DIR], files [FILE].",
			Parameters:  []tools.ParameterDef{pathParam("Directory to list")},
			Handler:     w.listDirectory,
		},
		{
			Name:        "delete_item",
			Description: "Delete a file or a folder with everything inside it.",
			Parameters:  []tools.ParameterDef{pathParam("File or folder to delete")},
			Handler:     w.deleteItem,
		},
		{
			Name:        "rename_item",
			Description: "Rename a file or folder. A bare dst name keeps the item in its current folder.",
			Parameters:  srcDstParams("rename"),
			Handler:     w.renameItem,
		},
		{
			Name:        "move_file",
			Description: "Move a file or folder to a new location, creating the destination folder if needed.",
			Parameters:  srcDstParams("move"),
			Handler:     w.moveFile,
		},
		{
			Name:        "read_file",
			Description: "Read a text file and return its content.",
			Parameters:  []tools.ParameterDef{pathParam("File to read")},
			Handler:     w.readFile,
		},
		{
			Name:        "write_file",
			Description: "Write content to a file, replacing what was there. Missing folders are created.",
			Parameters: []tools.ParameterDef{
				pathParam("File to write"),
				{Name: "content", Type: "string", Description: "Text to write", Required: true},
			},
			Handler: w.writeFile,
		},
		{
			Name:        "get_file_info",
			Description: "Return name, size, permissions, modification time and whether the path is a folder.",
			Parameters:  []tools.ParameterDef{pathParam("File or folder to inspect")},
			Handler:     w.getFileInfo,
		},
		{
			Name:        "get_current_directory",
			Description: "Return the directory relative paths are resolved against.",
			Handler:     w.getCurrentDirectory,
		},
		{
			Name:        "create_file",
			Description: "Create a new empty file. Fails if the file already exists.",
			Parameters:  []tools.ParameterDef{pathParam("File to create")},
			Handler:     w.createFile,
		},
	}
}

func (w *Workspace) createFolder(_ context.Context, params map[string]interface{}) (interface{}, error) {
	p, err := tools.StringArg(params, "path")
	if err != nil {
		return nil, err
	}
	target := w.resolve(p)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Successfully created folder: %s", target), nil
}

func (w *Workspace) listDirectory(_ context.Context, params map[string]interface{}) (interface{}, error) {
	target := w.resolve(tools.OptionalString(params, "path", "."))
	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return fmt.Sprintf("Directory %s is empty.", target), nil
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	var sb strings.Builder
	for _, e := range entries {
		if e.IsDir() {
			sb.WriteString("[DIR] ")
		} else {
			sb.WriteString("[FILE] ")
		}
		sb.WriteString(e.Name())
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (w *Workspace) deleteItem(_ context.Context, params map[string]interface{}) (interface{}, error) {
	p, err := tools.StringArg(params, "path")
	if err != nil {
		return nil, err
	}
	target := w.resolve(p)
	if w.contains(target) {
		return nil, fmt.Errorf("refusing to delete %s: it contains the workspace root", target)
	}
	if _, err := os.Lstat(target); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(target); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Successfully deleted: %s", target), nil
}

func (w *Workspace) renameItem(_ context.Context, params map[string]interface{}) (interface{}, error) {
	src, dst, err := srcDst(params)
	if err != nil {
		return nil, err
	}
	from := w.resolve(src)
	to := w.resolve(dst)
	if !strings.ContainsRune(dst, filepath.Separator) && !filepath.IsAbs(dst) {
		to = filepath.Join(filepath.Dir(from), dst)
	}
	if err := rename(from, to); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Successfully renamed %s to %s", from, to), nil
}

func (w *Workspace) moveFile(_ context.Context, params map[string]interface{}) (interface{}, error) {
	src, dst, err := srcDst(params)
	if err != nil {
		return nil, err
	}
	from := w.resolve(src)
	to := w.resolve(dst)
	if st, err := os.Stat(to); err == nil && st.IsDir() {
		to = filepath.Join(to, filepath.Base(from))
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return nil, err
	}
	if err := rename(from, to); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Successfully moved %s to %s", from, to), nil
}

func (w *Workspace) readFile(_ context.Context, params map[string]interface{}) (interface{}, error) {
	p, err := tools.StringArg(params, "path")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(w.resolve(p))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (w *Workspace) writeFile(_ context.Context, params map[string]interface{}) (interface{}, error) {
	p, err := tools.StringArg(params, "path")
	if err != nil {
		return nil, err
	}
	content, err := tools.StringArg(params, "content")
	if err != nil {
		return nil, err
	}
	target := w.resolve(p)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), target), nil
}

func (w *Workspace) getFileInfo(_ context.Context, params map[string]interface{}) (interface{}, error) {
	p, err := tools.StringArg(params, "path")
	if err != nil {
		return nil, err
	}
	target := w.resolve(p)
	st, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	return FileInfo{
		Name:    st.Name(),
		Path:    target,
		Size:    st.Size(),
		Mode:    st.Mode().String(),
		ModTime: st.ModTime(),
		IsDir:   st.IsDir(),
	}, nil
}

func (w *Workspace) getCurrentDirectory(context.Context, map[string]interface{}) (interface{}, error) {
	return w.root, nil
}

func (w *Workspace) createFile(_ context.Context, params map[string]interface{}) (interface{}, error) {
	p, err := tools.StringArg(params, "path")
	if err != nil {
		return nil, err
	}
	target := w.resolve(p)
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("file already exists: %s", target)
		}
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Successfully created file: %s", target), nil
}

func srcDst(params map[string]interface{}) (string, string, error) {
	src, err := tools.StringArg(params, "src")
	if err != nil {
		return "", "", err
	}
	dst, err := tools.StringArg(params, "dst")
	if err != nil {
		return "", "", err
	}
	return src, dst, nil
}

func rename(from, to string) error {
	if _, err := os.Lstat(from); err != nil {
		return err
	}
	if _, err := os.Lstat(to); err == nil {
		return fmt.Errorf("destination already exists: %s", to)
	}
	return os.Rename(from, to)
}
