// Package vault is the local-folder capability markdown projects are synced
// into. Paths are always relative to the vault root.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
)

var ErrOutsideVault = errors.New("path escapes the vault")

// Vault reads and writes files below a root directory
type Vault struct {
	fs afero.Fs
}

// New returns a vault rooted at dir on the OS filesystem
func New(dir string) *Vault {
	return NewWithFs(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// NewWithFs returns a vault over an arbitrary filesystem
func NewWithFs(fsys afero.Fs) *Vault {
	return &Vault{fs: fsys}
}

// Read returns the text content of name
func (v *Vault) Read(name string) (string, error) {
	p, err := clean(name)
	if err != nil {
		return "", err
	}
	data, err := afero.ReadFile(v.fs, p)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

// Write replaces the content of name, creating parent directories
func (v *Vault) Write(name, text string) error {
	p, err := clean(name)
	if err != nil {
		return err
	}
	if dir := path.Dir(p); dir != "." {
		if err := v.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(v.fs, p, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// SaveBinary writes data to subfolder/name and returns the relative path.
// An existing file with the same name is not overwritten; a numeric suffix
// is added instead.
func (v *Vault) SaveBinary(subfolder, name string, data []byte) (string, error) {
	dir, err := clean(subfolder)
	if err != nil {
		return "", err
	}
	if err := v.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", subfolder, err)
	}

	base := path.Base(name)
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	rel := path.Join(dir, base)
	for i := 1; ; i++ {
		_, err := v.fs.Stat(rel)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", rel, err)
		}
		rel = path.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}

	if err := afero.WriteFile(v.fs, rel, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return rel, nil
}

// Exists reports whether name exists in the vault
func (v *Vault) Exists(name string) bool {
	p, err := clean(name)
	if err != nil {
		return false
	}
	ok, _ := afero.Exists(v.fs, p)
	return ok
}

func clean(name string) (string, error) {
	p := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		p = "."
	}
	if strings.HasPrefix(name, "..") || strings.Contains(name, "/../") {
		return "", fmt.Errorf("%s: %w", name, ErrOutsideVault)
	}
	return p, nil
}
