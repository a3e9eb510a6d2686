// Package checksum computes a SHA-256 over the concatenated contents of every
// file under a directory whose name ends with a given suffix.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultSuffix selects Go source files.
const DefaultSuffix = ".go"

// DefaultAnchor is the file expected at the repository root.
const DefaultAnchor = "go.mod"

// ErrNotRoot is returned when Root does not contain the Anchor file.
var ErrNotRoot = errors.New("checksum must run in the repository root")

// DefaultExclude returns the directory names skipped while walking.
func DefaultExclude() []string {
	return []string{".git"}
}

// Options configures Compute.
type Options struct {
	// Root is the directory to walk. Empty means ".".
	Root string
	// Suffix selects files by name. Empty means DefaultSuffix.
	Suffix string
	// Anchor, when set, must exist directly inside Root.
	Anchor string
	// Exclude lists directory names that are not descended into.
	// Nil means DefaultExclude; an empty slice excludes nothing.
	Exclude []string
}

// Summary is the result of Compute.
type Summary struct {
	// Files are the hashed paths relative to Root, slash-separated, in hash order.
	Files []string
	// Bytes is the total number of bytes hashed.
	Bytes int64
	// Sum is the lower-case hex SHA-256.
	Sum string
}

// Compute hashes the concatenation of every matching file in lexicographic
// path order. No matching files hashes the empty input.
func Compute(opts Options) (*Summary, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	suffix := opts.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	exclude := opts.Exclude
	if exclude == nil {
		exclude = DefaultExclude()
	}

	if opts.Anchor != "" {
		info, err := os.Stat(filepath.Join(root, opts.Anchor))
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: %s not found in %s", ErrNotRoot, opts.Anchor, root)
		}
	}

	files, err := collect(root, suffix, exclude)
	if err != nil {
		return nil, err
	}

	hash := sha256.New()
	var total int64
	for _, rel := range files {
		n, err := appendFile(hash, filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		total += n
	}

	return &Summary{
		Files: files,
		Bytes: total,
		Sum:   hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func collect(root, suffix string, exclude []string) ([]string, error) {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	files := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func appendFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return n, nil
}
