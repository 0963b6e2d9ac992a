// Package scanner finds method descriptions and graph snapshots in a
// directory tree. It respects .vcfgignore files with gitignore-style
// patterns.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo represents a discovered file.
type FileInfo struct {
	Path     string // Relative path from root
	FullPath string // Absolute path
	Kind     Kind
	Size     int64
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	DefaultExcludes []string // Directory names never entered
	IgnoreFileName  string   // Name of the ignore file (default: .vcfgignore)
	Kinds           []Kind   // Kinds to report; empty means every known kind
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: ".vcfgignore",
		DefaultExcludes: []string{
			".git",
			".hg",
			".svn",
			"node_modules",
			"vendor",
			"testdata",
		},
	}
}

// Scanner walks directory trees.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks root and returns every file of a wanted kind, sorted by path.
// Ignore files are read from root and from every directory entered; their
// patterns apply below the directory that holds them.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	ignores := map[string][]IgnorePattern{}
	var files []FileInfo

	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return err
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." {
				if s.skipDir(d.Name()) || s.ignored(rel, true, ignores) {
					return filepath.SkipDir
				}
			}
			patterns, err := s.loadIgnorePatterns(path)
			if err != nil {
				return fmt.Errorf("loading ignore patterns: %w", err)
			}
			if len(patterns) > 0 {
				ignores[rel] = patterns
			}
			return nil
		}

		if s.opts.SkipHidden && isHidden(d.Name()) {
			return nil
		}
		kind := DetectKind(d.Name())
		if !s.wants(kind) || s.ignored(rel, false, ignores) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:     rel,
			FullPath: path,
			Kind:     kind,
			Size:     fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Scanner) skipDir(name string) bool {
	if s.opts.SkipHidden && isHidden(name) {
		return true
	}
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

func (s *Scanner) wants(kind Kind) bool {
	if kind == KindUnknown {
		return false
	}
	if len(s.opts.Kinds) == 0 {
		return true
	}
	for _, k := range s.opts.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ignored applies the patterns of every directory above rel, outermost
// first, so that deeper files can re-include what a parent excluded.
func (s *Scanner) ignored(rel string, isDir bool, ignores map[string][]IgnorePattern) bool {
	result := false
	dirs := append([]string{"."}, ancestors(rel)...)
	for _, dir := range dirs {
		patterns := ignores[dir]
		if len(patterns) == 0 {
			continue
		}
		sub := rel
		if dir != "." {
			sub = strings.TrimPrefix(rel, dir+"/")
		}
		for _, p := range patterns {
			if p.Match(sub, isDir) {
				result = !p.IsNegation()
			}
		}
	}
	return result
}

// ancestors returns the proper ancestor directories of rel, outermost first.
func ancestors(rel string) []string {
	parts := strings.Split(rel, "/")
	var res []string
	for i := 1; i < len(parts); i++ {
		res = append(res, strings.Join(parts[:i], "/"))
	}
	return res
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func (s *Scanner) loadIgnorePatterns(dir string) ([]IgnorePattern, error) {
	if s.opts.IgnoreFileName == "" {
		return nil, nil
	}
	f, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line))
	}
	return patterns, sc.Err()
}

// Scan scans root with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}

// Expand resolves command line arguments to files of the given kind. Plain
// files are kept as given; directories are scanned.
func Expand(args []string, kind Kind) ([]string, error) {
	opts := DefaultOptions()
	opts.Kinds = []Kind{kind}
	s := New(opts)

	var res []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			res = append(res, arg)
			continue
		}
		files, err := s.Scan(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			res = append(res, filepath.Join(arg, filepath.FromSlash(f.Path)))
		}
	}
	return res, nil
}
