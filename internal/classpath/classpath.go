// Package classpath locates compiled class bytes by internal type name in
// class directories and jar files.
package classpath

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"route-recon/internal/logger"
)

// ErrClassNotFound is returned when no entry provides the requested class
var ErrClassNotFound = errors.New("class not found")

// Resolver supplies class file bytes by internal name (e.g., "com/example/Foo")
type Resolver interface {
	Find(internalName string) ([]byte, error)
}

func classFile(internalName string) string {
	return strings.ReplaceAll(internalName, ".", "/") + ".class"
}

// Dir resolves classes from an exploded class directory
type Dir struct {
	Root string
}

// Find reads <root>/<internalName>.class
func (d *Dir) Find(internalName string) ([]byte, error) {
	path := filepath.Join(d.Root, filepath.FromSlash(classFile(internalName)))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (d *Dir) String() string {
	return d.Root
}

// Jar resolves classes from a jar archive indexed on open
type Jar struct {
	Path string

	reader *zip.ReadCloser
	index  map[string]*zip.File
}

// OpenJar opens and indexes a jar file
func OpenJar(path string) (*Jar, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jar %s: %w", path, err)
	}
	index := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		if strings.HasSuffix(f.Name, ".class") {
			index[f.Name] = f
		}
	}
	logger.Debug("[CLASSPATH] Indexed %s: %d classes", path, len(index))
	return &Jar{Path: path, reader: reader, index: index}, nil
}

// Find extracts the class entry from the jar
func (j *Jar) Find(internalName string) ([]byte, error) {
	f, ok := j.index[classFile(internalName)]
	if !ok {
		return nil, ErrClassNotFound
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in %s: %w", f.Name, j.Path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s in %s: %w", f.Name, j.Path, err)
	}
	return data, nil
}

// Close releases the jar file
func (j *Jar) Close() error {
	return j.reader.Close()
}

func (j *Jar) String() string {
	return j.Path
}

// Memory resolves classes from an in-memory map keyed by internal name
type Memory map[string][]byte

// Find returns the stored bytes
func (m Memory) Find(internalName string) ([]byte, error) {
	if data, ok := m[strings.ReplaceAll(internalName, ".", "/")]; ok {
		return data, nil
	}
	return nil, ErrClassNotFound
}

// Classpath chains resolvers; the first entry that has a class wins
type Classpath struct {
	entries []Resolver
	closers []io.Closer
}

// New chains the given resolvers in order
func New(entries ...Resolver) *Classpath {
	return &Classpath{entries: entries}
}

// Open builds a classpath from filesystem entries: class directories, jar
// files, and directories of jars (expanded with ScanDirectory). A directory
// is used as a class root and its jars are appended after it.
func Open(entries []string, exclude func(path string) bool) (*Classpath, error) {
	cp := &Classpath{}
	for _, entry := range entries {
		info, err := os.Stat(entry)
		if err != nil {
			cp.Close()
			return nil, fmt.Errorf("classpath entry %s: %w", entry, err)
		}

		if !info.IsDir() {
			if err := cp.addJar(entry); err != nil {
				cp.Close()
				return nil, err
			}
			continue
		}

		cp.entries = append(cp.entries, &Dir{Root: entry})
		jars, err := ScanDirectory(entry, exclude)
		if err != nil {
			cp.Close()
			return nil, err
		}
		for _, jar := range jars {
			if err := cp.addJar(jar); err != nil {
				cp.Close()
				return nil, err
			}
		}
	}
	logger.Debug("[CLASSPATH] %d entries", len(cp.entries))
	return cp, nil
}

func (cp *Classpath) addJar(path string) error {
	jar, err := OpenJar(path)
	if err != nil {
		return err
	}
	cp.entries = append(cp.entries, jar)
	cp.closers = append(cp.closers, jar)
	return nil
}

// Find searches the entries in order
func (cp *Classpath) Find(internalName string) ([]byte, error) {
	for _, entry := range cp.entries {
		data, err := entry.Find(internalName)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrClassNotFound) {
			return nil, err
		}
	}
	return nil, ErrClassNotFound
}

// Len returns the number of entries
func (cp *Classpath) Len() int {
	return len(cp.entries)
}

// Close releases opened jars
func (cp *Classpath) Close() error {
	var errs []error
	for _, c := range cp.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	cp.closers = nil
	return errors.Join(errs...)
}

// ScanDirectory walks root and returns the jar files it contains. Directories
// and files for which exclude returns true (given the slash-separated path
// relative to root) are skipped.
func ScanDirectory(root string, exclude func(path string) bool) ([]string, error) {
	var jars []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, _ := filepath.Rel(root, path)
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			// Skip VCS metadata always
			if d.Name() == ".git" || d.Name() == ".svn" {
				return filepath.SkipDir
			}
			if relPath != "." && exclude != nil && exclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(strings.ToLower(path), ".jar") {
			if exclude != nil && exclude(relPath) {
				return nil
			}
			jars = append(jars, path)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return jars, nil
}
