package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gifterm/internal/reel"
)

const manifestName = "manifest.yaml"

// Store manages namespace directories below a base directory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir returns the directory holding the frames of namespace ns.
func (s *Store) Dir(ns string) string {
	return filepath.Join(s.baseDir, ns)
}

// Create makes the namespace directory. An existing directory is not
// an error.
func (s *Store) Create(ns string) (string, error) {
	dir := s.Dir(ns)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// DeriveNamespace returns the namespace for a source path: the upper-cased
// base name up to its first dot. Both slash and backslash are treated as
// separators so the result does not depend on the host platform.
func DeriveNamespace(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return strings.ToUpper(base)
}

// FrameName returns the file name of the text frame at index i.
func FrameName(i int) string {
	return strconv.Itoa(i) + ".txt"
}

// FramePath returns the path of the text frame at index i in dir.
func FramePath(dir string, i int) string {
	return filepath.Join(dir, FrameName(i))
}

// Manifest records how a namespace was produced.
type Manifest struct {
	Namespace string    `yaml:"namespace"`
	Source    string    `yaml:"source"`
	Scale     float64   `yaml:"scale"`
	KeyFrames int       `yaml:"keyframes"`
	Created   time.Time `yaml:"created"`
}

// SaveManifest writes m into the namespace directory.
func (s *Store) SaveManifest(m Manifest) error {
	dir, err := s.Create(m.Namespace)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestName), data, 0644)
}

// Load returns the manifest of namespace ns.
func (s *Store) Load(ns string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(ns), manifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the manifests of all namespaces below the base directory,
// sorted by namespace. Directories without a readable manifest are skipped.
func (s *Store) List() ([]Manifest, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Manifest{}, nil
		}
		return nil, err
	}

	list := make([]Manifest, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		list = append(list, *m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Namespace < list[j].Namespace })

	return list, nil
}

// LoadFrames reads 0.txt, 1.txt, ... from dir until the first missing
// file and returns their contents in order.
func LoadFrames(dir string) ([]string, error) {
	var frames []string
	for i := 0; ; i++ {
		path := FramePath(dir, i)
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, &reel.FrameError{Stage: reel.StagePlayback, Index: i, Path: path, Err: err}
			}
			if i == 0 {
				return nil, reel.Errorf(reel.StagePlayback, 0, path, reel.ErrMissingFrame, "no first frame in %s", dir)
			}
			return frames, nil
		}
		frames = append(frames, string(data))
	}
}

// RemoveFrom deletes the text frames of dir with index >= from, stopping
// at n. Missing files are ignored.
func RemoveFrom(dir string, from, n int) error {
	var errs []error
	for i := from; i < n; i++ {
		err := os.Remove(FramePath(dir, i))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove frame %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Clear removes every text frame of namespace ns together with its
// manifest, leaving the directory in place.
func (s *Store) Clear(ns string) error {
	dir := s.Dir(ns)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	var errs []error
	for _, e := range entries {
		if e.IsDir() || (e.Name() != manifestName && !isFrameName(e.Name())) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isFrameName(name string) bool {
	idx, ok := strings.CutSuffix(name, ".txt")
	if !ok || idx == "" {
		return false
	}
	for _, c := range idx {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
