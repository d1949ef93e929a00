package vision

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/png" // templates are stored as PNG
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template is a named reference image plus its cached color signature. The
// signature is computed on first use and kept for the process lifetime.
// Identity is the template name.
type Template struct {
	Name  string
	Image *image.RGBA

	sig []float64
}

func NewTemplate(name string, img image.Image) *Template {
	return &Template{Name: name, Image: toRGBA(img)}
}

// Signature returns the hue/saturation histogram of the template, memoized.
// Only ever called from the controller tick loop, so no locking is needed.
func (t *Template) Signature() []float64 {
	if t.sig == nil {
		t.sig = histogramHS(t.Image, t.Image.Bounds())
	}
	return t.sig
}

// Store holds every reference template, keyed by name.
type Store struct {
	templates map[string]*Template
}

func NewStore(templates ...*Template) *Store {
	s := &Store{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		s.templates[t.Name] = t
	}
	return s
}

// LoadStore reads every .png in dir as a template named after its filename
// without extension.
func LoadStore(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading template directory %s: %w", dir, err)
	}

	s := &Store{templates: make(map[string]*Template)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".png") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening template %s: %w", path, err)
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding template %s: %w", path, err)
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		s.templates[name] = NewTemplate(name, img)
	}

	if len(s.templates) == 0 {
		return nil, fmt.Errorf("template directory %s holds no templates", dir)
	}
	return s, nil
}

func (s *Store) Get(name string) (*Template, error) {
	t, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrTemplateNotFound)
	}
	return t, nil
}

func (s *Store) Has(name string) bool {
	_, ok := s.templates[name]
	return ok
}

func (s *Store) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba
}
