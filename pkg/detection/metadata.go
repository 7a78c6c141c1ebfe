package detection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// MetadataFile is the file exported next to the model weights.
const MetadataFile = "metadata.yaml"

// ErrNoMetadata is returned when the model directory has no metadata.yaml.
var ErrNoMetadata = errors.New("detection: model metadata not found")

// Metadata is the subset of the exporter's metadata.yaml the vehicle uses.
type Metadata struct {
	// ImageSize is the model input as [height, width].
	ImageSize []int `yaml:"imgsz"`

	// Names maps class index to label.
	Names map[int]string `yaml:"names"`
}

// LoadMetadata reads metadata.yaml from a model directory.
func LoadMetadata(dir string) (*Metadata, error) {
	path := filepath.Join(dir, MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoMetadata, path)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return ParseMetadata(data)
}

// ParseMetadata decodes and validates metadata YAML.
func ParseMetadata(data []byte) (*Metadata, error) {
	var md Metadata
	if err := yaml.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	switch len(md.ImageSize) {
	case 1:
		md.ImageSize = []int{md.ImageSize[0], md.ImageSize[0]}
	case 2:
	default:
		return nil, fmt.Errorf("metadata imgsz: want [h, w], got %v", md.ImageSize)
	}
	if md.ImageSize[0] <= 0 || md.ImageSize[1] <= 0 {
		return nil, fmt.Errorf("metadata imgsz must be positive, got %v", md.ImageSize)
	}
	if len(md.Names) == 0 {
		return nil, errors.New("metadata names is empty")
	}
	return &md, nil
}

// InputSize returns the model input width and height.
func (m *Metadata) InputSize() (w, h int) {
	return m.ImageSize[1], m.ImageSize[0]
}

// NumClasses returns one past the highest class index.
func (m *Metadata) NumClasses() int {
	n := 0
	for id := range m.Names {
		if id+1 > n {
			n = id + 1
		}
	}
	return n
}

// Label returns the label for a class index, or "class_<id>" if unnamed.
func (m *Metadata) Label(id int) string {
	if name, ok := m.Names[id]; ok {
		return name
	}
	return fmt.Sprintf("class_%d", id)
}

// Labels returns labels ordered by class index.
func (m *Metadata) Labels() []string {
	ids := make([]int, 0, len(m.Names))
	for id := range m.Names {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = m.Names[id]
	}
	return out
}
