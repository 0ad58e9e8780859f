// Package particle implements the block-based particle storage core: an
// immutable attribute schema, fixed-capacity blocks of parallel attribute
// buffers, and a container that owns block lifecycle. Simulation code
// resolves attribute names to indices once, then reads and writes buffer
// slices directly; no per-particle allocation happens anywhere in this
// package.
package particle

import "fmt"

// Schema is the immutable registration of attribute names to stable buffer
// indices for one container. Index assignment follows the order the names
// were given at construction and never changes for the container's lifetime.
type Schema struct {
	blockSize  int
	floatNames []string
	vec3Names  []string
	floatIndex map[string]int
	vec3Index  map[string]int
}

// NewSchema builds a schema from ordered attribute name lists. Names must be
// unique within their kind; blockSize must be positive.
func NewSchema(blockSize int, floatNames, vec3Names []string) (*Schema, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", ErrConfig, blockSize)
	}

	floatIndex, err := buildIndex("float", floatNames)
	if err != nil {
		return nil, err
	}
	vec3Index, err := buildIndex("vec3", vec3Names)
	if err != nil {
		return nil, err
	}

	s := &Schema{
		blockSize:  blockSize,
		floatNames: append([]string(nil), floatNames...),
		vec3Names:  append([]string(nil), vec3Names...),
		floatIndex: floatIndex,
		vec3Index:  vec3Index,
	}
	return s, nil
}

func buildIndex(kind string, names []string) (map[string]int, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: empty %s attribute name at position %d", ErrConfig, kind, i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate %s attribute %q", ErrConfig, kind, name)
		}
		index[name] = i
	}
	return index, nil
}

// BlockSize returns the fixed particle capacity per block.
func (s *Schema) BlockSize() int {
	return s.blockSize
}

// FloatCount returns the number of registered float attributes.
func (s *Schema) FloatCount() int {
	return len(s.floatNames)
}

// Vec3Count returns the number of registered vec3 attributes.
func (s *Schema) Vec3Count() int {
	return len(s.vec3Names)
}

// FloatIndex resolves a float attribute name to its buffer index.
func (s *Schema) FloatIndex(name string) (int, error) {
	i, ok := s.floatIndex[name]
	if !ok {
		return 0, fmt.Errorf("%w: no float attribute %q", ErrUnknownAttribute, name)
	}
	return i, nil
}

// Vec3Index resolves a vec3 attribute name to its buffer index.
func (s *Schema) Vec3Index(name string) (int, error) {
	i, ok := s.vec3Index[name]
	if !ok {
		return 0, fmt.Errorf("%w: no vec3 attribute %q", ErrUnknownAttribute, name)
	}
	return i, nil
}

// FloatNames returns the float attribute names in index order. The returned
// slice is a copy; the schema itself never changes.
func (s *Schema) FloatNames() []string {
	return append([]string(nil), s.floatNames...)
}

// Vec3Names returns the vec3 attribute names in index order.
func (s *Schema) Vec3Names() []string {
	return append([]string(nil), s.vec3Names...)
}
