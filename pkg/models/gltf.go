package models

import (
	"fmt"
	"unsafe"

	"github.com/qmuntal/gltf"

	"github.com/sanchitgarg/gorasterizer/pkg/math3d"
)

// GLTFLoader loads glTF/GLB files into the flat Mesh format.
type GLTFLoader struct {
	// SmoothNormals generates averaged per-vertex normals when the file
	// has none.
	SmoothNormals bool

	// DefaultColor fills the color attribute when the file has no COLOR_0.
	DefaultColor math3d.Vec3
}

// NewGLTFLoader creates a new glTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		SmoothNormals: true,
		DefaultColor:  math3d.V3(0.8, 0.8, 0.8),
	}
}

// LoadGLB loads a binary glTF (.glb) file with default options.
func LoadGLB(path string) (*Mesh, error) {
	loader := NewGLTFLoader()
	return loader.Load(path)
}

// Load loads a glTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(path)

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	if len(mesh.Normals) != len(mesh.Positions) {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.Normals = make([]math3d.Vec3, len(mesh.Positions))
		}
	}
	if len(mesh.Colors) != len(mesh.Positions) {
		mesh.FillColor(l.DefaultColor)
	}

	mesh.CalculateBounds()

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

// processMesh extracts geometry from a glTF mesh into flat arrays.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var colors []math3d.Vec3
		if colIdx, ok := prim.Attributes[gltf.COLOR_0]; ok {
			colors, err = readColorAccessor(doc, colIdx)
			if err != nil {
				return fmt.Errorf("read colors: %w", err)
			}
		}

		baseVertex := len(mesh.Positions)

		mesh.Positions = append(mesh.Positions, positions...)
		for i := range positions {
			if i < len(normals) {
				mesh.Normals = append(mesh.Normals, normals[i])
			}
			if i < len(colors) {
				mesh.Colors = append(mesh.Colors, colors[i])
			}
		}

		if prim.Indices != nil {
			indices, err := readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}

			// glTF uses CCW winding for front-facing; the pipeline's
			// Y-flip in screen space expects CW, so the winding is
			// reversed here.
			for i := 0; i+2 < len(indices); i += 3 {
				mesh.Indices = append(mesh.Indices,
					baseVertex+indices[i],
					baseVertex+indices[i+2],
					baseVertex+indices[i+1],
				)
			}
		} else {
			// No indices, assume sequential triangles. Winding reversed
			// as above.
			for i := 0; i+2 < len(positions); i += 3 {
				mesh.Indices = append(mesh.Indices,
					baseVertex+i,
					baseVertex+i+2,
					baseVertex+i+1,
				)
			}
		}
	}

	return nil
}

// readVec3Accessor reads Vec3 data from a glTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	floats, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC3")
	}

	result := make([]math3d.Vec3, len(floats))
	for i, f := range floats {
		result[i] = math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
	}

	return result, nil
}

// readColorAccessor reads a COLOR_0 accessor. Colors may be stored as
// float VEC3 or VEC4; the alpha channel, if present, is dropped.
func readColorAccessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]

	switch accessor.Type {
	case gltf.AccessorVec3:
		return readVec3Accessor(doc, accessorIdx)

	case gltf.AccessorVec4:
		data, err := readAccessorData(doc, accessor)
		if err != nil {
			return nil, err
		}
		floats, ok := data.([][4]float32)
		if !ok {
			return nil, fmt.Errorf("unexpected data type for VEC4")
		}
		result := make([]math3d.Vec3, len(floats))
		for i, f := range floats {
			result[i] = math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported COLOR_0 accessor type: %v", accessor.Type)
	}
}

// readIndices reads index data from a glTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	switch v := data.(type) {
	case []uint8:
		result := make([]int, len(v))
		for i, x := range v {
			result[i] = int(x)
		}
		return result, nil
	case []uint16:
		result := make([]int, len(v))
		for i, x := range v {
			result[i] = int(x)
		}
		return result, nil
	case []uint32:
		result := make([]int, len(v))
		for i, x := range v {
			result[i] = int(x)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unexpected index type: %T", data)
	}
}

// readAccessorData reads raw data from a glTF accessor.
func readAccessorData(doc *gltf.Document, accessor *gltf.Accessor) (any, error) {
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor has no buffer view")
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	var bufData []byte
	if buffer.URI == "" {
		// Embedded data (GLB)
		bufData = buffer.Data
	} else {
		return nil, fmt.Errorf("external buffers not supported")
	}

	if bufData == nil {
		return nil, fmt.Errorf("buffer has no data")
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	count := accessor.Count

	switch accessor.Type {
	case gltf.AccessorVec3:
		if stride == 0 {
			stride = 12 // 3 floats * 4 bytes
		}
		result := make([][3]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 3 {
				result[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return result, nil

	case gltf.AccessorVec4:
		if stride == 0 {
			stride = 16 // 4 floats * 4 bytes
		}
		result := make([][4]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 4 {
				result[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return result, nil

	case gltf.AccessorScalar:
		if stride == 0 {
			switch accessor.ComponentType {
			case gltf.ComponentUbyte:
				stride = 1
			case gltf.ComponentUshort:
				stride = 2
			case gltf.ComponentUint:
				stride = 4
			}
		}

		switch accessor.ComponentType {
		case gltf.ComponentUbyte:
			result := make([]uint8, count)
			for i := range count {
				result[i] = bufData[start+i*stride]
			}
			return result, nil
		case gltf.ComponentUshort:
			result := make([]uint16, count)
			for i := range count {
				offset := start + i*stride
				result[i] = uint16(bufData[offset]) | uint16(bufData[offset+1])<<8
			}
			return result, nil
		case gltf.ComponentUint:
			result := make([]uint32, count)
			for i := range count {
				offset := start + i*stride
				result[i] = uint32(bufData[offset]) |
					uint32(bufData[offset+1])<<8 |
					uint32(bufData[offset+2])<<16 |
					uint32(bufData[offset+3])<<24
			}
			return result, nil
		}
	}

	return nil, fmt.Errorf("unsupported accessor type: %v / %v", accessor.Type, accessor.ComponentType)
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return float32frombits(bits)
}

// float32frombits converts bits to float32.
func float32frombits(b uint32) float32 {
	return *(*float32)(unsafe.Pointer(&b))
}
