package models

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/pyramid/pkg/math3d"
)

// ErrEmptyMesh is returned when exporting a mesh without vertices.
var ErrEmptyMesh = errors.New("mesh has no vertices")

// WriteGLB encodes the mesh as binary glTF. All faces share one POSITION
// accessor; each face becomes its own primitive with a material whose
// baseColorFactor carries the face color. Quads are triangulated.
func WriteGLB(w io.Writer, m *Mesh) error {
	doc, err := buildDocument(m)
	if err != nil {
		return err
	}

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode glb: %w", err)
	}
	return nil
}

// ExportGLB writes the mesh to a .glb file at path.
func ExportGLB(path string, m *Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteGLB(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func buildDocument(m *Mesh) (*gltf.Document, error) {
	if m == nil || len(m.Vertices) == 0 {
		return nil, ErrEmptyMesh
	}

	doc := gltf.NewDocument()

	positions := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
	}
	posIdx := modeler.WritePosition(doc, positions)

	gm := &gltf.Mesh{Name: m.Name}
	for i, f := range m.Faces {
		tris := f.Triangles()
		if tris == nil {
			return nil, fmt.Errorf("face %d: unsupported corner count %d", i, len(f.V))
		}

		indices := make([]uint16, 0, 3*len(tris))
		for _, tri := range tris {
			for _, idx := range tri {
				if idx < 0 || idx >= len(m.Vertices) {
					return nil, fmt.Errorf("face %d: vertex index %d out of range", i, idx)
				}
				indices = append(indices, uint16(idx))
			}
		}

		doc.Materials = append(doc.Materials, &gltf.Material{
			Name:        fmt.Sprintf("face%d", i),
			DoubleSided: true,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float64{
					float64(f.Color.R) / 255,
					float64(f.Color.G) / 255,
					float64(f.Color.B) / 255,
					float64(f.Color.A) / 255,
				},
			},
		})

		gm.Primitives = append(gm.Primitives, &gltf.Primitive{
			Attributes: map[string]int{gltf.POSITION: posIdx},
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Material:   gltf.Index(len(doc.Materials) - 1),
		})
	}

	doc.Meshes = append(doc.Meshes, gm)
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: m.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
		doc.Scene = gltf.Index(0)
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)

	return doc, nil
}

// LoadGLB loads a binary glTF file written by WriteGLB (or any GLB with
// embedded triangle geometry). Every triangle becomes a face colored by its
// primitive's material.
func LoadGLB(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return meshFromDocument(doc, filepath.Base(path))
}

// ReadGLB decodes a glTF document from r.
func ReadGLB(r io.Reader) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}
	return meshFromDocument(doc, "")
}

func meshFromDocument(doc *gltf.Document, fallbackName string) (*Mesh, error) {
	name := fallbackName
	if len(doc.Meshes) > 0 && doc.Meshes[0].Name != "" {
		name = doc.Meshes[0].Name
	}
	mesh := NewMesh(name)

	// Primitives sharing a POSITION accessor share vertices.
	bases := make(map[int]int)
	for _, m := range doc.Meshes {
		if err := processMesh(doc, m, mesh, bases); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

func processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh, bases map[int]int) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			// Lines and points carry no faces
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		posAcc, err := accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("positions: %w", err)
		}
		base, seen := bases[posIdx]
		if !seen {
			positions, err := modeler.ReadPosition(doc, posAcc, nil)
			if err != nil {
				return fmt.Errorf("read positions: %w", err)
			}
			base = len(mesh.Vertices)
			bases[posIdx] = base
			for _, p := range positions {
				mesh.Vertices = append(mesh.Vertices, math3d.V3(float64(p[0]), float64(p[1]), float64(p[2])))
			}
		}
		count := posAcc.Count

		c := materialColor(doc, prim.Material)

		var indices []int
		if prim.Indices != nil {
			acc, err := accessor(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("indices: %w", err)
			}
			raw, err := modeler.ReadIndices(doc, acc, nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			indices = make([]int, len(raw))
			for i, idx := range raw {
				indices[i] = int(idx)
			}
		} else {
			indices = make([]int, count)
			for i := range indices {
				indices[i] = i
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			tri := []int{indices[i], indices[i+1], indices[i+2]}
			for j, idx := range tri {
				if idx < 0 || idx >= count {
					return fmt.Errorf("index %d out of range [0, %d)", idx, count)
				}
				tri[j] = base + idx
			}
			mesh.Faces = append(mesh.Faces, Face{V: tri, Color: c})
		}
	}

	return nil
}

// materialColor returns the material's base color, or opaque white (the
// glTF default) when none is set.
func materialColor(doc *gltf.Document, idx *int) color.RGBA {
	white := color.RGBA{255, 255, 255, 255}
	if idx == nil || *idx < 0 || *idx >= len(doc.Materials) {
		return white
	}
	pbr := doc.Materials[*idx].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return white
	}
	f := pbr.BaseColorFactor
	return color.RGBA{unitToByte(f[0]), unitToByte(f[1]), unitToByte(f[2]), unitToByte(f[3])}
}

func unitToByte(f float64) uint8 {
	return uint8(math.Round(math3d.Clamp(f, 0, 1) * 255))
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}
