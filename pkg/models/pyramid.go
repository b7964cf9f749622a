package models

import (
	"image/color"

	"github.com/taigrr/pyramid/pkg/math3d"
)

// Face colors, in emission order.
var (
	Red    = color.RGBA{255, 0, 0, 255}
	Green  = color.RGBA{0, 255, 0, 255}
	Blue   = color.RGBA{0, 0, 255, 255}
	Yellow = color.RGBA{255, 255, 0, 255}
	Gray   = color.RGBA{128, 128, 128, 255}
)

// Vertex indices of the pyramid.
const (
	Apex = iota
	Base0
	Base1
	Base2
	Base3
)

var pyramid = buildPyramid()

func buildPyramid() *Mesh {
	m := NewMesh("pyramid")
	m.Vertices = []math3d.Vec3{
		Apex:  math3d.V3(0, 1, 0),
		Base0: math3d.V3(-1, 0, 1),
		Base1: math3d.V3(1, 0, 1),
		Base2: math3d.V3(1, 0, -1),
		Base3: math3d.V3(-1, 0, -1),
	}
	m.Faces = []Face{
		{V: []int{Apex, Base0, Base1}, Color: Red},
		{V: []int{Apex, Base1, Base2}, Color: Green},
		{V: []int{Apex, Base2, Base3}, Color: Blue},
		{V: []int{Apex, Base3, Base0}, Color: Yellow},
		{V: []int{Base0, Base1, Base2, Base3}, Color: Gray},
	}
	m.CalculateBounds()
	return m
}

// Pyramid returns a copy of the square pyramid: apex at (0,1,0) over a 2x2
// base on y = 0, four colored sides followed by the gray base quad.
func Pyramid() *Mesh {
	return pyramid.Clone()
}

// EachFace calls fn for every face of the shared pyramid without copying it.
// fn must not retain or modify verts.
func EachFace(fn func(c color.RGBA, verts []math3d.Vec3)) {
	var buf [4]math3d.Vec3
	for _, f := range pyramid.Faces {
		n := len(f.V)
		for i, idx := range f.V {
			buf[i] = pyramid.Vertices[idx]
		}
		fn(f.Color, buf[:n])
	}
}

// PyramidBounds returns the pyramid's bounding box.
func PyramidBounds() (lo, hi math3d.Vec3) {
	return pyramid.GetBounds()
}
