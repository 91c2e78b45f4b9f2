package input

import "github.com/achilleasa/raykernel/types"

// Shader indices of the demo scene.
const (
	DemoShaderWhite = iota
	DemoShaderRed
	DemoShaderGreen
	DemoShaderLight
	DemoShaderGlass
	DemoShaderHair
	DemoShaderSky
)

// Build a small room lit by a ceiling light. The room contains a static
// cube covered by hair curves, a second cube moving along the x axis while
// the shutter is open and a glass panel in front of them.
func DemoScene() *Scene {
	sc := NewScene()
	sc.Shaders = append(sc.Shaders,
		&Shader{Name: "white", Albedo: types.XYZ(0.7, 0.7, 0.7)},
		&Shader{Name: "red", Albedo: types.XYZ(0.63, 0.06, 0.04)},
		&Shader{Name: "green", Albedo: types.XYZ(0.15, 0.48, 0.09)},
		&Shader{Name: "light", Emission: types.XYZ(12, 11, 9)},
		&Shader{Name: "glass", Albedo: types.XYZ(0.05, 0.05, 0.05), Transparency: types.XYZ(0.7, 0.8, 0.9)},
		&Shader{Name: "hair", Albedo: types.XYZ(0.4, 0.3, 0.2)},
		&Shader{Name: "sky", Emission: types.XYZ(0.05, 0.05, 0.08)},
	)
	sc.Background = DemoShaderSky

	room := NewMesh("room")
	addQuad(room, DemoShaderWhite, types.XYZ(-1, 0, -1), types.XYZ(-1, 0, 1), types.XYZ(1, 0, 1), types.XYZ(1, 0, -1))
	addQuad(room, DemoShaderWhite, types.XYZ(-1, 2, -1), types.XYZ(1, 2, -1), types.XYZ(1, 2, 1), types.XYZ(-1, 2, 1))
	addQuad(room, DemoShaderWhite, types.XYZ(-1, 0, -1), types.XYZ(1, 0, -1), types.XYZ(1, 2, -1), types.XYZ(-1, 2, -1))
	addQuad(room, DemoShaderRed, types.XYZ(-1, 0, 1), types.XYZ(-1, 0, -1), types.XYZ(-1, 2, -1), types.XYZ(-1, 2, 1))
	addQuad(room, DemoShaderGreen, types.XYZ(1, 0, -1), types.XYZ(1, 0, 1), types.XYZ(1, 2, 1), types.XYZ(1, 2, -1))

	light := NewMesh("light")
	addQuad(light, DemoShaderLight, types.XYZ(-0.3, 1.98, -0.3), types.XYZ(0.3, 1.98, -0.3), types.XYZ(0.3, 1.98, 0.3), types.XYZ(-0.3, 1.98, 0.3))

	cube := NewMesh("cube")
	addBox(cube, DemoShaderWhite, types.XYZ(-0.5, -0.5, -0.5), types.XYZ(0.5, 0.5, 0.5))

	glass := NewMesh("glass")
	addQuad(glass, DemoShaderGlass, types.XYZ(-0.6, 0, 0.5), types.XYZ(0.2, 0, 0.5), types.XYZ(0.2, 1.2, 0.5), types.XYZ(-0.6, 1.2, 0.5))

	hair := NewMesh("hair")
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			x := -0.55 + 0.15*float32(col)
			z := -0.45 + 0.15*float32(row)
			hair.Curves = append(hair.Curves, Curve{
				Shader: DemoShaderHair,
				Keys: []types.Vec4{
					types.XYZW(x, 0.7, z, 0.012),
					types.XYZW(x+0.02, 0.82, z, 0.008),
					types.XYZW(x+0.06, 0.92, z, 0.004),
				},
			})
		}
	}

	sc.Meshes = append(sc.Meshes, room, light, cube, glass, hair)

	staticCube := types.Translate4(types.XYZ(-0.4, 0.35, -0.3)).Mul4(types.Scale4(types.XYZ(0.7, 0.7, 0.7)))
	movingCube := func(x float32) types.Mat4 {
		return types.Translate4(types.XYZ(x, 0.25, 0.2)).
			Mul4(types.Rotate4(types.XYZ(0, 1, 0), 0.4)).
			Mul4(types.Scale4(types.XYZ(0.5, 0.5, 0.5)))
	}

	sc.Objects = append(sc.Objects,
		&Object{Name: "room", MeshIndex: 0, Transform: types.Ident4()},
		&Object{Name: "light", MeshIndex: 1, Transform: types.Ident4()},
		&Object{Name: "static cube", MeshIndex: 2, Transform: staticCube},
		&Object{
			Name:      "moving cube",
			MeshIndex: 2,
			Transform: movingCube(0.45),
			Motion:    []types.Mat4{movingCube(0.4), movingCube(0.45), movingCube(0.5)},
		},
		&Object{Name: "glass", MeshIndex: 3, Transform: types.Ident4()},
		&Object{Name: "hair", MeshIndex: 4, Transform: types.Ident4()},
	)

	sc.Camera = &Camera{
		FOV:  45,
		Eye:  types.XYZ(0, 1, 3.6),
		Look: types.XYZ(0, 1, 0),
		Up:   types.XYZ(0, 1, 0),
	}

	return sc
}

// Append a planar quad. The face normal follows the winding of its corners.
func addQuad(m *Mesh, shader int, a, b, c, d types.Vec3) {
	base := uint32(len(m.Verts))
	m.Verts = append(m.Verts, a, b, c, d)
	m.Triangles = append(m.Triangles,
		Triangle{V: [3]uint32{base, base + 1, base + 2}, Shader: shader},
		Triangle{V: [3]uint32{base, base + 2, base + 3}, Shader: shader},
	)
	m.UVs = append(m.UVs,
		[3]types.Vec2{{0, 0}, {1, 0}, {1, 1}},
		[3]types.Vec2{{0, 0}, {1, 1}, {0, 1}},
	)
	m.MarkBBoxDirty()
}

// Append an axis aligned box with outward facing normals.
func addBox(m *Mesh, shader int, min, max types.Vec3) {
	x0, y0, z0 := min[0], min[1], min[2]
	x1, y1, z1 := max[0], max[1], max[2]

	addQuad(m, shader, types.XYZ(x0, y0, z0), types.XYZ(x1, y0, z0), types.XYZ(x1, y0, z1), types.XYZ(x0, y0, z1))
	addQuad(m, shader, types.XYZ(x0, y1, z0), types.XYZ(x0, y1, z1), types.XYZ(x1, y1, z1), types.XYZ(x1, y1, z0))
	addQuad(m, shader, types.XYZ(x0, y0, z0), types.XYZ(x0, y1, z0), types.XYZ(x1, y1, z0), types.XYZ(x1, y0, z0))
	addQuad(m, shader, types.XYZ(x0, y0, z1), types.XYZ(x1, y0, z1), types.XYZ(x1, y1, z1), types.XYZ(x0, y1, z1))
	addQuad(m, shader, types.XYZ(x0, y0, z0), types.XYZ(x0, y0, z1), types.XYZ(x0, y1, z1), types.XYZ(x0, y1, z0))
	addQuad(m, shader, types.XYZ(x1, y0, z0), types.XYZ(x1, y1, z0), types.XYZ(x1, y1, z1), types.XYZ(x1, y0, z1))
}
