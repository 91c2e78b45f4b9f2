package scene

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyScene = errors.New("scene: no BVH nodes defined")
)

// Validate checks every cross reference inside the arena so that the
// kernel can index the arena slices without bounds checks of its own.
func (sc *Scene) Validate() error {
	if len(sc.BvhNodeList) == 0 {
		return ErrEmptyScene
	}

	numPrims := len(sc.PrimType)
	if len(sc.PrimIndex) != numPrims || len(sc.PrimObject) != numPrims || len(sc.PrimVisibility) != numPrims {
		return fmt.Errorf("scene: primitive arrays have mismatched lengths (%d, %d, %d, %d)",
			numPrims, len(sc.PrimIndex), len(sc.PrimObject), len(sc.PrimVisibility))
	}

	if err := sc.validateTree(sc.Kernel.BvhRoot); err != nil {
		return err
	}
	for index, obj := range sc.Objects {
		if err := sc.checkAddress(obj.BvhRoot); err != nil {
			return fmt.Errorf("scene: object %d (%q): %v", index, obj.Name, err)
		}
	}

	for addr := 0; addr < numPrims; addr++ {
		prim := sc.PrimIndex[addr]
		if obj := sc.PrimObject[addr]; obj < 0 || int(obj) >= len(sc.Objects) {
			return fmt.Errorf("scene: primitive %d references unknown object %d", addr, obj)
		}
		switch sc.PrimType[addr].Base() {
		case PrimitiveTriangle, PrimitiveMotionTriangle:
			if prim < 0 || int(prim) >= len(sc.TriVIndex) {
				return fmt.Errorf("scene: primitive %d references unknown triangle %d", addr, prim)
			}
		case PrimitiveCurveThick, PrimitiveCurveRibbon:
			if prim < 0 || int(prim) >= len(sc.Curves) {
				return fmt.Errorf("scene: primitive %d references unknown curve %d", addr, prim)
			}
			if seg := sc.PrimType[addr].Segment(); seg+1 >= int(sc.Curves[prim].NumKeys) {
				return fmt.Errorf("scene: primitive %d references segment %d of curve %d with %d keys", addr, seg, prim, sc.Curves[prim].NumKeys)
			}
		default:
			return fmt.Errorf("scene: primitive %d has unsupported type %d", addr, sc.PrimType[addr])
		}
	}

	if len(sc.TriShader) != len(sc.TriVIndex) {
		return fmt.Errorf("scene: expected %d triangle shader entries; got %d", len(sc.TriVIndex), len(sc.TriShader))
	}
	if len(sc.VNormals) != 0 && len(sc.VNormals) != len(sc.Verts) {
		return fmt.Errorf("scene: expected %d vertex normals; got %d", len(sc.Verts), len(sc.VNormals))
	}
	for tri, vi := range sc.TriVIndex {
		for _, v := range vi {
			if int(v) >= len(sc.Verts) {
				return fmt.Errorf("scene: triangle %d references unknown vertex %d", tri, v)
			}
		}
		if shader := sc.TriShader[tri] & ShaderIDMask; int(shader) >= len(sc.Shaders) {
			return fmt.Errorf("scene: triangle %d references unknown shader %d", tri, shader)
		}
		if patch := sc.TriPatchIndex(int32(tri)); patch >= 0 {
			if int(patch) >= len(sc.Patches) || tri >= len(sc.TriPatchUV) {
				return fmt.Errorf("scene: triangle %d references unknown patch %d", tri, patch)
			}
		}
	}

	for index, curve := range sc.Curves {
		if curve.NumKeys < 2 || int(curve.FirstKey+curve.NumKeys) > len(sc.CurveKeys) {
			return fmt.Errorf("scene: curve %d has invalid key range [%d, %d)", index, curve.FirstKey, curve.FirstKey+curve.NumKeys)
		}
		if int(curve.Shader) >= len(sc.Shaders) {
			return fmt.Errorf("scene: curve %d references unknown shader %d", index, curve.Shader)
		}
	}

	for index, patch := range sc.Patches {
		for c := uint32(0); c < patch.NumCorners && c < 4; c++ {
			if int(patch.V[c]) >= len(sc.Verts) {
				return fmt.Errorf("scene: patch %d references unknown vertex %d", index, patch.V[c])
			}
		}
	}

	for index, entry := range sc.AttributeMap {
		if entry.Object < 0 || int(entry.Object) >= len(sc.Objects) {
			return fmt.Errorf("scene: attribute %d (%s) references unknown object %d", index, entry.Std, entry.Object)
		}
		if int(entry.Desc.Offset) >= sc.attributeBufferLen(entry.Desc.Type) {
			return fmt.Errorf("scene: attribute %d (%s) offset %d is out of bounds", index, entry.Std, entry.Desc.Offset)
		}
	}

	for index, light := range sc.Lights {
		if light.Prim < 0 || int(light.Prim) >= len(sc.TriVIndex) || light.Object < 0 || int(light.Object) >= len(sc.Objects) {
			return fmt.Errorf("scene: light %d references unknown triangle %d of object %d", index, light.Prim, light.Object)
		}
	}

	if bg := sc.Kernel.BackgroundShader; bg != ShaderNone && (bg < 0 || int(bg) >= len(sc.Shaders)) {
		return fmt.Errorf("scene: unknown background shader %d", bg)
	}

	return nil
}

func (sc *Scene) attributeBufferLen(t AttributeType) int {
	switch t {
	case AttrTypeFloat:
		return len(sc.AttrFloat)
	case AttrTypeFloat2:
		return len(sc.AttrFloat2)
	case AttrTypeFloat3:
		return len(sc.AttrFloat3)
	case AttrTypeFloat4:
		return len(sc.AttrFloat4)
	case AttrTypeUchar4:
		return len(sc.AttrUchar4)
	}
	return 0
}

func (sc *Scene) checkAddress(addr int32) error {
	if index := NodeIndex(addr); int(index) >= len(sc.BvhNodeList) {
		return fmt.Errorf("node address %d is out of bounds", addr)
	}
	return nil
}

// Walk the tree rooted at root and check child addresses, leaf primitive
// ranges and instance references.
func (sc *Scene) validateTree(root int32) error {
	pending := []int32{root}
	visited := 0
	for len(pending) > 0 {
		addr := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if err := sc.checkAddress(addr); err != nil {
			return fmt.Errorf("scene: %v", err)
		}

		visited++
		if visited > 2*len(sc.BvhNodeList) {
			return errors.New("scene: BVH contains a cycle")
		}

		node := sc.BvhNode(addr)
		if !IsLeafAddress(addr) {
			pending = append(pending, node.LData, node.RData)
			continue
		}

		if obj := node.ObjectIndex(); obj != ObjectNone {
			if int(obj) >= len(sc.Objects) {
				return fmt.Errorf("scene: leaf %d references unknown object %d", addr, obj)
			}
			if root == sc.Kernel.BvhRoot {
				if err := sc.validateTree(sc.Objects[obj].BvhRoot); err != nil {
					return err
				}
			}
			continue
		}

		start, end := node.Primitives()
		if start > end || int(end) > len(sc.PrimType) {
			return fmt.Errorf("scene: leaf %d has invalid primitive range [%d, %d)", addr, start, end)
		}
	}
	return nil
}
