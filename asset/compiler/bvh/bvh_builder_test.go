package bvh

import (
	"testing"

	"github.com/achilleasa/raykernel/asset/scene"
	"github.com/achilleasa/raykernel/types"
)

type boxItem struct {
	bbox [2]types.Vec3
	id   int
}

func (b *boxItem) BBox() [2]types.Vec3 {
	return b.bbox
}

func (b *boxItem) Center() types.Vec3 {
	return b.bbox[0].Add(b.bbox[1]).Mul(0.5)
}

func quadrantItems() []BoundedVolume {
	type primSpec struct {
		min types.Vec3
		max types.Vec3
	}

	primSpecs := []primSpec{
		{types.Vec3{-2, 0, -2}, types.Vec3{-1, 1, -1}},
		{types.Vec3{1, 0, -2}, types.Vec3{2, 1, -1}},
		{types.Vec3{-2, 0, 1}, types.Vec3{-1, 1, 2}},
		{types.Vec3{1, 0, 1}, types.Vec3{2, 1, 2}},
	}

	itemList := make([]BoundedVolume, len(primSpecs))
	for idx, ps := range primSpecs {
		itemList[idx] = &boxItem{bbox: [2]types.Vec3{ps.min, ps.max}, id: idx}
	}
	return itemList
}

func TestLeafCallback(t *testing.T) {
	itemList := quadrantItems()

	var cbCount = 0
	var expItemListCount = 0
	cb := func(leaf *scene.BvhNode, itemList []BoundedVolume) {
		cbCount++
		if len(itemList) != expItemListCount {
			t.Fatalf("expected leaf callback to be called with %d items; got %d", expItemListCount, len(itemList))
		}
	}

	var expCount = 0

	// Partition each item in a single leaf
	cbCount = 0
	expItemListCount = 1
	tree := Build(itemList, 1, cb, SurfaceAreaHeuristic)

	expCount = 4
	if cbCount != expCount {
		t.Fatalf("expected leaf callback to be called %d times; called %d", expCount, cbCount)
	}
	expCount = 7
	if len(tree.Nodes) != expCount {
		t.Fatalf("expected bvh tree to have %d nodes; got %d", expCount, len(tree.Nodes))
	}
	if tree.MaxDepth != 2 {
		t.Fatalf("expected max depth 2; got %d", tree.MaxDepth)
	}

	// Partition two items in a single leaf
	cbCount = 0
	expItemListCount = 2
	tree = Build(itemList, 2, cb, SurfaceAreaHeuristic)

	expCount = 2
	if cbCount != expCount {
		t.Fatalf("expected leaf callback to be called %d times; called %d", expCount, cbCount)
	}
	expCount = 3
	if len(tree.Nodes) != expCount {
		t.Fatalf("expected bvh tree to have %d nodes; got %d", expCount, len(tree.Nodes))
	}
}

func TestEncodedAddresses(t *testing.T) {
	var primOffset uint32
	tree := Build(quadrantItems(), 1, func(leaf *scene.BvhNode, itemList []BoundedVolume) {
		leaf.SetPrimitives(primOffset, uint32(len(itemList)))
		primOffset += uint32(len(itemList))
	}, SurfaceAreaHeuristic)

	if scene.IsLeafAddress(tree.Root) {
		t.Fatalf("expected root to be an internal node; got address %d", tree.Root)
	}

	// Walk the tree and make sure each primitive is reachable exactly once
	// and every child box is contained in its parent box.
	seen := make(map[int32]int)
	pending := []int32{tree.Root}
	for len(pending) > 0 {
		addr := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		node := tree.Nodes[scene.NodeIndex(addr)]
		if scene.IsLeafAddress(addr) {
			start, end := node.Primitives()
			for prim := start; prim < end; prim++ {
				seen[prim]++
			}
			continue
		}

		for _, child := range []int32{node.LData, node.RData} {
			cnode := tree.Nodes[scene.NodeIndex(child)]
			for axis := 0; axis < 3; axis++ {
				if cnode.Min[axis] < node.Min[axis] || cnode.Max[axis] > node.Max[axis] {
					t.Fatalf("expected child %d bbox to be contained in parent %d bbox", child, addr)
				}
			}
			pending = append(pending, child)
		}
	}

	if len(seen) != 4 {
		t.Fatalf("expected 4 reachable primitives; got %d", len(seen))
	}
	for prim, count := range seen {
		if count != 1 {
			t.Fatalf("expected primitive %d to be referenced once; got %d", prim, count)
		}
	}
}

func TestSingleItemBuildsLeafRoot(t *testing.T) {
	tree := Build(quadrantItems()[:1], 1, func(leaf *scene.BvhNode, itemList []BoundedVolume) {
		leaf.SetPrimitives(0, 1)
	}, SurfaceAreaHeuristic)

	if tree.Root != scene.LeafAddress(0) {
		t.Fatalf("expected root to be leaf 0; got address %d", tree.Root)
	}
	if tree.MaxDepth != 0 {
		t.Fatalf("expected max depth 0; got %d", tree.MaxDepth)
	}
}

func TestMaxLeafItemsSplitsCoincidentItems(t *testing.T) {
	bbox := [2]types.Vec3{{0, 0, 0}, {1, 1, 1}}
	itemList := []BoundedVolume{
		&boxItem{bbox: bbox, id: 0},
		&boxItem{bbox: bbox, id: 1},
		&boxItem{bbox: bbox, id: 2},
	}

	// Without a limit the SAH cannot separate coincident items.
	leafs := 0
	Build(itemList, 1, func(leaf *scene.BvhNode, items []BoundedVolume) {
		leafs++
	}, SurfaceAreaHeuristic)
	if leafs != 1 {
		t.Fatalf("expected coincident items to share a single leaf; got %d leafs", leafs)
	}

	seen := make(map[int]bool)
	tree := Build(itemList, 1, func(leaf *scene.BvhNode, items []BoundedVolume) {
		if len(items) != 1 {
			t.Fatalf("expected leaf with 1 item; got %d", len(items))
		}
		seen[items[0].(*boxItem).id] = true
	}, SurfaceAreaHeuristic, MaxLeafItems(1))

	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct leaf items; got %d", len(seen))
	}
	if tree.MaxDepth != 2 {
		t.Fatalf("expected max depth 2; got %d", tree.MaxDepth)
	}
}
