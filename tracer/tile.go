package tracer

import (
	"math"
	"sort"
)

// The processing state of a tile. States are ordered; a tile only moves
// forward through them.
type TileState uint8

const (
	TileRender TileState = iota
	TileRendered
	TileDenoise
	TileDenoised
	TileDone
)

func (s TileState) String() string {
	switch s {
	case TileRender:
		return "RENDER"
	case TileRendered:
		return "RENDERED"
	case TileDenoise:
		return "DENOISE"
	case TileDenoised:
		return "DENOISED"
	case TileDone:
		return "DONE"
	}
	return "UNKNOWN"
}

// The kind of work a device is willing to accept from NextTile.
type TileType uint8

const (
	TileTypePathTrace TileType = 1 << iota
	TileTypeDenoise
)

// The order in which tiles are handed out to each device.
type TileOrder uint8

const (
	TileOrderCenter TileOrder = iota
	TileOrderRightToLeft
	TileOrderLeftToRight
	TileOrderTopToBottom
	TileOrderBottomToTop
)

// A rectangular region of the frame.
type Tile struct {
	Index  int
	X, Y   int
	W, H   int
	Device int
	State  TileState
}

// Describes the buffer being rendered. FullX/FullY locate the buffer inside
// a larger frame for border renders.
type BufferParams struct {
	Width, Height int

	FullX, FullY          int
	FullWidth, FullHeight int
}

// Options for the tile manager.
type TileManagerOptions struct {
	// Progressive renders refine the image over multiple passes starting at
	// a reduced resolution and adding one sample per pass.
	Progressive bool

	// In background mode the frame is split in a tile grid whose tiles are
	// dealt to devices in contiguous runs. Otherwise each device is assigned
	// a contiguous horizontal slice.
	Background bool

	TileW, TileH int

	// Pixel count (per axis) of the first progressive pass. Zero disables
	// reduced resolution passes.
	StartResolution int

	// Pixel size of the final pass.
	PixelSize int

	// Keep each tile on the device it was assigned to.
	PreserveTileDevice bool

	NumDevices int
	Order      TileOrder

	// Move rendered tiles through the denoising states.
	ScheduleDenoising bool

	// Optional sample range for distributed renders. A negative
	// RangeNumSamples renders all samples.
	RangeStartSample int
	RangeNumSamples  int

	// Optional slice height assignment for sliced mode. When nil, slices
	// get the same height.
	Scheduler BlockScheduler
	Devices   []Tracer
}

type tileState struct {
	buffer BufferParams

	sample           int
	numSamples       int
	resolutionDivide int

	tiles      []Tile
	tileStride int
	tileRows   int

	// Per logical device queues of tile indices.
	renderTiles    [][]int
	denoisingTiles [][]int
}

// TileManager splits a frame into tiles, assigns them to devices and drives
// the progressive pass sequence. It is not safe for concurrent use.
type TileManager struct {
	opts       TileManagerOptions
	params     BufferParams
	numSamples int

	state tileState
}

// Create a tile manager.
func NewTileManager(opts TileManagerOptions) *TileManager {
	if opts.TileW <= 0 {
		opts.TileW = 64
	}
	if opts.TileH <= 0 {
		opts.TileH = 64
	}
	if opts.PixelSize <= 0 {
		opts.PixelSize = 1
	}
	if opts.NumDevices <= 0 {
		opts.NumDevices = 1
	}
	if opts.RangeNumSamples == 0 {
		opts.RangeNumSamples = -1
	}
	return &TileManager{opts: opts}
}

// Reset the manager for a new render of the given buffer.
func (tm *TileManager) Reset(params BufferParams, numSamples int) {
	tm.params = params
	tm.numSamples = numSamples

	tm.state = tileState{
		sample:           tm.opts.RangeStartSample - 1,
		numSamples:       0,
		resolutionDivide: maxInt(getDivider(params.Width, params.Height, tm.opts.StartResolution), tm.opts.PixelSize),
	}
}

// Get the number of pixels per axis covered by a rendered pixel in the
// current pass.
func (tm *TileManager) ResolutionDivider() int {
	return tm.state.resolutionDivide
}

// Get the first sample of the current pass.
func (tm *TileManager) Sample() int {
	return tm.state.sample
}

// Get the number of samples rendered by the current pass.
func (tm *TileManager) NumSamples() int {
	return tm.state.numSamples
}

// Get the buffer of the current pass scaled by the resolution divider.
func (tm *TileManager) Buffer() BufferParams {
	return tm.state.buffer
}

// Get the tiles of the current pass.
func (tm *TileManager) Tiles() []Tile {
	return tm.state.tiles
}

// Advance to the next pass. Reduced resolution passes are exhausted first
// before samples are added. Returns false once all samples are done.
func (tm *TileManager) Next() bool {
	if tm.Done() {
		return false
	}

	if tm.opts.Progressive && tm.state.resolutionDivide > tm.opts.PixelSize {
		tm.state.sample = 0
		tm.state.resolutionDivide = maxInt(tm.state.resolutionDivide/2, tm.opts.PixelSize)
		tm.state.numSamples = 1
		tm.setTiles()
		return true
	}

	tm.state.sample++
	switch {
	case tm.opts.Progressive:
		tm.state.numSamples = 1
	case tm.opts.RangeNumSamples < 0:
		tm.state.numSamples = tm.numSamples
	default:
		tm.state.numSamples = tm.opts.RangeNumSamples
	}
	tm.state.resolutionDivide = tm.opts.PixelSize
	tm.setTiles()

	return true
}

// Returns true if the final resolution pass has rendered all samples.
func (tm *TileManager) Done() bool {
	endSample := tm.numSamples
	if tm.opts.RangeNumSamples >= 0 {
		endSample = tm.opts.RangeStartSample + tm.opts.RangeNumSamples
	}
	return tm.state.resolutionDivide == tm.opts.PixelSize &&
		tm.state.sample+tm.state.numSamples >= endSample
}

// Pop the next tile for a device. Denoising work is preferred over path
// tracing when both are requested. When the device queue is empty the
// call returns false; unless tiles are pinned to devices, the queues of
// other devices are searched first.
func (tm *TileManager) NextTile(device int, types TileType) (*Tile, bool) {
	preserveDevice := tm.opts.PreserveTileDevice && device < tm.opts.NumDevices

	if types&TileTypeDenoise != 0 {
		if index := popTile(tm.state.denoisingTiles, device, preserveDevice); index >= 0 {
			return &tm.state.tiles[index], true
		}
	}
	if types&TileTypePathTrace != 0 {
		if index := popTile(tm.state.renderTiles, device, preserveDevice); index >= 0 {
			return &tm.state.tiles[index], true
		}
	}
	return nil, false
}

func popTile(queues [][]int, device int, preserveDevice bool) int {
	logicalDevice := 0
	if preserveDevice {
		logicalDevice = device
	}

	for ; logicalDevice < len(queues); logicalDevice++ {
		if len(queues[logicalDevice]) == 0 {
			if preserveDevice {
				break
			}
			continue
		}

		index := queues[logicalDevice][0]
		queues[logicalDevice] = queues[logicalDevice][1:]
		return index
	}
	return -1
}

// Mark a tile as finished. Returns true if the tile buffer can be written
// out. With denoising enabled a rendered tile waits until all its neighbors
// have been rendered before it is queued for denoising; a denoised tile is
// only done once all its neighbors have been denoised.
func (tm *TileManager) FinishTile(index int, needDenoise bool) bool {
	if tm.opts.Progressive {
		return true
	}

	tile := &tm.state.tiles[index]
	switch tile.State {
	case TileRender:
		if !(tm.opts.ScheduleDenoising && needDenoise) {
			tile.State = TileDone
			return true
		}

		tile.State = TileRendered
		for neighbor := 0; neighbor < 9; neighbor++ {
			nindex := tm.neighborIndex(index, neighbor)
			if tm.checkNeighborState(nindex, TileRendered) {
				ntile := &tm.state.tiles[nindex]
				ntile.State = TileDenoise
				tm.state.denoisingTiles[ntile.Device] = append(tm.state.denoisingTiles[ntile.Device], nindex)
			}
		}
		return false
	case TileDenoise:
		tile.State = TileDenoised
		for neighbor := 0; neighbor < 9; neighbor++ {
			nindex := tm.neighborIndex(index, neighbor)
			if tm.checkNeighborState(nindex, TileDenoised) {
				tm.state.tiles[nindex].State = TileDone
			}
		}
		return true
	default:
		panic("tracer: finishing tile " + tile.State.String())
	}
}

// Neighbor offsets; the last entry is the tile itself.
var (
	neighborDx = [9]int{-1, 0, 1, -1, 1, -1, 0, 1, 0}
	neighborDy = [9]int{-1, -1, -1, 0, 0, 1, 1, 1, 0}
)

// Tiles are indexed left to right and top to bottom in the tile grid.
func (tm *TileManager) neighborIndex(index, neighbor int) int {
	nx := index%tm.state.tileStride + neighborDx[neighbor]
	ny := index/tm.state.tileStride + neighborDy[neighbor]
	if nx < 0 || ny < 0 || nx >= tm.state.tileStride || ny >= tm.state.tileRows {
		return -1
	}
	return ny*tm.state.tileStride + nx
}

// Returns true if the tile is exactly in minState and all its neighbors
// have reached it.
func (tm *TileManager) checkNeighborState(index int, minState TileState) bool {
	if index < 0 || tm.state.tiles[index].State != minState {
		return false
	}

	for neighbor := 0; neighbor < 9; neighbor++ {
		nindex := tm.neighborIndex(index, neighbor)
		if nindex >= 0 && tm.state.tiles[nindex].State < minState {
			return false
		}
	}
	return true
}

// Generate the tiles of the current pass.
func (tm *TileManager) setTiles() {
	divider := tm.state.resolutionDivide
	imageW := maxInt(1, tm.params.Width/divider)
	imageH := maxInt(1, tm.params.Height/divider)

	tm.genTiles(imageW, imageH, !tm.opts.Background)

	tm.state.buffer = BufferParams{
		Width:      imageW,
		Height:     imageH,
		FullX:      tm.params.FullX / divider,
		FullY:      tm.params.FullY / divider,
		FullWidth:  tm.params.FullWidth / divider,
		FullHeight: tm.params.FullHeight / divider,
	}
}

func (tm *TileManager) genTiles(imageW, imageH int, sliced bool) {
	numLogicalDevices := 1
	if tm.opts.PreserveTileDevice {
		numLogicalDevices = tm.opts.NumDevices
	}
	num := minInt(imageH, numLogicalDevices)
	sliceNum := 1
	if sliced {
		sliceNum = num
	}

	tileW := 1
	if tm.opts.TileW < imageW {
		tileW = divideUp(imageW, tm.opts.TileW)
	}

	tm.state.tiles = tm.state.tiles[:0]
	tm.state.renderTiles = make([][]int, num)
	tm.state.denoisingTiles = make([][]int, num)
	tm.state.tileStride = tileW
	tm.state.tileRows = 0

	sliceHeights := tm.sliceHeights(imageH, sliceNum)
	center := [2]float32{float32(imageW / 2), float32(imageH / 2)}

	idx := 0
	sliceY := 0
	listIndex := 0
	for slice := 0; slice < sliceNum; slice++ {
		sliceH := sliceHeights[slice]
		tileH := 1
		if tm.opts.TileH < sliceH {
			tileH = divideUp(sliceH, tm.opts.TileH)
		}
		tilesPerDevice := divideUp(tileW*tileH, num)
		curDevice, curTiles := 0, 0

		for tileY := 0; tileY < tileH; tileY++ {
			for tileX := 0; tileX < tileW; tileX, idx = tileX+1, idx+1 {
				x := tileX * tm.opts.TileW
				y := tileY * tm.opts.TileH
				w := tm.opts.TileW
				if tileX == tileW-1 {
					w = imageW - x
				}
				h := tm.opts.TileH
				if tileY == tileH-1 {
					h = sliceH - y
				}

				device := curDevice
				if sliced {
					device = slice
				}
				tm.state.tiles = append(tm.state.tiles, Tile{
					Index:  idx,
					X:      x,
					Y:      y + sliceY,
					W:      w,
					H:      h,
					Device: device,
					State:  TileRender,
				})
				tm.state.renderTiles[listIndex] = append(tm.state.renderTiles[listIndex], idx)

				if !sliced {
					curTiles++
					if curTiles == tilesPerDevice && listIndex < num-1 {
						listIndex++
						curTiles = 0
						curDevice++
					}
				}
			}
		}
		tm.state.tileRows += tileH

		sliceY += sliceH
		if sliced {
			listIndex++
		}
	}

	for _, queue := range tm.state.renderTiles {
		tm.sortTiles(queue, center)
	}
}

// Split the image rows between slices.
func (tm *TileManager) sliceHeights(imageH, sliceNum int) []int {
	heights := make([]int, sliceNum)
	if tm.opts.Scheduler != nil && len(tm.opts.Devices) == sliceNum && sliceNum > 1 {
		assignment := tm.opts.Scheduler.Schedule(tm.opts.Devices, uint32(imageH))
		for slice, rows := range assignment {
			heights[slice] = int(rows)
		}
		return heights
	}

	for slice := 0; slice < sliceNum; slice++ {
		heights[slice] = imageH / sliceNum
	}
	heights[sliceNum-1] = imageH - (sliceNum-1)*(imageH/sliceNum)
	return heights
}

// Sort a device queue by the configured tile order.
func (tm *TileManager) sortTiles(queue []int, center [2]float32) {
	tiles := tm.state.tiles
	less := func(i, j int) bool {
		a, b := &tiles[queue[i]], &tiles[queue[j]]
		switch tm.opts.Order {
		case TileOrderCenter:
			return centerDistSq(a, center) < centerDistSq(b, center)
		case TileOrderLeftToRight:
			if a.X == b.X {
				return a.Y < b.Y
			}
			return a.X < b.X
		case TileOrderRightToLeft:
			if a.X == b.X {
				return a.Y < b.Y
			}
			return a.X > b.X
		case TileOrderTopToBottom:
			if a.Y == b.Y {
				return a.X < b.X
			}
			return a.Y < b.Y
		default:
			if a.Y == b.Y {
				return a.X < b.X
			}
			return a.Y > b.Y
		}
	}
	sort.SliceStable(queue, less)
}

func centerDistSq(t *Tile, center [2]float32) float32 {
	dx := center[0] - float32(t.X+t.W/2)
	dy := center[1] - float32(t.Y+t.H/2)
	return dx*dx + dy*dy
}

// Get the power of two divider that brings the image below startResolution
// pixels per axis.
func getDivider(w, h, startResolution int) int {
	divider := 1
	if startResolution <= 0 || startResolution == math.MaxInt32 {
		return divider
	}

	for w*h > startResolution*startResolution {
		w = maxInt(1, w/2)
		h = maxInt(1, h/2)
		divider <<= 1
	}
	return divider
}

func divideUp(x, y int) int {
	return (x + y - 1) / y
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
