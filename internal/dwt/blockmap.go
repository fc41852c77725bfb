package dwt

// BlockMap addresses non-overlapping blocks inside a band. Blocks are
// numbered row-major; the right and bottom margins that do not fill a whole
// block are never visited.
type BlockMap struct {
	width       int // band width
	blockWidth  int
	blockHeight int
	countX      int
	countY      int
}

func NewBlockMap(w, h, bw, bh int) BlockMap {
	return BlockMap{
		width:       w,
		blockWidth:  bw,
		blockHeight: bh,
		countX:      w / bw,
		countY:      h / bh,
	}
}

// Len returns the number of whole blocks.
func (m BlockMap) Len() int {
	return m.countX * m.countY
}

// Area returns the number of samples in one block.
func (m BlockMap) Area() int {
	return m.blockWidth * m.blockHeight
}

// Gather copies block at into dst (row-major, len Area()).
func (m BlockMap) Gather(band []float32, at int, dst []float64) {
	start := m.origin(at)
	for by := range m.blockHeight {
		row := start + by*m.width
		for bx := range m.blockWidth {
			dst[by*m.blockWidth+bx] = float64(band[row+bx])
		}
	}
}

// Scatter writes src back to block at.
func (m BlockMap) Scatter(band []float32, at int, src []float64) {
	start := m.origin(at)
	for by := range m.blockHeight {
		row := start + by*m.width
		for bx := range m.blockWidth {
			band[row+bx] = float32(src[by*m.blockWidth+bx])
		}
	}
}

func (m BlockMap) origin(at int) int {
	bx, by := at%m.countX, at/m.countX
	return by*m.blockHeight*m.width + bx*m.blockWidth
}
