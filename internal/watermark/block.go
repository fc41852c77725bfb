package watermark

// BlockShape is the block size inside the low-frequency band, i.e. half of
// the block size requested for the full image.
type BlockShape [2]int

// NewBlockShape rounds width and height up to even numbers of at least 4
// and halves them.
func NewBlockShape(width, height int) BlockShape {
	if width%2 != 0 {
		width += 1
	}
	if height%2 != 0 {
		height += 1
	}
	if width < 4 {
		width = 4
	}
	if height < 4 {
		height = 4
	}
	return [2]int{width / 2, height / 2}
}

func (s BlockShape) Area() int {
	return s[0] * s[1]
}

// TotalBlocks returns how many whole blocks fit in the band of src.
func (s BlockShape) TotalBlocks(src *Source) int {
	return s.totalBlocks(src.waveWidth, src.waveHeight)
}

func (s BlockShape) totalBlocks(width, height int) int {
	if s.IsZero() {
		return 0
	}
	return (width / s[0]) * (height / s[1])
}

func (s BlockShape) IsZero() bool {
	return s[0] < 2 || s[1] < 2
}

func (s BlockShape) Width() int {
	return s[0]
}

func (s BlockShape) Height() int {
	return s[1]
}
