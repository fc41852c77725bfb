package mark

import (
	"github.com/yyyoichi/bitstream-go"
	"github.com/yyyoichi/golay"
)

var _ ecc = golayecc{}

type golayecc struct{}

func (golayecc) encode(bits []bool) []bool {
	if len(bits) == 0 {
		return nil
	}
	data, size := pack(bits)
	var encoded []uint64
	enc := golay.NewEncoder(&encoded)
	_ = enc.Encode(data, size)
	return unpack(encoded, enc.Bits())
}

func (golayecc) decode(bits []bool, size int) []bool {
	data, n := pack(bits)
	var decoded []uint64
	dec := golay.NewDecoder(data, n)
	_ = dec.Decode(&decoded)
	return unpack(decoded, size)
}

func (golayecc) encodedLen(size int) int {
	return golay.EncodedBits(size)
}

var _ ecc = withoutecc{}

type withoutecc struct{}

func (withoutecc) encode(bits []bool) []bool {
	return bits
}

func (withoutecc) decode(bits []bool, size int) []bool {
	return bits[:min(size, len(bits))]
}

func (withoutecc) encodedLen(size int) int {
	return size
}

func pack(bits []bool) ([]uint64, int) {
	w := bitstream.NewBitWriter[uint64](0, 0)
	for _, v := range bits {
		w.WriteBool(v)
	}
	return w.Data(), w.Bits()
}

// unpack reads size bits; bits beyond data read as false.
func unpack(data []uint64, size int) []bool {
	r := bitstream.NewBitReader(data, 0, 0)
	out := make([]bool, size)
	for i := range out {
		out[i], _ = r.ReadBitAt(i)
	}
	return out
}
