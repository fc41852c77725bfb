// Package mark converts watermark payloads to and from the bit sequences
// carried by an image.
//
// Every payload is shuffled with a seed (the watermark password) before it
// is embedded, so neighbouring bits land in unrelated blocks and a wrong
// password yields noise instead of a readable mark.
package mark

import "math/rand"

type (
	// Option selects the error correction used for text payloads.
	Option func(*Codec)

	Codec struct {
		seed int64
		ecc  ecc
	}

	ecc interface {
		encode(bits []bool) []bool
		decode(bits []bool, size int) []bool
		encodedLen(size int) int
	}
)

// WithoutECC embeds text bits as they are.
func WithoutECC() Option {
	return func(c *Codec) {
		c.ecc = withoutecc{}
	}
}

// WithGolay protects text with the extended Golay(24,12) code. This is the
// default.
func WithGolay() Option {
	return func(c *Codec) {
		c.ecc = golayecc{}
	}
}

// New returns a Codec shuffling with seed.
func New(seed int64, opts ...Option) *Codec {
	c := &Codec{seed: seed, ecc: golayecc{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) permutation(length int) []int {
	index := make([]int, length)
	for i := range index {
		index[i] = i
	}
	rd := rand.New(rand.NewSource(c.seed))
	rd.Shuffle(length, func(i, j int) {
		index[i], index[j] = index[j], index[i]
	})
	return index
}

func shuffle[T any](c *Codec, data []T) []T {
	index := c.permutation(len(data))
	out := make([]T, len(data))
	for i := range out {
		out[i] = data[index[i]]
	}
	return out
}

func unshuffle[T any](c *Codec, data []T) []T {
	index := c.permutation(len(data))
	out := make([]T, len(data))
	for i := range data {
		out[index[i]] = data[i]
	}
	return out
}
