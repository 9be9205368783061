package id

import (
	"crypto/rand"
	"fmt"
	"io"
)

// 26 upper + 26 lower + 10 digits + 2 symbols. With 64 symbols a random
// byte masked to 6 bits picks each one with equal probability.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// Alphabet exposes the code alphabet.
func Alphabet() string { return alphabet }

// Generator draws codes from an entropy source.
type Generator struct {
	src io.Reader
}

// NewGenerator returns a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{src: rand.Reader}
}

// NewGeneratorFrom returns a generator reading entropy from src.
func NewGeneratorFrom(src io.Reader) *Generator {
	return &Generator{src: src}
}

// NextCode returns length symbols drawn uniformly, with replacement, from the alphabet.
// It panics if length is not positive or the entropy source fails.
func (g *Generator) NextCode(length int) string {
	if length <= 0 {
		panic(fmt.Sprintf("id: code length must be positive, got %d", length))
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(g.src, buf); err != nil {
		panic(fmt.Sprintf("id: read entropy: %v", err))
	}
	for i, b := range buf {
		buf[i] = alphabet[b&63]
	}
	return string(buf)
}
