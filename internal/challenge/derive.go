package challenge

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
)

// Mode is the block cipher mode, numbered the way the challenge script
// numbers them.
type Mode int

const (
	ModeOFB Mode = 0
	ModeCFB Mode = 1
	ModeCBC Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeOFB:
		return "OFB"
	case ModeCFB:
		return "CFB"
	case ModeCBC:
		return "CBC"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Deriver turns challenge seeds into the value of the access cookie.
//
// note: fault injection point
type Deriver interface {
	Derive(seeds Seeds, mode Mode) (string, error)
}

// AESDeriver decrypts seed C with key A and IV B and hex encodes the result,
// which is what the challenge page computes before setting the cookie.
type AESDeriver struct{}

func (AESDeriver) Derive(seeds Seeds, mode Mode) (string, error) {
	block, err := aes.NewCipher(seeds.A)
	if err != nil {
		return "", fmt.Errorf("derive cookie: key: %w", err)
	}
	if len(seeds.B) != block.BlockSize() {
		return "", fmt.Errorf("derive cookie: iv must be %d bytes, got %d", block.BlockSize(), len(seeds.B))
	}
	if len(seeds.C) == 0 {
		return "", fmt.Errorf("derive cookie: empty ciphertext")
	}

	out := make([]byte, len(seeds.C))
	switch mode {
	case ModeCBC:
		if len(seeds.C)%block.BlockSize() != 0 {
			return "", fmt.Errorf("derive cookie: ciphertext is not a multiple of the block size")
		}
		cipher.NewCBCDecrypter(block, seeds.B).CryptBlocks(out, seeds.C)
		out = unpad(out, block.BlockSize())
	case ModeCFB:
		cipher.NewCFBDecrypter(block, seeds.B).XORKeyStream(out, seeds.C)
	case ModeOFB:
		cipher.NewOFB(block, seeds.B).XORKeyStream(out, seeds.C)
	default:
		return "", fmt.Errorf("derive cookie: unsupported mode %s", mode)
	}

	return hex.EncodeToString(out), nil
}

// unpad strips trailing padding bytes from multi-block plaintexts. A single
// block is returned untouched and malformed padding is kept as data.
func unpad(data []byte, blockSize int) []byte {
	if len(data) <= blockSize {
		return data
	}
	padByte := data[len(data)-1]
	if padByte == 0 || int(padByte) > blockSize {
		return data
	}
	for _, b := range data[len(data)-int(padByte):] {
		if b != padByte {
			return data
		}
	}
	return data[:len(data)-int(padByte)]
}
