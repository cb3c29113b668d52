package blockchain

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const wordSize = 32

var (
	// ErrShortReturnData marks return data smaller than the decoded type needs.
	ErrShortReturnData = errors.New("return data too short")

	// ErrLengthOutOfBounds marks a string length word pointing past the
	// end of the return data.
	ErrLengthOutOfBounds = errors.New("string length out of bounds")
)

// wordReader provides bounds-checked access to the 32-byte words of ABI
// return data.
type wordReader struct {
	data []byte
}

// word returns the i-th 32-byte word.
func (r wordReader) word(i int) ([]byte, error) {
	start := i * wordSize
	end := start + wordSize
	if end > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrShortReturnData, end, len(r.data))
	}
	return r.data[start:end], nil
}

// uintWord reads the i-th word as an unsigned integer. Words with bits set
// beyond 64 are rejected, they can never address real return data.
func (r wordReader) uintWord(i int) (uint64, error) {
	w, err := r.word(i)
	if err != nil {
		return 0, err
	}
	for _, b := range w[:wordSize-8] {
		if b != 0 {
			return 0, fmt.Errorf("%w: length word overflows uint64", ErrLengthOutOfBounds)
		}
	}
	return binary.BigEndian.Uint64(w[wordSize-8:]), nil
}

// DecodeUint32 decodes a solidity uint32 return value. The value occupies
// the trailing 4 bytes of the big-endian return word; shorter-than-word
// payloads are tolerated as long as those 4 bytes exist.
func DecodeUint32(raw []byte) (uint32, error) {
	if len(raw) < 4 {
		return 0, fmt.Errorf("%w: need at least 4 bytes, have %d", ErrShortReturnData, len(raw))
	}
	return binary.BigEndian.Uint32(raw[len(raw)-4:]), nil
}

// DecodeUint32Strict decodes a solidity uint32 return value and requires
// the payload to be exactly one ABI word.
func DecodeUint32Strict(raw []byte) (uint32, error) {
	if len(raw) != wordSize {
		return 0, fmt.Errorf("%w: need exactly %d bytes, have %d", ErrShortReturnData, wordSize, len(raw))
	}
	return binary.BigEndian.Uint32(raw[wordSize-4:]), nil
}

// DecodeString decodes a solidity string return value laid out as an offset
// word, a length word and the raw payload bytes.
func DecodeString(raw []byte) (string, error) {
	if len(raw) < 3*wordSize {
		return "", fmt.Errorf("%w: need at least %d bytes, have %d", ErrShortReturnData, 3*wordSize, len(raw))
	}

	r := wordReader{data: raw}
	n, err := r.uintWord(1)
	if err != nil {
		return "", err
	}

	available := uint64(len(raw) - 2*wordSize)
	if n > available {
		return "", fmt.Errorf("%w: length %d exceeds %d available bytes", ErrLengthOutOfBounds, n, available)
	}

	return string(raw[2*wordSize : 2*wordSize+int(n)]), nil
}
