package utils

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/pkg/errors"
)

// EncodeSignature serializes a minhash signature as hex for storage.
func EncodeSignature(signature []uint64) string {
	buf := make([]byte, 8*len(signature))
	for i, v := range signature {
		binary.BigEndian.PutUint64(buf[i*8:], v)
	}
	return hex.EncodeToString(buf)
}

func DecodeSignature(encoded string) ([]uint64, error) {
	buf, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "malformed signature encoding")
	}
	if len(buf)%8 != 0 {
		return nil, errors.New("signature length is not a multiple of 8 bytes")
	}
	signature := make([]uint64, len(buf)/8)
	for i := range signature {
		signature[i] = binary.BigEndian.Uint64(buf[i*8:])
	}
	return signature, nil
}
