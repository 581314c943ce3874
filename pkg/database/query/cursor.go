package query

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
)

const cursorSize = 8

// Cursor is an opaque big-endian record id
type Cursor []byte

func ToCursor(id uint64) Cursor {
	b := make([]byte, cursorSize)
	binary.BigEndian.PutUint64(b, id)
	return b
}

func (c Cursor) ToUint64() uint64 {
	return binary.BigEndian.Uint64(c)
}

func (c Cursor) String() string {
	return base58.Encode(c)
}
