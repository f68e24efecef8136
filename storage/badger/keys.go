package badger

import "encoding/binary"

// Key prefixes for different data types
const (
	matrixPrefix    = "matrix:"
	matrixHeaderKey = "matrix:header"
	matrixRowPrefix = "matrix:row:"
	ledgerKey       = "ledger:doc"
)

// makeMatrixRowKey generates a key for matrix row i.
// Format: prefix + big-endian index, so iteration yields rows in order.
func makeMatrixRowKey(i int) []byte {
	prefixBytes := []byte(matrixRowPrefix)
	buf := make([]byte, len(prefixBytes)+4)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint32(buf[offset:], uint32(i))
	return buf
}

// parseMatrixRowKey extracts the row index from a row key.
func parseMatrixRowKey(key []byte) (int, bool) {
	if len(key) != len(matrixRowPrefix)+4 {
		return 0, false
	}
	return int(binary.BigEndian.Uint32(key[len(matrixRowPrefix):])), true
}
