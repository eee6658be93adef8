package transport

import (
	"sync"
)

// bufferPool recycles the 9000-byte buffers used by Receive, avoiding an
// allocation on every incoming datagram.
var bufferPool = sync.Pool{
	New: func() interface{} {
		// RFC 6762 §17: mDNS messages can exceed 512 bytes (jumbo frames up to 9000).
		buf := make([]byte, 9000)
		return &buf
	},
}

// GetBuffer returns a pointer to a 9000-byte buffer from the pool.
// Callers must return it with PutBuffer (typically via defer).
func GetBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// PutBuffer zeroes and returns a buffer to the pool. The buffer must not
// be used again after this call.
func PutBuffer(bufPtr *[]byte) {
	buf := *bufPtr
	for i := range buf {
		buf[i] = 0
	}

	bufferPool.Put(bufPtr)
}
