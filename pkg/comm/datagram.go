package comm

import (
	"go.uber.org/zap"
)

// recvLoop receives datagrams until the socket errors out. There is no
// notion of a peer: every datagram stands alone and any source is
// accepted, not just the configured remote.
func (c *Communicator) recvLoop() {
	defer c.wg.Done()

	buf := make([]byte, BufferSize)
	for {
		n, addr, err := c.pc.ReadFrom(buf)
		if err != nil {
			if c.running.Load() {
				c.log.Warn("receive failed", zap.Error(err))
			}
			return
		}
		c.deliver(buf[:n], addr)
	}
}
