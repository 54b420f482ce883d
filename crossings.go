package breath

// crossings is a circular record of the grid indices of the last few
// committed zero crossings in one direction.
type crossings struct {
	buffer [3]uint64
	idx    int
	count  int
}

// push records a crossing at grid index n.
func (c *crossings) push(n uint64) {
	c.idx++
	c.idx %= len(c.buffer)
	c.buffer[c.idx] = n
	c.count++
}

// rewind discards the latest crossing, as if it was never detected.
func (c *crossings) rewind() {
	c.idx += len(c.buffer) - 1
	c.idx %= len(c.buffer)
	if c.count > 0 {
		c.count--
	}
}

// last returns the index of the latest crossing.
func (c *crossings) last() uint64 {
	return c.buffer[c.idx]
}

// prev returns the index of the crossing before the latest one.
func (c *crossings) prev() uint64 {
	return c.buffer[(c.idx+len(c.buffer)-1)%len(c.buffer)]
}

// period estimates the length in grid points of the cycle in progress: the
// last full cycle, or the running one once it has grown longer.
func (c *crossings) period(n uint64) uint64 {
	last, prev := c.last(), c.prev()
	if last < prev || n < last {
		return n - min(n, last)
	}
	return max(last-prev, n-last)
}
