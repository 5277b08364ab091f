package pcan

import "fmt"

type Stats struct {
	Received  uint64
	Sent      uint64
	Errors    uint64
	Discarded uint64
}

func (st Stats) String() string {
	return fmt.Sprintf("recv: %d sent: %d errors: %d discarded: %d", st.Received, st.Sent, st.Errors, st.Discarded)
}

func (i *Interface) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats
}

func (i *Interface) count(fn func(*Stats)) {
	i.mu.Lock()
	fn(&i.stats)
	i.mu.Unlock()
}
