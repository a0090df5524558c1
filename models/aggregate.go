package models

// GlobalAggregate mirrors the running totals over all accounts. It is
// maintained incrementally together with every per-account update, never
// recomputed from scratch.
type GlobalAggregate struct {
	Requests int64                  `json:"requests"`
	Usage    map[ResourceKind]int64 `json:"usage"`
}

// NewGlobalAggregate returns a zeroed aggregate
func NewGlobalAggregate() *GlobalAggregate {
	return &GlobalAggregate{Usage: make(map[ResourceKind]int64)}
}

// Clone returns a deep copy of the aggregate
func (g *GlobalAggregate) Clone() *GlobalAggregate {
	c := &GlobalAggregate{
		Requests: g.Requests,
		Usage:    make(map[ResourceKind]int64, len(g.Usage)),
	}
	for k, v := range g.Usage {
		c.Usage[k] = v
	}
	return c
}
