package debugger

import (
	"fmt"
	"sort"
	"strings"
)

// Breakpoint represents a breakpoint at an instruction address
type Breakpoint struct {
	Addr     int
	Enabled  bool
	HitCount int
}

func (b *Breakpoint) String() string {
	state := "enabled"
	if !b.Enabled {
		state = "disabled"
	}
	return fmt.Sprintf("breakpoint at %d (%s, hit %d times)", b.Addr, state, b.HitCount)
}

// BreakpointManager manages breakpoints by instruction address
type BreakpointManager struct {
	points map[int]*Breakpoint
}

// NewBreakpointManager creates an empty breakpoint manager
func NewBreakpointManager() *BreakpointManager {
	return &BreakpointManager{points: make(map[int]*Breakpoint)}
}

// Add sets a breakpoint at addr, enabling it if it already exists
func (bm *BreakpointManager) Add(addr int) *Breakpoint {
	if bp, ok := bm.points[addr]; ok {
		bp.Enabled = true
		return bp
	}
	bp := &Breakpoint{Addr: addr, Enabled: true}
	bm.points[addr] = bp
	return bp
}

// Remove deletes the breakpoint at addr, reporting whether one existed
func (bm *BreakpointManager) Remove(addr int) bool {
	if _, ok := bm.points[addr]; !ok {
		return false
	}
	delete(bm.points, addr)
	return true
}

// Toggle flips the breakpoint at addr: none -> set, set -> removed
func (bm *BreakpointManager) Toggle(addr int) {
	if _, ok := bm.points[addr]; ok {
		delete(bm.points, addr)
		return
	}
	bm.Add(addr)
}

// ShouldBreak reports whether an enabled breakpoint exists at addr and
// records the hit
func (bm *BreakpointManager) ShouldBreak(addr int) bool {
	bp, ok := bm.points[addr]
	if !ok || !bp.Enabled {
		return false
	}
	bp.HitCount++
	return true
}

// List returns all breakpoints ordered by address
func (bm *BreakpointManager) List() []*Breakpoint {
	list := make([]*Breakpoint, 0, len(bm.points))
	for _, bp := range bm.points {
		list = append(list, bp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Addr < list[j].Addr })
	return list
}

// Clear removes all breakpoints
func (bm *BreakpointManager) Clear() {
	bm.points = make(map[int]*Breakpoint)
}

func (bm *BreakpointManager) String() string {
	list := bm.List()
	if len(list) == 0 {
		return "no breakpoints set"
	}
	var sb strings.Builder
	for _, bp := range list {
		sb.WriteString(bp.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
