package alloc

import (
	"github.com/joshuapare/heapcheck/heap/blocklist"
	"github.com/joshuapare/heapcheck/internal/format"
)

// Free releases the allocation at p. Free(Null) does nothing. Any other
// pointer must be the start of a live allocation; anything else is reported
// and aborts.
func (a *Allocator) Free(p Ptr, file string, line int) {
	if p == Null {
		return
	}

	node, v := a.check(p, file, line)
	if v != nil {
		a.fatal(v)
		return
	}

	a.stats.recordFree(node.PayloadSize())
	a.engine.FreeCalls++

	node.SetState(format.StateFree)
	node.SetEndMarker(0)
	node.SetSite(a.sites.intern(file), line)

	if err := a.coalesce(node); err != nil {
		a.fatal(&Violation{Err: ErrCorrupt, Ptr: p, File: file, Line: line, Detail: err})
		return
	}
	if err := a.retract(); err != nil {
		a.fatal(&Violation{Err: ErrCorrupt, Ptr: p, File: file, Line: line, Detail: err})
	}
}

// coalesce merges n with free list neighbours. The list is in descending
// address order, so prev sits directly above n and next directly below.
func (a *Allocator) coalesce(n blocklist.Node) error {
	if prev := n.Prev(); prev.Free() {
		if prev.Next().Off != n.Off {
			return blocklist.ErrBrokenLink
		}
		n.SetSize(n.Size() + prev.Size())
		if err := a.blocks.Remove(prev); err != nil {
			return err
		}
		a.engine.CoalesceUp++
		a.log.Debug("alloc: coalesce up", "block", n.Off, "size", n.Size())
	}

	if next := n.Next(); next.Free() {
		if next.Prev().Off != n.Off {
			return blocklist.ErrBrokenLink
		}
		next.SetSize(next.Size() + n.Size())
		if err := a.blocks.Remove(n); err != nil {
			return err
		}
		a.engine.CoalesceDown++
		a.log.Debug("alloc: coalesce down", "block", next.Off, "size", next.Size())
	}
	return nil
}

// retract gives the topmost block back to the arena when it is free.
func (a *Allocator) retract() error {
	head := a.blocks.Head()
	if !head.Free() {
		return nil
	}
	size := head.Size()
	if err := a.arena.Retract(size); err != nil {
		return err
	}
	if err := a.blocks.Remove(head); err != nil {
		return err
	}
	a.engine.Retractions++
	a.log.Debug("alloc: retract", "size", size, "pos", a.arena.Pos())
	return nil
}

// fatal reports v and hands control to the abort hook.
func (a *Allocator) fatal(v *Violation) {
	a.log.Error("alloc: memory bug",
		"reason", v.Err,
		"ptr", v.Ptr.String(),
		"site", v.File,
		"line", v.Line,
	)
	_ = v.Report(a.errOut)
	a.abort(v)
}
