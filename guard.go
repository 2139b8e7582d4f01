package sway

// guard is an in-progress flag for a non-reentrant operation. enter returns
// ok == false when the operation is already on the call stack; otherwise the
// caller must invoke release when done.
type guard struct {
	busy bool
}

func (g *guard) enter() (release func(), ok bool) {
	if g.busy {
		return nil, false
	}
	g.busy = true
	return func() { g.busy = false }, true
}

func (g *guard) active() bool {
	return g.busy
}
