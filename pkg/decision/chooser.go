package decision

import (
	"math/rand/v2"
	"sync"
)

// Chooser picks the evasive direction when nothing in the frame says which
// side is clear. It must return MoveLeft or MoveRight.
type Chooser func() Move

// RandomChooser picks left or right uniformly. The same seed yields the same
// sequence, which lets tests and replays pin the outcome.
func RandomChooser(seed uint64) Chooser {
	var mu sync.Mutex
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func() Move {
		mu.Lock()
		defer mu.Unlock()
		if r.IntN(2) == 0 {
			return MoveLeft
		}
		return MoveRight
	}
}

// FixedChooser always returns m.
func FixedChooser(m Move) Chooser {
	return func() Move { return m }
}
