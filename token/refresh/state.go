package refresh

// state is either idle or refreshing. Waiters only exist while refreshing,
// and are handed out once when the state returns to idle.
type state interface {
	isState()
}

type idle struct{}

type refreshing struct {
	waiters []chan outcome
}

type outcome struct {
	access string
	err    error
}

func (idle) isState()        {}
func (*refreshing) isState() {}
