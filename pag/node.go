package pag

import "time"

// PagNode is a single observation point in the activity graph: the pairing
// of a timestamp and a worker. The source runtime guarantees no two events
// share a (t, wid) pair, so PagNode doubles as a unique node identity.
type PagNode struct {
	T   time.Duration
	Wid WorkerID
}
