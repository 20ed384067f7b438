package concurrent

import "net"

// QueryRecord is one solved query as it gets persisted to the history store.
// It lives here rather than in pkg/kv so both the kv encoder and the job
// types below can share it without an import cycle.
type QueryRecord struct {
	Path     string
	SolvedAt int64 // unix nanoseconds
	Distance uint32
	Start    uint16
	Target   uint16
	Found    bool
}

type SaveRecordJobItem struct {
	Seq    uint64
	Record QueryRecord
}

type ConnJobItem struct {
	Conn net.Conn
}

type JobI interface {
	SaveRecordJobItem | ConnJobItem
}

type Job[T JobI] struct {
	ID      int
	JobItem T
}

type JobFunc[T JobI, G any] func(job T) G
