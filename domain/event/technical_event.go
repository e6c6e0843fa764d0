package event

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

// QueueDepth is one sample of an internal buffered channel.
type QueueDepth struct {
	Queue    string
	Length   int
	Capacity int
}

// SelfStats is one resource sample of the running process.
type SelfStats struct {
	PID    int32
	RSS    uint64
	CPU    float64
	Status string
}
