package gateway

import (
	"GateLink/logger"
)

type fanoutJob struct {
	conns   []*WsConn
	payload []byte
}

// Fanout delivers broadcast payloads into per-socket send queues. A single
// consumer goroutine processes jobs FIFO, so two broadcasts to the same
// socket are always enqueued in dispatch order; a worker pool here would
// break the per-socket ordering guarantee.
type Fanout struct {
	jobs chan fanoutJob
	stop chan struct{}
}

func NewFanout(queue int) *Fanout {
	if queue <= 0 {
		queue = 4096
	}
	f := &Fanout{
		jobs: make(chan fanoutJob, queue),
		stop: make(chan struct{}),
	}
	go f.loop()
	return f
}

func (f *Fanout) loop() {
	for {
		select {
		case <-f.stop:
			return
		case job := <-f.jobs:
			for _, c := range job.conns {
				c.Deliver(job.payload)
			}
		}
	}
}

// Broadcast enqueues one delivery job. Blocks briefly when the queue is
// full; per-socket slow-client handling happens in Deliver.
func (f *Fanout) Broadcast(conns []*WsConn, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	select {
	case f.jobs <- fanoutJob{conns: conns, payload: payload}:
	case <-f.stop:
		logger.Warnf("[fanout] stopped, drop broadcast to %d conns", len(conns))
	}
}

func (f *Fanout) Close() {
	close(f.stop)
}
