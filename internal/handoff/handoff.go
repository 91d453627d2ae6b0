// Package handoff carries a finished recording from the capture worker to
// the main loop.
package handoff

// Record is one tagged value pushed by the capture worker. The set of
// implementations is closed: SampleRate, AudioChunk and FilePath.
type Record interface {
	isRecord()
}

type (
	SampleRate int
	AudioChunk []int16
	FilePath   string
)

func (SampleRate) isRecord() {}
func (AudioChunk) isRecord() {}
func (FilePath) isRecord()   {}

// DefaultSampleRate is assumed when no SampleRate record arrives.
const DefaultSampleRate = 16000

// Capacity covers the three records of one successful session.
const Capacity = 3

// Queue is a single-producer, single-consumer mailbox. The consumer drains
// it only after the producer has returned.
type Queue struct {
	ch chan Record
}

func NewQueue() *Queue {
	return &Queue{ch: make(chan Record, Capacity)}
}

// Push enqueues r without blocking; it reports false if the queue is full.
func (q *Queue) Push(r Record) bool {
	select {
	case q.ch <- r:
		return true
	default:
		return false
	}
}

// Len is the number of records waiting.
func (q *Queue) Len() int { return len(q.ch) }

// Result is the classified contents of a drained queue.
type Result struct {
	SampleRate int
	Samples    []int16
	FilePath   string
}

// Empty reports whether no audio was recorded.
func (r Result) Empty() bool { return len(r.Samples) == 0 }

// Drain empties the queue and classifies each record by its type, so push
// order does not matter.
func (q *Queue) Drain() Result {
	res := Result{SampleRate: DefaultSampleRate}
	for {
		select {
		case rec := <-q.ch:
			switch v := rec.(type) {
			case SampleRate:
				res.SampleRate = int(v)
			case AudioChunk:
				res.Samples = append(res.Samples, v...)
			case FilePath:
				res.FilePath = string(v)
			}
		default:
			return res
		}
	}
}
