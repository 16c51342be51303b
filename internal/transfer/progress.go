package transfer

import "sync"

// Status is the lifecycle state of one chunk transfer.
type Status string

const (
	StatusProgress Status = "progress"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// ProgressStatus is the state of one chunk. Percentage is 0..100.
type ProgressStatus struct {
	Status     Status
	Percentage int
}

// Terminal reports whether no further events follow.
func (p ProgressStatus) Terminal() bool {
	return p.Status == StatusComplete || p.Status == StatusError
}

// ChunkEvent is delivered to a ProgressFunc whenever a chunk advances.
// FilePercentage is the byte-weighted progress of the whole file. Chunk is
// the server acknowledgement on complete; Err is set on error.
type ChunkEvent struct {
	FileID         string
	ChunkIndex     int
	TotalChunks    int
	Status         ProgressStatus
	FilePercentage int
	Chunk          *EncryptedChunk
	Err            error
}

// ProgressFunc observes an upload. Calls are serialized.
type ProgressFunc func(ChunkEvent)

// progressTracker enforces the event rules for a set of chunks: progress
// percentages never go down, and each chunk emits exactly one terminal
// event after which it is silent.
type progressTracker struct {
	mu     sync.Mutex
	fileID string
	states []ProgressStatus
	sizes  []int64
	done   []int64
	total  int64
	fn     ProgressFunc
}

func newProgressTracker(fileID string, ranges []ChunkRange, fn ProgressFunc) *progressTracker {
	t := &progressTracker{
		fileID: fileID,
		states: make([]ProgressStatus, len(ranges)),
		sizes:  make([]int64, len(ranges)),
		done:   make([]int64, len(ranges)),
		fn:     fn,
	}
	for i, r := range ranges {
		t.states[i] = ProgressStatus{Status: StatusProgress}
		t.sizes[i] = r.Length
		t.total += r.Length
	}
	return t
}

// progress records sent/total request bytes for chunk i.
func (t *progressTracker) progress(i int, sent, total int64) {
	pct := 0
	if total > 0 {
		pct = int(sent * 100 / total)
	}
	// 100 is reserved for the acknowledged chunk.
	pct = min(pct, 99)

	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.states[i]
	if st.Terminal() || pct <= st.Percentage {
		return
	}
	t.states[i] = ProgressStatus{Status: StatusProgress, Percentage: pct}
	t.done[i] = t.sizes[i] * int64(pct) / 100
	t.emit(i, nil, nil)
}

func (t *progressTracker) complete(i int, ack *EncryptedChunk) {
	t.finish(i, ProgressStatus{Status: StatusComplete, Percentage: 100}, ack, nil)
}

// fail keeps the last reported percentage.
func (t *progressTracker) fail(i int, err error) {
	t.finish(i, ProgressStatus{Status: StatusError}, nil, err)
}

func (t *progressTracker) finish(i int, st ProgressStatus, ack *EncryptedChunk, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.states[i].Terminal() {
		return
	}
	if st.Status == StatusError {
		st.Percentage = t.states[i].Percentage
	}
	t.states[i] = st
	if st.Status == StatusComplete {
		t.done[i] = t.sizes[i]
	}
	t.emit(i, ack, err)
}

// snapshot returns a copy of every chunk status.
func (t *progressTracker) snapshot() []ProgressStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ProgressStatus(nil), t.states...)
}

// emit must be called with mu held.
func (t *progressTracker) emit(i int, ack *EncryptedChunk, err error) {
	if t.fn == nil {
		return
	}
	t.fn(ChunkEvent{
		FileID:         t.fileID,
		ChunkIndex:     i,
		TotalChunks:    len(t.states),
		Status:         t.states[i],
		FilePercentage: t.filePercentage(),
		Chunk:          ack,
		Err:            err,
	})
}

func (t *progressTracker) filePercentage() int {
	var done int64
	terminal := 0
	for i := range t.done {
		done += t.done[i]
		if t.states[i].Status == StatusComplete {
			terminal++
		}
	}
	if terminal == len(t.states) {
		return 100
	}
	if t.total == 0 {
		return 0
	}
	return int(min(done*100/t.total, 99))
}
