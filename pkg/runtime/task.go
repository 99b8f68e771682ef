package runtime

import "sync"

// TaskStatus tracks the lifecycle of a background task.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskResolved
	TaskFailed
)

// TaskValue is the handle an async function call gives back. "waiting for"
// blocks on Await and either yields the result or re-raises the failure.
type TaskValue struct {
	mu     sync.Mutex
	done   *sync.Cond
	status TaskStatus
	result Value
	err    error
}

func NewTask() *TaskValue {
	t := &TaskValue{}
	t.done = sync.NewCond(&t.mu)
	return t
}

func (t *TaskValue) Kind() Kind { return KindTask }

func (t *TaskValue) Resolve(val Value) {
	t.mu.Lock()
	if t.status == TaskPending {
		t.status = TaskResolved
		t.result = val
		t.done.Broadcast()
	}
	t.mu.Unlock()
}

func (t *TaskValue) Fail(err error) {
	t.mu.Lock()
	if t.status == TaskPending {
		t.status = TaskFailed
		t.err = err
		t.done.Broadcast()
	}
	t.mu.Unlock()
}

// Await blocks until the task settles.
func (t *TaskValue) Await() (Value, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.status == TaskPending {
		t.done.Wait()
	}
	if t.status == TaskFailed {
		return nil, t.err
	}
	return t.result, nil
}
