// Copyright 2024 The CloudStor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package oss

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cloudstor/oss-go-sdk/util/taskpool"
)

// CancelToken is the cooperative cancellation flag a task observes at
// chunk boundaries.
type CancelToken struct {
	flag int32
}

// NewCancelToken returns an uncancelled token.
func NewCancelToken() *CancelToken { return &CancelToken{} }

// Cancel flips the token; in-flight transfers stop at the next chunk.
func (t *CancelToken) Cancel() { atomic.StoreInt32(&t.flag, 1) }

// Cancelled reports whether Cancel was called.
func (t *CancelToken) Cancelled() bool { return atomic.LoadInt32(&t.flag) == 1 }

// AsyncTask a handle on one submitted execution.
type AsyncTask struct {
	ID    string
	token *CancelToken
}

// Cancel requests cooperative cancellation of the task.
func (t *AsyncTask) Cancel() { t.token.Cancel() }

// AsyncHandler receives the outcome of an async execution. Exactly one
// of resp and err is non-nil.
type AsyncHandler func(taskID string, resp *Response, err *Error)

// Dispatcher runs pipeline executions on a bounded worker pool.
type Dispatcher struct {
	pool   taskpool.TaskPool
	mu     sync.Mutex
	closed bool
}

// NewDispatcher starts workers goroutines with a queue of the same size.
func NewDispatcher(workers int) *Dispatcher {
	return &Dispatcher{pool: taskpool.New(workers, workers)}
}

// Submit queues one execution. The run function observes the task's
// token at chunk boundaries; cancelled tasks complete with code
// Cancelled. Submit fails after Close.
func (d *Dispatcher) Submit(run func(token *CancelToken) (*Response, *Error), handler AsyncHandler) (*AsyncTask, error) {
	task := &AsyncTask{ID: uuid.NewString(), token: NewCancelToken()}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, clientError(CodeClientDisabled, "dispatcher is shut down")
	}
	d.pool.Run(func() {
		if task.token.Cancelled() {
			handler(task.ID, nil, clientError(CodeCancelled, "task cancelled before execution"))
			return
		}
		resp, err := run(task.token)
		if err != nil && task.token.Cancelled() {
			err = clientError(CodeCancelled, "task cancelled during execution")
		}
		handler(task.ID, resp, err)
	})
	d.mu.Unlock()
	return task, nil
}

// Close stops accepting tasks and drains queued ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.pool.Close()
}
