// Package concurrency 고루틴 간 협력을 위한 보조 자료구조를 제공합니다.
package concurrency

import "sync"

// Queue 용량 제한이 없는 FIFO 큐입니다. Push는 절대 블로킹되지 않으며,
// 소비자는 Ready()로 알림을 받은 뒤 Drain()으로 쌓인 항목을 한 번에 가져갑니다.
//
// 이벤트 루프 자신이 처리 도중 새 이벤트를 넣어도(재진입) 교착 상태가 발생하지 않습니다.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	ready  chan struct{}
	closed bool
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Push 항목을 추가합니다. 닫힌 큐에서는 false를 반환하고 항목을 버립니다.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}

	return true
}

// Ready 큐에 항목이 추가되었음을 알리는 채널입니다. 알림은 합쳐질 수 있으므로 수신 후 반드시 Drain 해야 합니다.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Drain 쌓인 항목을 넣은 순서대로 모두 꺼냅니다.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Close 이후의 Push를 거부하고 남아 있던 항목을 반환합니다.
func (q *Queue[T]) Close() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	items := q.items
	q.items = nil
	return items
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
