package importer

import (
	"fmt"
	"sync"
	"time"
)

// progressCounter 统计已写入条数，每跨过一个 10% 档位发出一次 progress 事件
type progressCounter struct {
	mu    sync.Mutex
	total int
	done  int
	step  int
	next  int
	emit  func(ProgressEvent)
}

func newProgressCounter(total int, emit func(ProgressEvent)) *progressCounter {
	step := total / 10
	if step < 1 {
		step = 1
	}
	return &progressCounter{total: total, step: step, next: step, emit: emit}
}

func (p *progressCounter) add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done += n
	if p.done < p.next && p.done != p.total {
		return
	}
	for p.next <= p.done {
		p.next += p.step
	}
	p.emit(ProgressEvent{
		Type:      "progress",
		Message:   fmt.Sprintf("已写入 %d/%d", p.done, p.total),
		Data:      map[string]int{"written": p.done, "total": p.total},
		Timestamp: time.Now(),
	})
}

func (p *progressCounter) value() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
