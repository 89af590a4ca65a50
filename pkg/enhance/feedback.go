package enhance

import (
	"sync"
	"time"
)

// feedback 管理控件的临时反馈状态
//
// 每次动作都有自己的计时器并取代上一次动作，旧计时器到期时不会覆盖新状态。
type feedback struct {
	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
}

func (f *feedback) flash(frag *Fragment, delay time.Duration, apply, revert func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	seq := f.seq
	if f.timer != nil {
		f.timer.Stop()
	}

	frag.with(apply)

	f.timer = time.AfterFunc(delay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.seq != seq {
			return
		}
		frag.with(revert)
	})
}

// stop 取消待执行的恢复
func (f *feedback) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
}
