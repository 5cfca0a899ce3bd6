package exporter

// ProgressEvent 导出进度事件
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
}

// progressReporter 进度百分比单调不减，相同百分比只上报一次
type progressReporter struct {
	fn   func(ProgressEvent)
	last int
}

func newProgressReporter(fn func(ProgressEvent)) *progressReporter {
	return &progressReporter{fn: fn, last: -1}
}

func (r *progressReporter) report(percent int, stage string) {
	if r.fn == nil {
		return
	}
	percent = min(max(percent, 0), 100)
	if percent <= r.last {
		return
	}
	r.last = percent
	r.fn(ProgressEvent{Percent: percent, Stage: stage})
}
