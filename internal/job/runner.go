// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoCompressor - 按目标大小压缩视频

package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZSC714725/videocompressor/internal/ffmpeg"
	"github.com/ZSC714725/videocompressor/internal/ffmpeg/plan"
	"github.com/ZSC714725/videocompressor/internal/logger"
	"github.com/ZSC714725/videocompressor/internal/metrics"

	"github.com/lithammer/shortuuid/v4"
)

// Request to compress one file
type Request struct {
	Input    string `json:"input"`
	TargetMB int    `json:"target_size_mb"`
}

// Runner owns the single job slot
type Runner interface {
	// Submit validates and probes the input, then starts the encode in
	// the background. It fails with ErrBusy while another job holds the slot.
	Submit(ctx context.Context, req Request) (*Job, error)
	Get(id string) (*Job, error)
	// List returns jobs newest first
	List() []*Job
	// Subscribe streams the events of a job. The channel is closed after
	// the terminal event or when cancel is called. Progress events are
	// dropped for subscribers that fall behind.
	Subscribe(id string) (<-chan Event, func(), error)
	Busy() bool
	// Wait blocks until the running encode (if any) has exited and its
	// events have been handed to the notifiers
	Wait()
}

// Config for the runner
type Config struct {
	FFmpeg      ffmpeg.FFmpeg
	Logger      logger.Logger
	Notifiers   []Notifier
	MinTargetMB int
	MaxTargetMB int
	// History is how many finished jobs are kept
	History int
	// Context bounds every encode; cancelling it interrupts the encoder
	Context context.Context
	// NotifyTimeout bounds one Notify call, 2s by default
	NotifyTimeout time.Duration
}

// notifyQueue is how many events may wait for the notifiers
const notifyQueue = 64

type runner struct {
	ffmpeg    ffmpeg.FFmpeg
	logger    logger.Logger
	notifiers []Notifier
	minTarget int
	maxTarget int
	history   int
	ctx       context.Context

	notifyTimeout time.Duration
	queue         chan Event
	pending       sync.WaitGroup

	hub    *hub
	jobs   map[string]*Job
	order  []string
	active string
	lock   sync.RWMutex
	wg     sync.WaitGroup
}

// NewRunner creates a runner
func NewRunner(config Config) Runner {
	r := &runner{
		ffmpeg:        config.FFmpeg,
		logger:        config.Logger,
		notifiers:     config.Notifiers,
		minTarget:     config.MinTargetMB,
		maxTarget:     config.MaxTargetMB,
		history:       config.History,
		ctx:           config.Context,
		notifyTimeout: config.NotifyTimeout,
		hub:           newHub(),
		jobs:          make(map[string]*Job),
	}
	if r.logger == nil {
		r.logger = logger.Nop()
	}
	if r.minTarget <= 0 {
		r.minTarget = 1
	}
	if r.maxTarget < r.minTarget {
		r.maxTarget = 500
	}
	if r.history <= 0 {
		r.history = 50
	}
	if r.ctx == nil {
		r.ctx = context.Background()
	}
	if r.notifyTimeout <= 0 {
		r.notifyTimeout = 2 * time.Second
	}
	if len(r.notifiers) > 0 {
		r.queue = make(chan Event, notifyQueue)
		go r.dispatch()
	}
	return r
}

func (r *runner) Submit(ctx context.Context, req Request) (*Job, error) {
	if req.TargetMB < r.minTarget || req.TargetMB > r.maxTarget {
		metrics.JobsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, fmt.Errorf("%w: %d MB not in [%d, %d]", ErrInvalidTarget, req.TargetMB, r.minTarget, r.maxTarget)
	}
	input, err := r.checkInput(req.Input)
	if err != nil {
		metrics.JobsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}

	job, err := r.reserve(input, req.TargetMB)
	if err != nil {
		metrics.JobsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}
	r.logger.Info("job %s: probing %s", job.ID, input)

	duration, err := r.ffmpeg.Probe(ctx, input)
	if err != nil {
		metrics.ProbeFailures.Inc()
		err = fmt.Errorf("%w: %w", ErrProbe, err)
		r.reject(job, err)
		return job, err
	}

	planReq, err := plan.NewRequest(duration, req.TargetMB)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrProbe, err)
		r.reject(job, err)
		return job, err
	}
	params := planReq.Plan()
	job.planned(duration, params.VideoBitrate, params.AudioBitrate)
	metrics.PlannedVideoBitrate.Observe(float64(params.VideoBitrate))
	r.logger.Info("job %s: duration %.2fs, target %d MB, video %d bps", job.ID, duration, req.TargetMB, params.VideoBitrate)

	r.wg.Add(1)
	go r.run(job, params)

	return job, nil
}

// checkInput returns the cleaned path of an existing regular file that
// matches the input validator.
func (r *runner) checkInput(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidInput)
	}
	input = filepath.Clean(input)
	if !r.ffmpeg.ValidateInput(input) {
		return "", fmt.Errorf("%w: %s is not an accepted video file", ErrInvalidInput, input)
	}
	info, err := os.Stat(input)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrInvalidInput, input)
	}
	return input, nil
}

// reserve takes the job slot and records a new job in probing state
func (r *runner) reserve(input string, targetMB int) (*Job, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.active != "" {
		return nil, ErrBusy
	}

	job := newJob(shortuuid.New(), input, plan.OutputPath(input), targetMB)
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	r.active = job.ID
	r.trim()

	metrics.JobRunning.Set(1)
	metrics.JobProgress.Set(0)
	return job, nil
}

// trim drops the oldest finished jobs beyond the history limit
func (r *runner) trim() {
	for len(r.order) > r.history {
		idx := -1
		for i, id := range r.order {
			if id != r.active {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		delete(r.jobs, r.order[idx])
		r.order = append(r.order[:idx], r.order[idx+1:]...)
	}
}

func (r *runner) release(id string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.active == id {
		r.active = ""
		metrics.JobRunning.Set(0)
	}
}

// reject fails a job that never reached the encoder
func (r *runner) reject(job *Job, err error) {
	job.fail(err)
	r.logger.Error("job %s: %v", job.ID, err)
	metrics.JobsTotal.WithLabelValues(metrics.ResultRejected).Inc()
	r.release(job.ID)
	r.emit(Event{JobID: job.ID, Type: EventFailed, Percent: job.Percent(), Error: err.Error()})
}

func (r *runner) run(job *Job, params plan.Parameters) {
	defer r.wg.Done()

	parser := r.ffmpeg.NewParser(ffmpeg.ParserConfig{
		Duration: job.Info().Duration,
		OnPercent: func(pct int) {
			job.setPercent(pct)
			metrics.JobProgress.Set(float64(pct))
			r.emit(Event{JobID: job.ID, Type: EventProgress, Percent: pct})
		},
		OnSkip: func(line string) {
			metrics.ProgressLinesSkipped.Inc()
			r.logger.Debug("job %s: unparsable status line %q", job.ID, line)
		},
	})

	proc, err := r.ffmpeg.New(ffmpeg.ProcessConfig{
		Args:   plan.Args(job.Input, job.Output, params),
		Parser: parser,
		Logger: r.logger,
		OnStart: func(pid int) {
			r.logger.Info("job %s: encoder started, pid %d", job.ID, pid)
		},
		OnStateChange: func(from, to string) {
			r.logger.Debug("job %s: encoder %s -> %s", job.ID, from, to)
		},
	})
	if err != nil {
		r.failed(job, fmt.Errorf("%w: %w", ErrEncodeFailed, err))
		return
	}

	job.attach(proc, parser)
	r.emit(Event{JobID: job.ID, Type: EventStarted})

	start := time.Now()
	err = proc.Run(r.ctx)
	metrics.JobDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		r.failed(job, fmt.Errorf("%w: %w", ErrEncodeFailed, err))
		return
	}
	if info, statErr := os.Stat(job.Output); statErr != nil || !info.Mode().IsRegular() {
		r.failed(job, fmt.Errorf("%w: %s", ErrOutputMissing, job.Output))
		return
	}

	job.finish()
	metrics.JobsTotal.WithLabelValues(metrics.ResultFinished).Inc()
	metrics.JobProgress.Set(100)
	r.logger.Info("job %s: finished, output %s", job.ID, job.Output)
	// 先释放任务槽, 收到终态事件的客户端可立即提交下一个任务
	r.release(job.ID)
	r.emit(Event{JobID: job.ID, Type: EventFinished, Percent: 100, Output: job.Output})
}

func (r *runner) failed(job *Job, err error) {
	job.fail(err)
	metrics.JobsTotal.WithLabelValues(metrics.ResultFailed).Inc()
	r.logger.Error("job %s: %v", job.ID, err)
	r.release(job.ID)
	r.emit(Event{JobID: job.ID, Type: EventFailed, Percent: job.Percent(), Error: err.Error()})
}

// emit never waits on a notifier: it runs on the encoder's stderr reader.
// Progress events are dropped when the notify queue is full, terminal
// events are always queued.
func (r *runner) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	r.hub.publish(ev)

	if r.queue == nil {
		return
	}
	r.pending.Add(1)
	if ev.Terminal() {
		r.queue <- ev
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.pending.Done()
		metrics.NotificationsDropped.Inc()
	}
}

// dispatch hands queued events to the notifiers in order
func (r *runner) dispatch() {
	for ev := range r.queue {
		for _, n := range r.notifiers {
			ctx, cancel := context.WithTimeout(context.Background(), r.notifyTimeout)
			if err := n.Notify(ctx, ev); err != nil {
				r.logger.Error("job %s: notify %s: %v", ev.JobID, ev.Type, err)
			}
			cancel()
		}
		r.pending.Done()
	}
}

func (r *runner) Get(id string) (*Job, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}

func (r *runner) List() []*Job {
	r.lock.RLock()
	defer r.lock.RUnlock()
	list := make([]*Job, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		list = append(list, r.jobs[r.order[i]])
	}
	return list
}

func (r *runner) Subscribe(id string) (<-chan Event, func(), error) {
	job, err := r.Get(id)
	if err != nil {
		return nil, nil, err
	}

	ch, cancel := r.hub.subscribe(id)

	// 已结束的任务直接补发终态事件
	info := job.Info()
	if info.State.Done() {
		ev := Event{JobID: id, Type: EventFinished, Percent: info.Percent, Output: info.Output, Time: time.Now()}
		if info.State == StateFailed {
			ev.Type = EventFailed
			ev.Output = ""
			ev.Error = info.Error
		}
		r.hub.publish(ev)
	}
	return ch, cancel, nil
}

func (r *runner) Busy() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.active != ""
}

func (r *runner) Wait() {
	r.wg.Wait()
	r.pending.Wait()
}
