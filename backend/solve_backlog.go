package main

import (
	"errors"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type JobState string

const (
	JobStatePending JobState = "pending"
	JobStateRunning JobState = "running"
	JobStateDone    JobState = "done"
)

var (
	errQueueFull   = errors.New("job queue is full")
	errJobNotFound = errors.New("job not found")
	errJobRunning  = errors.New("job is running")
)

const (
	backlogPollInterval = 150 * time.Millisecond
	jobHistoryLimit     = 128
)

// SolveJob is a queued solve order. All mutable fields are guarded by the
// backlog mutex; handlers only ever see JobSnapshot copies.
type SolveJob struct {
	ID          string
	Key         uint64
	Spec        solveSpec
	Created     time.Time
	StartedAtMs int64
	State       JobState
	Hits        int
	Result      *SolveOutcome
}

// JobSnapshot is a point-in-time copy of a job, safe to use after the
// backlog mutex is released.
type JobSnapshot struct {
	ID          string
	State       JobState
	Start       Board
	Goal        Board
	Algorithm   string
	Heuristic   string
	Hits        int
	CreatedAtMs int64
	StartedAtMs int64
	Outcome     *SolveOutcome
}

// solveBacklog queues solve jobs, deduplicates repeats of the same request,
// and runs them on a small worker pool. Repeated submissions raise a job's
// hit count, which moves it ahead of colder jobs.
type solveBacklog struct {
	mu         sync.Mutex
	pending    []*SolveJob
	jobs       map[string]*SolveJob
	byKey      map[uint64]*SolveJob
	hub        *ProgressHub
	cache      *SolveCache
	paused     atomic.Bool
	idleLogged bool
}

func newSolveBacklog(cache *SolveCache, hub *ProgressHub) *solveBacklog {
	return &solveBacklog{
		jobs:       make(map[string]*SolveJob),
		byKey:      make(map[uint64]*SolveJob),
		cache:      cache,
		hub:        hub,
		idleLogged: true,
	}
}

// Enqueue adds a solve order to the backlog. A request already pending or
// running is not queued twice; the existing job gains a hit instead. The
// returned bool reports whether a new job was created.
func (b *solveBacklog) Enqueue(spec solveSpec) (JobSnapshot, bool, error) {
	key := SolveRequestKey(spec.Start, spec.Goal, spec.Algorithm, spec.Heuristic)
	b.mu.Lock()
	if existing, ok := b.byKey[key]; ok {
		existing.Hits++
		snap := snapshotJob(existing)
		payload := b.progressPayloadLocked("job_hit", existing, nil)
		b.mu.Unlock()
		b.publish(payload)
		return snap, false, nil
	}
	limit := GetConfig().JobQueueLimit
	if limit > 0 && len(b.pending) >= limit {
		b.mu.Unlock()
		return JobSnapshot{}, false, errQueueFull
	}
	job := &SolveJob{
		ID:      uuid.NewString(),
		Key:     key,
		Spec:    spec,
		Created: time.Now(),
		State:   JobStatePending,
	}
	b.pending = append(b.pending, job)
	b.jobs[job.ID] = job
	b.byKey[key] = job
	b.idleLogged = false
	snap := snapshotJob(job)
	payload := b.progressPayloadLocked("job_added", job, nil)
	b.mu.Unlock()
	b.publish(payload)
	return snap, true, nil
}

func (b *solveBacklog) Job(id string) (JobSnapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[id]
	if !ok {
		return JobSnapshot{}, false
	}
	return snapshotJob(job), true
}

// Jobs lists every known job, oldest first.
func (b *solveBacklog) Jobs() []JobSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]JobSnapshot, 0, len(b.jobs))
	for _, job := range b.jobs {
		out = append(out, snapshotJob(job))
	}
	sortJobSnapshots(out)
	return out
}

// Drop removes a pending job or a finished job record. A running job cannot
// be dropped; the search has no cancellation point.
func (b *solveBacklog) Drop(id string) error {
	var payload progressPayload
	b.mu.Lock()
	job, ok := b.jobs[id]
	if !ok {
		b.mu.Unlock()
		return errJobNotFound
	}
	switch job.State {
	case JobStateRunning:
		b.mu.Unlock()
		return errJobRunning
	case JobStatePending:
		for i, queued := range b.pending {
			if queued.ID == id {
				b.pending = append(b.pending[:i], b.pending[i+1:]...)
				break
			}
		}
		delete(b.byKey, job.Key)
		fallthrough
	default:
		delete(b.jobs, id)
	}
	payload = b.progressPayloadLocked("job_dropped", job, nil)
	b.mu.Unlock()
	b.publish(payload)
	return nil
}

func (b *solveBacklog) PendingLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Pause stops workers from picking up new jobs. Jobs already running finish
// normally.
func (b *solveBacklog) Pause() {
	if b.paused.CompareAndSwap(false, true) {
		logs().Info().Str("component", "jobs").Int("pending", b.PendingLen()).Msg("job queue paused")
	}
}

func (b *solveBacklog) Resume() {
	if b.paused.CompareAndSwap(true, false) {
		logs().Info().Str("component", "jobs").Msg("job queue resumed")
	}
}

func (b *solveBacklog) Paused() bool {
	return b.paused.Load()
}

func startJobWorkers(backlog *solveBacklog, done <-chan struct{}) {
	count := jobWorkerCount(GetConfig(), runtime.NumCPU())
	logs().Info().Str("component", "jobs").Int("workers", count).Msg("starting job workers")
	backlog.StartWorkers(done, count)
}

func jobWorkerCount(config Config, cpuCount int) int {
	if cpuCount < 1 {
		cpuCount = 1
	}
	workers := config.JobWorkers
	if workers <= 0 {
		workers = 1
	}
	if workers > cpuCount {
		workers = cpuCount
	}
	return workers
}

func (b *solveBacklog) StartWorkers(done <-chan struct{}, count int) {
	if count <= 0 {
		count = 1
	}
	for i := 0; i < count; i++ {
		go b.worker(done)
	}
}

func (b *solveBacklog) worker(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		if b.paused.Load() {
			if !sleepOrDone(done, backlogPollInterval) {
				return
			}
			continue
		}
		job, ok := b.nextJob()
		if !ok {
			b.logDrainedIfNeeded()
			if !sleepOrDone(done, backlogPollInterval) {
				return
			}
			continue
		}
		b.runJob(job)
	}
}

// nextJob claims the highest-priority pending job: most hits first, then
// oldest submission.
func (b *solveBacklog) nextJob() (*SolveJob, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil, false
	}
	best := 0
	for i := 1; i < len(b.pending); i++ {
		if jobBefore(b.pending[i], b.pending[best]) {
			best = i
		}
	}
	job := b.pending[best]
	b.pending = append(b.pending[:best], b.pending[best+1:]...)
	job.State = JobStateRunning
	job.StartedAtMs = time.Now().UnixMilli()
	return job, true
}

func jobBefore(a, b *SolveJob) bool {
	if a.Hits != b.Hits {
		return a.Hits > b.Hits
	}
	if !a.Created.Equal(b.Created) {
		return a.Created.Before(b.Created)
	}
	return a.ID < b.ID
}

func (b *solveBacklog) runJob(job *SolveJob) {
	config := GetConfig()
	b.publishJobEvent("job_started", job, nil)
	logs().Info().Str("component", "jobs").Str("job", job.ID).
		Str("algorithm", job.Spec.Algorithm).Str("heuristic", job.Spec.Heuristic).
		Msg("job started")

	opts := SearchOptions{ProgressEvery: config.ProgressEvery}
	if config.ProgressEvery > 0 {
		opts.OnProgress = b.progressRelay(job, config.ProgressThrottleMs)
	}
	outcome := solveWithCache(b.cache, job.Spec, opts)
	b.finishJob(job, &outcome)
}

// progressRelay forwards search progress to the hub, throttled so a long
// search does not flood watchers. Final reports always pass.
func (b *solveBacklog) progressRelay(job *SolveJob, throttleMs int) func(SearchProgress) {
	var lastPublish time.Time
	return func(p SearchProgress) {
		if b.hub == nil || !b.hub.HasClients() {
			return
		}
		if !p.Final && throttleMs > 0 {
			now := time.Now()
			if !lastPublish.IsZero() && now.Sub(lastPublish) < time.Duration(throttleMs)*time.Millisecond {
				return
			}
			lastPublish = now
		}
		b.publishJobEvent("job_progress", job, &p)
	}
}

func (b *solveBacklog) finishJob(job *SolveJob, outcome *SolveOutcome) {
	b.mu.Lock()
	job.State = JobStateDone
	job.Result = outcome
	delete(b.byKey, job.Key)
	b.pruneDoneLocked()
	payload := b.progressPayloadLocked("job_done", job, nil)
	b.mu.Unlock()
	b.publish(payload)
	logs().Info().Str("component", "jobs").Str("job", job.ID).
		Bool("found", outcome.Found).Bool("cached", outcome.Cached).
		Int("moves", len(outcome.Moves)).Int64("expanded", outcome.Stats.Expanded).
		Msg("job done")
}

// pruneDoneLocked caps the number of finished job records kept for
// retrieval, dropping the oldest first.
func (b *solveBacklog) pruneDoneLocked() {
	done := 0
	for _, job := range b.jobs {
		if job.State == JobStateDone {
			done++
		}
	}
	for done >= jobHistoryLimit {
		var oldest *SolveJob
		for _, job := range b.jobs {
			if job.State != JobStateDone {
				continue
			}
			if oldest == nil || job.Created.Before(oldest.Created) {
				oldest = job
			}
		}
		if oldest == nil {
			return
		}
		delete(b.jobs, oldest.ID)
		done--
	}
}

func (b *solveBacklog) logDrainedIfNeeded() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) != 0 || b.idleLogged {
		return
	}
	logs().Info().Str("component", "jobs").Msg("job queue drained")
	b.idleLogged = true
}

func (b *solveBacklog) publishJobEvent(event string, job *SolveJob, progress *SearchProgress) {
	b.mu.Lock()
	payload := b.progressPayloadLocked(event, job, progress)
	b.mu.Unlock()
	b.publish(payload)
}

func (b *solveBacklog) progressPayloadLocked(event string, job *SolveJob, progress *SearchProgress) progressPayload {
	dto := &jobEventDTO{
		ID:        job.ID,
		State:     string(job.State),
		Algorithm: job.Spec.Algorithm,
		Heuristic: job.Spec.Heuristic,
		Start:     job.Spec.Start.String(),
		Goal:      job.Spec.Goal.String(),
		Hits:      job.Hits,
	}
	if job.Result != nil {
		found := job.Result.Found
		dto.Found = &found
		dto.MoveCount = len(job.Result.Moves)
	}
	return progressPayload{
		Event:        event,
		Job:          dto,
		Progress:     progress,
		TotalInQueue: len(b.pending),
		UpdatedAt:    time.Now().UnixMilli(),
	}
}

func (b *solveBacklog) publish(payload progressPayload) {
	if b.hub == nil {
		return
	}
	b.hub.Publish(payload)
}

func snapshotJob(job *SolveJob) JobSnapshot {
	snap := JobSnapshot{
		ID:          job.ID,
		State:       job.State,
		Start:       job.Spec.Start,
		Goal:        job.Spec.Goal,
		Algorithm:   job.Spec.Algorithm,
		Heuristic:   job.Spec.Heuristic,
		Hits:        job.Hits,
		CreatedAtMs: job.Created.UnixMilli(),
		StartedAtMs: job.StartedAtMs,
	}
	if job.Result != nil {
		outcome := *job.Result
		snap.Outcome = &outcome
	}
	return snap
}

func sortJobSnapshots(jobs []JobSnapshot) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAtMs != jobs[j].CreatedAtMs {
			return jobs[i].CreatedAtMs < jobs[j].CreatedAtMs
		}
		return jobs[i].ID < jobs[j].ID
	})
}

// sleepOrDone waits out d unless done closes first. Reports false when the
// wait was interrupted.
func sleepOrDone(done <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return false
	case <-timer.C:
		return true
	}
}
