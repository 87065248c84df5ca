package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventd/internal/platform/logger"
)

// JobFunc is the unit of work a job executes. Errors are logged and contained;
// they never affect the scheduler or other jobs. The context carries a
// job-scoped logger and is NOT cancelled on Stop: shutdown is cooperative and
// in-flight runs are allowed to finish (bounded by the caller's drain context).
type JobFunc func(ctx context.Context) error

// JobStatus is a point-in-time snapshot of one registered job, exposed
// through the operational endpoint.
type JobStatus struct {
	ID        string    `json:"id"`
	Trigger   string    `json:"trigger"`
	NextRun   time.Time `json:"next_run"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
}

// job is the scheduler's bookkeeping for one registered job.
type job struct {
	id      string
	trigger Trigger
	grace   time.Duration
	fn      JobFunc

	next    time.Time
	running bool
	lastRun time.Time
	lastErr string
}

// Scheduler drives registered jobs from a single polling loop evaluated in a
// configured time zone. One Scheduler value is owned by the hosting process's
// startup/shutdown lifecycle; there is no ambient global instance.
type Scheduler struct {
	zone   *time.Location
	poll   time.Duration
	logger *slog.Logger
	now    func() time.Time // overridable in tests

	mu      sync.Mutex
	jobs    []*job
	started bool
	stopped bool

	stop     chan struct{}
	loopDone chan struct{}
	runWG    sync.WaitGroup
}

// New creates a Scheduler evaluating triggers in the given zone, polling at
// the given interval.
func New(zone *time.Location, poll time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if poll <= 0 {
		poll = 30 * time.Second
	}
	return &Scheduler{
		zone:     zone,
		poll:     poll,
		logger:   log.With(slog.String("component", "scheduler")),
		now:      time.Now,
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

// Register adds a named job. A firing missed while the process was down still
// runs once at startup if the current time is within misfireGrace of the
// missed instant; beyond that the firing is skipped entirely.
// Registration must happen before Start.
func (s *Scheduler) Register(id string, trigger Trigger, misfireGrace time.Duration, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("cannot register job %q: scheduler already started", id)
	}
	for _, j := range s.jobs {
		if j.id == id {
			return fmt.Errorf("job %q already registered", id)
		}
	}
	if trigger == nil || fn == nil {
		return fmt.Errorf("job %q: trigger and fn are required", id)
	}

	s.jobs = append(s.jobs, &job{
		id:      id,
		trigger: trigger,
		grace:   misfireGrace,
		fn:      fn,
	})
	return nil
}

// Start begins evaluating triggers. The first evaluation happens immediately,
// so a firing missed during downtime and still within its grace window runs
// without waiting for the first poll.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	s.started = true

	// Seeding the next fire time from now minus the grace window is what
	// implements misfire recovery across restarts: a firing at T with grace G
	// is still "next" at any startup before T+G, and tick() then runs it at
	// once. Startups after T+G resolve to the following scheduled firing.
	for _, j := range s.jobs {
		j.next = j.trigger.Next(s.now().In(s.zone).Add(-j.grace))
		s.logger.Info("job registered",
			"job_id", j.id,
			"trigger", j.trigger.String(),
			"misfire_grace", j.grace.String(),
			"next_run", j.next)
	}
	s.mu.Unlock()

	go s.loop()

	s.logger.Info("scheduler started", "zone", s.zone.String(), "poll_interval", s.poll.String())
	return nil
}

// Stop requests shutdown: no job starts after Stop returns, and in-flight
// runs are waited for until the given context expires, after which Stop
// returns anyway and logs which jobs were still running.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stop)
	<-s.loopDone // the loop is the only starter of job runs

	done := make(chan struct{})
	go func() {
		s.runWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped, all jobs drained")
	case <-ctx.Done():
		s.logger.Warn("scheduler drain timeout expired, proceeding with shutdown",
			"still_running", s.runningJobIDs())
	}
}

// Jobs returns a snapshot of every registered job's schedule and state.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobStatus{
			ID:        j.id,
			Trigger:   j.trigger.String(),
			NextRun:   j.next,
			Running:   j.running,
			LastRun:   j.lastRun,
			LastError: j.lastErr,
		})
	}
	return out
}

// loop evaluates triggers once immediately and then at every poll interval
// until Stop is called.
func (s *Scheduler) loop() {
	defer close(s.loopDone)

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	s.tick()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick dispatches every job whose fire time has arrived. Firings past their
// grace window are abandoned (never run doubly-late), and firings that land
// while the same job is still executing are dropped, never queued: the jobs
// are written to catch up from fresh state on their next tick.
func (s *Scheduler) tick() {
	now := s.now().In(s.zone)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if now.Before(j.next) {
			continue
		}
		late := now.Sub(j.next)
		scheduled := j.next
		j.next = j.trigger.Next(now)

		if late > j.grace {
			s.logger.Warn("missed firing beyond misfire grace, skipping",
				"job_id", j.id,
				"scheduled_at", scheduled,
				"late_by", late.String(),
				"next_run", j.next)
			continue
		}
		if j.running {
			s.logger.Info("previous run still in flight, dropping firing",
				"job_id", j.id,
				"scheduled_at", scheduled,
				"next_run", j.next)
			continue
		}

		j.running = true
		s.runWG.Add(1)
		go s.run(j, scheduled)
	}
}

// run executes one firing of a job, containing errors and panics.
func (s *Scheduler) run(j *job, scheduled time.Time) {
	defer s.runWG.Done()

	log := s.logger.With(
		slog.String("job_id", j.id),
		slog.Time("scheduled_at", scheduled),
	)
	ctx := logger.WithLogger(context.Background(), log)

	started := s.now()
	log.Info("job run starting")

	var runErr error
	func() {
		defer func() {
			if p := recover(); p != nil {
				runErr = fmt.Errorf("job panicked: %v", p)
			}
		}()
		runErr = j.fn(ctx)
	}()

	s.mu.Lock()
	j.running = false
	j.lastRun = started
	if runErr != nil {
		j.lastErr = runErr.Error()
	} else {
		j.lastErr = ""
	}
	s.mu.Unlock()

	if runErr != nil {
		log.Error("job run failed", "error", runErr, "duration", s.now().Sub(started).String())
		return
	}
	log.Info("job run completed", "duration", s.now().Sub(started).String())
}

// runningJobIDs lists jobs still marked running; used for the drain-timeout log.
func (s *Scheduler) runningJobIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, j := range s.jobs {
		if j.running {
			ids = append(ids, j.id)
		}
	}
	return ids
}
