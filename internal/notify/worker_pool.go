package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WorkerPool drains the notification queue with a fixed number of worker
// goroutines. Each send carries its own timeout so one unreachable mail
// server cannot stall the rest of the queue.
type WorkerPool struct {
	queue       *Queue
	gateway     Gateway
	workerCount int
	sendTimeout time.Duration
	wg          sync.WaitGroup
	logger      *slog.Logger
}

// WorkerPoolConfig holds configuration options for the worker pool.
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start.
	// If zero or negative, defaults to 1.
	WorkerCount int

	// SendTimeout bounds each individual delivery attempt.
	// If zero, defaults to 10 seconds.
	SendTimeout time.Duration
}

// NewWorkerPool creates a new worker pool reading from the given queue and
// delivering through the given gateway.
func NewWorkerPool(queue *Queue, gateway Gateway, cfg WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", cfg.WorkerCount,
			"default_count", 1)
	}
	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	return &WorkerPool{
		queue:       queue,
		gateway:     gateway,
		workerCount: workerCount,
		sendTimeout: sendTimeout,
		logger:      logger.With(slog.String("component", "notify_worker_pool")),
	}
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("notification workers started", "worker_count", p.workerCount)
}

// Stop closes the queue and waits for the workers to drain the messages that
// were already accepted. No new submissions succeed after Stop begins.
func (p *WorkerPool) Stop() {
	p.queue.Close()
	p.wg.Wait()
	p.logger.Info("notification workers stopped")
}

// worker delivers messages until the queue channel is closed and drained.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for msg := range p.queue.Channel() {
		p.deliver(msg, id)
	}

	p.logger.Debug("queue drained, stopping worker", "worker_id", id)
}

// deliver attempts one send with the configured timeout. A failed delivery is
// logged and dropped: the state change that produced the message has already
// succeeded and is never rolled back.
func (p *WorkerPool) deliver(msg Message, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), p.sendTimeout)
	defer cancel()

	if err := p.gateway.Send(ctx, msg); err != nil {
		p.logger.Error("notification delivery failed",
			"to", msg.To,
			"subject", msg.Subject,
			"worker_id", workerID,
			"error", err)
		return
	}

	p.logger.Info("notification delivered",
		"to", msg.To,
		"subject", msg.Subject,
		"worker_id", workerID)
}
