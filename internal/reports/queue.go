package reports

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
	"github.com/agstack/OpenAgri-ReportingService/internal/metrics"
	"github.com/agstack/OpenAgri-ReportingService/internal/render"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

// Generator is what the queue runs for each job.
type Generator interface {
	Generate(ctx context.Context, req Request) (*models.ReportDocument, error)
}

type job struct {
	id    string
	owner string
	req   Request
}

// Queue runs report generation on a fixed pool of workers and writes each result to
// <root>/<owner>/<uuid>.<ext>. Failed jobs leave no file.
type Queue struct {
	gen  Generator
	root string
	log  *zap.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup
}

func NewQueue(gen Generator, root string, workers, size int, log *zap.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	q := &Queue{gen: gen, root: root, log: log.Named("queue"), jobs: make(chan job, size)}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

// Submit enqueues req and returns the job id. It does not block: a full queue is an error.
func (q *Queue) Submit(owner string, req Request) (string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return "", apperr.New(apperr.KindInternal, "report queue is shut down")
	}
	j := job{id: uuid.NewString(), owner: owner, req: req}
	select {
	case q.jobs <- j:
		return j.id, nil
	default:
		return "", apperr.New(apperr.KindInternal, "report queue is full")
	}
}

// Path is where the output of job id is written.
func (q *Queue) Path(owner, id string, format render.Format) string {
	if format == "" {
		format = render.FormatPDF
	}
	return render.FilePath(q.root, owner, id, format)
}

// Close stops accepting jobs and waits for queued and running ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.run(j)
	}
}

func (q *Queue) run(j job) {
	metrics.QueueJobsInFlight.Inc()
	defer metrics.QueueJobsInFlight.Dec()

	log := q.log.With(zap.String("job_id", j.id), zap.String("report_type", string(j.req.Type)))
	defer func() {
		if p := recover(); p != nil {
			metrics.QueueJobsProcessed.WithLabelValues("error").Inc()
			log.Error("background report panicked", zap.Any("panic", p))
		}
	}()

	doc, err := q.gen.Generate(context.Background(), j.req)
	if err != nil {
		metrics.QueueJobsProcessed.WithLabelValues("error").Inc()
		log.Error("background report failed", zap.Error(err))
		return
	}
	path := q.Path(j.owner, j.id, j.req.Format)
	if err := render.WriteFile(path, doc.Bytes); err != nil {
		metrics.QueueJobsProcessed.WithLabelValues("error").Inc()
		log.Error("write report file", zap.String("path", path), zap.Error(err))
		return
	}
	metrics.QueueJobsProcessed.WithLabelValues("success").Inc()
	log.Info("background report written", zap.String("path", path), zap.Int("bytes", len(doc.Bytes)))
}
