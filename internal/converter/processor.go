package converter

import (
	"context"
	"fmt"

	"github.com/DMarby/additive-mask/internal/logger"
	"github.com/DMarby/additive-mask/internal/metrics"
	"github.com/DMarby/additive-mask/internal/queue"
)

// Queued is a Processor that limits the amount of concurrent conversions with a worker queue
type Queued struct {
	queue   *queue.Queue
	metrics *metrics.Metrics
}

type transformTask struct {
	name string
	data []byte
}

type convertTask struct {
	path string
}

// NewQueued starts a worker queue in front of processor, it runs until ctx is done
func NewQueued(ctx context.Context, log *logger.Logger, workers int, m *metrics.Metrics, processor Processor) *Queued {
	workerQueue := queue.New(ctx, workers, taskProcessor(processor))
	instance := &Queued{
		queue:   workerQueue,
		metrics: m,
	}

	go workerQueue.Run()
	log.Infof("starting conversion worker queue with %d workers", workers)

	return instance
}

// Transform converts encoded image data once a worker is available
func (q *Queued) Transform(ctx context.Context, name string, data []byte) ([]byte, error) {
	result, err := q.process(ctx, &transformTask{name, data})
	if err != nil {
		return nil, err
	}

	encoded, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("error getting result")
	}

	return encoded, nil
}

// Convert converts the image at path once a worker is available
func (q *Queued) Convert(ctx context.Context, path string) (*Result, error) {
	result, err := q.process(ctx, &convertTask{path})
	if err != nil {
		return nil, err
	}

	converted, ok := result.(*Result)
	if !ok {
		return nil, fmt.Errorf("error getting result")
	}

	return converted, nil
}

func (q *Queued) process(ctx context.Context, task interface{}) (interface{}, error) {
	if q.metrics != nil {
		q.metrics.QueueSize.Inc()
		defer q.metrics.QueueSize.Dec()
	}

	return q.queue.Process(ctx, task)
}

func taskProcessor(processor Processor) func(ctx context.Context, data interface{}) (interface{}, error) {
	return func(ctx context.Context, data interface{}) (interface{}, error) {
		switch task := data.(type) {
		case *transformTask:
			return processor.Transform(ctx, task.name, task.data)
		case *convertTask:
			return processor.Convert(ctx, task.path)
		default:
			return nil, fmt.Errorf("invalid data")
		}
	}
}
