package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is a long running background loop. It returns when ctx is cancelled.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Start runs every task in its own goroutine. The returned function blocks until all tasks exit.
func Start(ctx context.Context, logger *zap.Logger, tasks ...Task) (wait func()) {
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			logger.Info("worker started", zap.String("worker", task.Name))
			if err := task.Run(ctx); err != nil {
				logger.Error("worker stopped", zap.String("worker", task.Name), zap.Error(err))
				return
			}
			logger.Info("worker stopped", zap.String("worker", task.Name))
		}(task)
	}
	return wg.Wait
}
