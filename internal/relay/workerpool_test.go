package relay

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool(t *testing.T) {
	tests := []struct {
		name           string
		numTasks       int
		numWorkers     int
		expectedErrors int
	}{
		{name: "Simple tasks", numTasks: 5, numWorkers: 2},
		{name: "One task fails", numTasks: 2, numWorkers: 2, expectedErrors: 1},
		{name: "Zero size falls back to one worker", numTasks: 3, numWorkers: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wp := NewWorkerPool(tt.numWorkers)

			var executed, failed int32
			var wg sync.WaitGroup
			for i := 0; i < tt.numTasks; i++ {
				i := i
				wg.Add(1)
				err := wp.AddTask(context.Background(), func() error {
					defer wg.Done()
					if i == tt.numTasks-1 && tt.expectedErrors > 0 {
						atomic.AddInt32(&failed, 1)
						return assert.AnError
					}
					time.Sleep(10 * time.Millisecond)
					atomic.AddInt32(&executed, 1)
					return nil
				})
				require.NoError(t, err, "failed to add task to pool")
			}

			wg.Wait()
			wp.Close()

			assert.Equal(t, int32(tt.numTasks-tt.expectedErrors), atomic.LoadInt32(&executed))
			assert.Equal(t, int32(tt.expectedErrors), atomic.LoadInt32(&failed))
		})
	}
}

func TestWorkerPool_CanceledContext(t *testing.T) {
	wp := NewWorkerPool(1)
	defer wp.Close()

	block := make(chan struct{})
	require.NoError(t, wp.AddTask(context.Background(), func() error {
		<-block
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := wp.AddTask(ctx, func() error {
		t.Error("task should not be executed")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	close(block)
}

func TestWorkerPool_CloseTwice(t *testing.T) {
	wp := NewWorkerPool(2)
	wp.Close()
	assert.NotPanics(t, wp.Close)
}
