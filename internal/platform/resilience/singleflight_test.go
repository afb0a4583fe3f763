package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSingleFlight_DeduplicatesConcurrentCalls(t *testing.T) {
	var flight SingleFlight
	var executions atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			out, err, _ := flight.Do("catalog", func() (any, error) {
				executions.Add(1)
				<-release
				return "teams", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[idx] = out
		}(i)
	}

	close(release)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected a single execution, got %d", got)
	}
	for _, out := range results {
		if out != "teams" {
			t.Fatalf("unexpected result: %v", out)
		}
	}
}

func TestSingleFlight_SequentialCallsRunIndependently(t *testing.T) {
	var flight SingleFlight
	calls := 0

	for i := 0; i < 3; i++ {
		_, _, shared := flight.Do("week", func() (any, error) {
			calls++
			return calls, nil
		})
		if shared {
			t.Fatalf("sequential call %d reported shared result", i)
		}
	}

	if calls != 3 {
		t.Fatalf("expected 3 executions, got %d", calls)
	}
}
