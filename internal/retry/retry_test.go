package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
	}
}

// TestDo_SucceedsFirstAttempt tests that a successful call is not repeated
func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), "embed", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

// TestDo_RetriesTransientErrors tests bounded retry of adapter failures
func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	transient := domain.NewAdapterError("embedding", domain.ErrEmbedding, errors.New("503"))

	err := fastPolicy(3).Do(context.Background(), "embed", func(context.Context) error {
		calls++
		if calls < 3 {
			return transient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

// TestDo_StopsAfterAttemptBudget tests that the terminal failure surfaces
func TestDo_StopsAfterAttemptBudget(t *testing.T) {
	calls := 0
	transient := domain.NewAdapterError("ocr", domain.ErrExtraction, errors.New("timeout"))

	err := fastPolicy(3).Do(context.Background(), "ocr", func(context.Context) error {
		calls++
		return transient
	})

	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Equal(t, 3, calls)
}

// TestDo_NeverRetriesValidationErrors tests that bad input is not retried
func TestDo_NeverRetriesValidationErrors(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), "retrieve", func(context.Context) error {
		calls++
		return domain.ErrInvalidInput
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, calls)
}

// TestDo_ContextCancellation tests that cancellation interrupts the backoff wait
func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transient := domain.NewAdapterError("blob", domain.ErrStorageUnavailable, errors.New("down"))

	p := Policy{MaxAttempts: 10, BaseDelay: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, "put", func(context.Context) error {
			calls++
			return transient
		})
	}()

	// Give the first attempt time to enter the backoff wait.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

// TestDo_ZeroPolicyRunsOnce tests the zero value behaves as a single attempt
func TestDo_ZeroPolicyRunsOnce(t *testing.T) {
	calls := 0
	transient := domain.NewAdapterError("llm", domain.ErrGeneration, errors.New("overloaded"))

	err := Policy{}.Do(context.Background(), "generate", func(context.Context) error {
		calls++
		return transient
	})

	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.Equal(t, 1, calls)
}
