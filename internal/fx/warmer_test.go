package fx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/investcalc/calc-engine/internal/model"
)

func TestStartWarmer_RunsImmediately(t *testing.T) {
	env := newTestEnv(t)
	env.primary.set(1380, nil)

	w, err := StartWarmer(env.svc, time.Hour)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Eventually(t, func() bool {
		q, ok := env.svc.Current(context.Background())
		return ok && q.Source == model.SourcePrimary
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), env.primary.calls.Load())
}

func TestStartWarmer_RejectsNonPositiveInterval(t *testing.T) {
	env := newTestEnv(t)

	_, err := StartWarmer(env.svc, 0)
	assert.Error(t, err)
}
