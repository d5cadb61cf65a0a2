package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	errs  []error
	calls int
}

func (h *fakeHandler) Process(context.Context, json.RawMessage) error {
	h.calls++
	if len(h.errs) == 0 {
		return nil
	}
	err := h.errs[0]
	h.errs = h.errs[1:]
	return err
}

type deadLetter struct {
	queue    string
	job      Job
	reason   string
	attempts int
}

type runnerHarness struct {
	r      *runner
	dead   []deadLetter
	sleeps []time.Duration
}

func newHarness(h Handler, maxAttempts int) *runnerHarness {
	rh := &runnerHarness{}
	rh.r = &runner{
		handlers: map[string]Handler{JobTypeEmail: h},
		cfg:      PoolConfig{Workers: 1, MaxAttempts: maxAttempts, BaseBackoff: 100 * time.Millisecond},
		dead: func(_ context.Context, queue string, job Job, reason string, attempts int) {
			rh.dead = append(rh.dead, deadLetter{queue, job, reason, attempts})
		},
		sleep: func(_ context.Context, d time.Duration) bool {
			rh.sleeps = append(rh.sleeps, d)
			return true
		},
	}
	return rh
}

func encodeJob(t *testing.T, typ string) string {
	t.Helper()
	raw, err := json.Marshal(Job{Type: typ, Payload: json.RawMessage(`{"to_email":"ana@example.com"}`)})
	require.NoError(t, err)
	return string(raw)
}

func TestProcessJob_Success(t *testing.T) {
	h := &fakeHandler{}
	rh := newHarness(h, 3)

	rh.r.processJob(context.Background(), QueueEmail, encodeJob(t, JobTypeEmail))

	assert.Equal(t, 1, h.calls)
	assert.Empty(t, rh.dead)
	assert.Empty(t, rh.sleeps)
}

func TestProcessJob_RetriesWithBackoffThenDeadLetters(t *testing.T) {
	h := &fakeHandler{errs: []error{errors.New("smtp down"), errors.New("smtp down"), errors.New("smtp down")}}
	rh := newHarness(h, 3)

	rh.r.processJob(context.Background(), QueueEmail, encodeJob(t, JobTypeEmail))

	assert.Equal(t, 3, h.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, rh.sleeps)
	require.Len(t, rh.dead, 1)
	assert.Equal(t, QueueEmail, rh.dead[0].queue)
	assert.Equal(t, "smtp down", rh.dead[0].reason)
	assert.Equal(t, 3, rh.dead[0].attempts)
}

func TestProcessJob_RecoversOnRetry(t *testing.T) {
	h := &fakeHandler{errs: []error{errors.New("timeout")}}
	rh := newHarness(h, 3)

	rh.r.processJob(context.Background(), QueueEmail, encodeJob(t, JobTypeEmail))

	assert.Equal(t, 2, h.calls)
	assert.Empty(t, rh.dead)
}

func TestProcessJob_PermanentErrorSkipsRetries(t *testing.T) {
	h := &fakeHandler{errs: []error{Permanent{Err: errors.New("bad payload")}}}
	rh := newHarness(h, 3)

	rh.r.processJob(context.Background(), QueueEmail, encodeJob(t, JobTypeEmail))

	assert.Equal(t, 1, h.calls)
	assert.Empty(t, rh.sleeps)
	require.Len(t, rh.dead, 1)
	assert.Equal(t, 1, rh.dead[0].attempts)
}

func TestProcessJob_UnknownTypeDeadLetters(t *testing.T) {
	rh := newHarness(&fakeHandler{}, 3)

	rh.r.processJob(context.Background(), QueueEmail, encodeJob(t, "fax"))

	require.Len(t, rh.dead, 1)
	assert.Equal(t, "fax", rh.dead[0].job.Type)
	assert.Equal(t, 0, rh.dead[0].attempts)
}

func TestProcessJob_CancelledDuringBackoff(t *testing.T) {
	h := &fakeHandler{errs: []error{errors.New("smtp down")}}
	rh := newHarness(h, 3)
	rh.r.sleep = func(context.Context, time.Duration) bool { return false }

	rh.r.processJob(context.Background(), QueueEmail, encodeJob(t, JobTypeEmail))

	assert.Equal(t, 1, h.calls)
	assert.Empty(t, rh.dead, "a job interrupted by shutdown is not dead-lettered")
}

func TestProcessJob_MalformedEnvelopeIsDropped(t *testing.T) {
	h := &fakeHandler{}
	rh := newHarness(h, 3)

	rh.r.processJob(context.Background(), QueueEmail, "{not json")

	assert.Zero(t, h.calls)
	assert.Empty(t, rh.dead)
}

func TestSleepCtx(t *testing.T) {
	assert.True(t, sleepCtx(context.Background(), 0))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
}

func TestDispatcher_WithoutRedis(t *testing.T) {
	var d *Dispatcher
	assert.Error(t, d.EnqueueEmail(context.Background(), EmailJobPayload{ToEmail: "ana@example.com"}))
	assert.Error(t, NewDispatcher(nil).EnqueueEmail(context.Background(), EmailJobPayload{}))
}

func TestNewDLQEntry_CarriesReplayCount(t *testing.T) {
	job := Job{Type: JobTypeEmail, Payload: json.RawMessage(`{}`), Replays: 2}

	e := newDLQEntry(QueueEmail, job, "smtp down", 3)

	assert.Equal(t, QueueEmail, e.OriginalQueue)
	assert.Equal(t, JobTypeEmail, e.JobType)
	assert.Equal(t, 2, e.Replays)
	assert.Equal(t, 3, e.Attempts)
	_, err := time.Parse(time.RFC3339, e.FailedAt)
	assert.NoError(t, err)
}

func TestPopFailed_TimeoutPollsAgainAtOnce(t *testing.T) {
	rh := newHarness(&fakeHandler{}, 3)

	assert.True(t, rh.r.popFailed(context.Background(), 0, redis.Nil))
	assert.Empty(t, rh.sleeps)
}

func TestPopFailed_ConnectionErrorPauses(t *testing.T) {
	rh := newHarness(&fakeHandler{}, 3)

	assert.True(t, rh.r.popFailed(context.Background(), 0, errors.New("dial tcp: connection refused")))
	assert.Equal(t, []time.Duration{popRetryDelay}, rh.sleeps)
}

func TestPopFailed_CancelledStops(t *testing.T) {
	rh := newHarness(&fakeHandler{}, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, rh.r.popFailed(ctx, 0, context.Canceled))
	assert.Empty(t, rh.sleeps)
}
