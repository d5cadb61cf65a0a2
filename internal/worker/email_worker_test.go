package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Cozta1/sistema-encomendas-V2/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []EmailJobPayload
	err  error
}

func (s *fakeSender) Send(to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, EmailJobPayload{ToEmail: to, Subject: subject, Body: body})
	return nil
}

func emailPayload(t *testing.T, p EmailJobPayload) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return raw
}

func TestEmailWorker_Sends(t *testing.T) {
	sender := &fakeSender{}
	w := NewEmailWorker(sender, nil)

	err := w.Process(context.Background(), emailPayload(t, EmailJobPayload{
		ToEmail: "ana@example.com", Subject: "Convite", Body: "<p>oi</p>",
	}))

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Convite", sender.sent[0].Subject)
}

func TestEmailWorker_InvalidPayloadIsPermanent(t *testing.T) {
	w := NewEmailWorker(&fakeSender{}, nil)
	var perm Permanent

	err := w.Process(context.Background(), json.RawMessage(`[1,2]`))
	assert.ErrorAs(t, err, &perm)

	err = w.Process(context.Background(), emailPayload(t, EmailJobPayload{Subject: "sem destinatário"}))
	assert.ErrorAs(t, err, &perm)
}

func TestEmailWorker_SendFailureIsRetryable(t *testing.T) {
	w := NewEmailWorker(&fakeSender{err: errors.New("connection refused")}, nil)

	err := w.Process(context.Background(), emailPayload(t, EmailJobPayload{ToEmail: "ana@example.com"}))

	require.Error(t, err)
	var perm Permanent
	assert.False(t, errors.As(err, &perm))
}

func TestEmailWorker_OpenBreakerFailsFast(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "smtp", FailureThreshold: 2})
	w := NewEmailWorker(sender, cb)
	payload := emailPayload(t, EmailJobPayload{ToEmail: "ana@example.com"})

	_ = w.Process(context.Background(), payload)
	_ = w.Process(context.Background(), payload)
	require.Equal(t, infra.CBOpen, cb.State())

	sender.err = nil
	err := w.Process(context.Background(), payload)

	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.Empty(t, sender.sent)
}
