package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgcreativity/laojia/internal/models"
)

// fakeBridge serves scripted fetch results and records submitted answers.
type fakeBridge struct {
	fetches    []fetchResult
	fetchCalls int
	submitted  []string
	rejectNext bool
	submitErr  error
}

type fetchResult struct {
	resp models.BridgeFetchResponse
	err  error
}

func (f *fakeBridge) FetchPending(ctx context.Context) (models.BridgeFetchResponse, error) {
	i := f.fetchCalls
	f.fetchCalls++
	if i >= len(f.fetches) {
		return models.BridgeFetchResponse{}, nil
	}
	return f.fetches[i].resp, f.fetches[i].err
}

func (f *fakeBridge) SubmitAnswer(ctx context.Context, text string) (bool, error) {
	if f.submitErr != nil {
		return false, f.submitErr
	}
	if f.rejectNext {
		f.rejectNext = false
		return false, nil
	}
	f.submitted = append(f.submitted, text)
	return true, nil
}

type fakeAsker struct {
	answer string
	err    error
	asked  []string
}

func (f *fakeAsker) Ask(ctx context.Context, question string) (string, error) {
	f.asked = append(f.asked, question)
	return f.answer, f.err
}

// stopAfter returns a sleep func that ends the loop after n poll cycles.
func stopAfter(n int) sleepFunc {
	calls := 0
	return func(ctx context.Context, d time.Duration) error {
		calls++
		if calls >= n {
			return context.Canceled
		}
		return nil
	}
}

func newTestWorker(bridge BridgeClient, asker Asker, cycles int) *Worker {
	w := NewWorker(bridge, asker, WorkerConfig{PollInterval: time.Millisecond, FaultLimit: 3})
	w.sleep = stopAfter(cycles)
	return w
}

func TestWorkerDeliversPendingAnswer(t *testing.T) {
	bridge := &fakeBridge{fetches: []fetchResult{
		{resp: models.BridgeFetchResponse{HasNew: true, Content: "你好"}},
	}}
	asker := &fakeAsker{answer: "你好呀"}

	err := newTestWorker(bridge, asker, 1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"你好"}, asker.asked)
	assert.Equal(t, []string{"你好呀"}, bridge.submitted)
}

func TestWorkerIdlesWhenNothingPending(t *testing.T) {
	bridge := &fakeBridge{fetches: []fetchResult{
		{resp: models.BridgeFetchResponse{HasNew: false}},
		{resp: models.BridgeFetchResponse{HasNew: false}},
	}}
	asker := &fakeAsker{}

	err := newTestWorker(bridge, asker, 2).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, asker.asked)
	assert.Empty(t, bridge.submitted)
}

func TestWorkerMarkerMissingIsNotAFault(t *testing.T) {
	// Five marker misses in a row exceed the fault limit numerically but must
	// never trigger escalation.
	fetches := make([]fetchResult, 5)
	for i := range fetches {
		fetches[i] = fetchResult{err: ErrMarkerNotFound}
	}
	bridge := &fakeBridge{fetches: fetches}

	err := newTestWorker(bridge, &fakeAsker{}, 5).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bridge.submitted)
}

func TestWorkerEscalatesAfterConsecutiveFaults(t *testing.T) {
	boom := errors.New("element not found")
	bridge := &fakeBridge{fetches: []fetchResult{
		{resp: models.BridgeFetchResponse{HasNew: true, Content: "你好"}},
		{resp: models.BridgeFetchResponse{HasNew: true, Content: "你好"}},
		{resp: models.BridgeFetchResponse{HasNew: true, Content: "你好"}},
	}}
	asker := &fakeAsker{err: boom}

	err := newTestWorker(bridge, asker, 10).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// The diagnostic goes into the same chat channel.
	require.Len(t, bridge.submitted, 1)
	assert.Contains(t, bridge.submitted[0], "自动接力助手连续出错")
}

func TestWorkerFaultCounterResetsOnSuccess(t *testing.T) {
	boom := errors.New("transient")
	bridge := &fakeBridge{fetches: []fetchResult{
		{err: boom},
		{err: boom},
		{resp: models.BridgeFetchResponse{HasNew: false}}, // success resets
		{err: boom},
		{err: boom},
	}}

	err := newTestWorker(bridge, &fakeAsker{}, 5).Run(context.Background())
	// Never three in a row, so the loop survives to the end of the script.
	require.NoError(t, err)
	assert.Empty(t, bridge.submitted)
}

func TestWorkerRejectedSubmitIsNotAFault(t *testing.T) {
	bridge := &fakeBridge{
		fetches: []fetchResult{
			{resp: models.BridgeFetchResponse{HasNew: true, Content: "你好"}},
		},
		rejectNext: true,
	}
	asker := &fakeAsker{answer: "你好呀"}

	err := newTestWorker(bridge, asker, 1).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bridge.submitted)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	bridge := &fakeBridge{fetches: []fetchResult{
		{err: context.Canceled},
	}}

	w := NewWorker(bridge, &fakeAsker{}, WorkerConfig{PollInterval: time.Millisecond})
	w.sleep = stopAfter(1)

	err := w.Run(context.Background())
	assert.NoError(t, err)
}

func TestNewWorkerDefaults(t *testing.T) {
	w := NewWorker(&fakeBridge{}, &fakeAsker{}, WorkerConfig{})
	assert.Equal(t, 5*time.Second, w.cfg.PollInterval)
	assert.Equal(t, 3, w.cfg.FaultLimit)
}
