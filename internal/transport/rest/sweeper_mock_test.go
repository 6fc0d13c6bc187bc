package rest

import (
	"context"
	"sync"
)

var _ sweeper = &sweeperMock{}

type sweeperMock struct {
	SweepExpiredFunc func(ctx context.Context) (int64, error)

	calls struct {
		SweepExpired []struct {
			Ctx context.Context
		}
	}
	lockSweepExpired sync.RWMutex
}

func (mock *sweeperMock) SweepExpired(ctx context.Context) (int64, error) {
	if mock.SweepExpiredFunc == nil {
		panic("sweeperMock.SweepExpiredFunc: method is nil but sweeper.SweepExpired was just called")
	}
	callInfo := struct {
		Ctx context.Context
	}{
		Ctx: ctx,
	}
	mock.lockSweepExpired.Lock()
	mock.calls.SweepExpired = append(mock.calls.SweepExpired, callInfo)
	mock.lockSweepExpired.Unlock()
	return mock.SweepExpiredFunc(ctx)
}

func (mock *sweeperMock) SweepExpiredCalls() []struct {
	Ctx context.Context
} {
	var calls []struct {
		Ctx context.Context
	}
	mock.lockSweepExpired.RLock()
	calls = mock.calls.SweepExpired
	mock.lockSweepExpired.RUnlock()
	return calls
}
