package rest

import (
	"context"
	"sync"

	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/internal/service/journal"
)

var _ journalService = &journalServiceMock{}

type journalServiceMock struct {
	ListHistoryFunc func(ctx context.Context, input journal.HistoryInput) ([]*domain.UndoRecord, error)
	RedoFunc        func(ctx context.Context, input journal.ToggleInput) (*journal.ToggleResult, error)
	UndoFunc        func(ctx context.Context, input journal.ToggleInput) (*journal.ToggleResult, error)

	calls struct {
		ListHistory []struct {
			Ctx   context.Context
			Input journal.HistoryInput
		}
		Redo []struct {
			Ctx   context.Context
			Input journal.ToggleInput
		}
		Undo []struct {
			Ctx   context.Context
			Input journal.ToggleInput
		}
	}
	lockListHistory sync.RWMutex
	lockRedo        sync.RWMutex
	lockUndo        sync.RWMutex
}

func (mock *journalServiceMock) ListHistory(ctx context.Context, input journal.HistoryInput) ([]*domain.UndoRecord, error) {
	if mock.ListHistoryFunc == nil {
		panic("journalServiceMock.ListHistoryFunc: method is nil but journalService.ListHistory was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input journal.HistoryInput
	}{
		Ctx:   ctx,
		Input: input,
	}
	mock.lockListHistory.Lock()
	mock.calls.ListHistory = append(mock.calls.ListHistory, callInfo)
	mock.lockListHistory.Unlock()
	return mock.ListHistoryFunc(ctx, input)
}

func (mock *journalServiceMock) ListHistoryCalls() []struct {
	Ctx   context.Context
	Input journal.HistoryInput
} {
	var calls []struct {
		Ctx   context.Context
		Input journal.HistoryInput
	}
	mock.lockListHistory.RLock()
	calls = mock.calls.ListHistory
	mock.lockListHistory.RUnlock()
	return calls
}

func (mock *journalServiceMock) Redo(ctx context.Context, input journal.ToggleInput) (*journal.ToggleResult, error) {
	if mock.RedoFunc == nil {
		panic("journalServiceMock.RedoFunc: method is nil but journalService.Redo was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input journal.ToggleInput
	}{
		Ctx:   ctx,
		Input: input,
	}
	mock.lockRedo.Lock()
	mock.calls.Redo = append(mock.calls.Redo, callInfo)
	mock.lockRedo.Unlock()
	return mock.RedoFunc(ctx, input)
}

func (mock *journalServiceMock) RedoCalls() []struct {
	Ctx   context.Context
	Input journal.ToggleInput
} {
	var calls []struct {
		Ctx   context.Context
		Input journal.ToggleInput
	}
	mock.lockRedo.RLock()
	calls = mock.calls.Redo
	mock.lockRedo.RUnlock()
	return calls
}

func (mock *journalServiceMock) Undo(ctx context.Context, input journal.ToggleInput) (*journal.ToggleResult, error) {
	if mock.UndoFunc == nil {
		panic("journalServiceMock.UndoFunc: method is nil but journalService.Undo was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input journal.ToggleInput
	}{
		Ctx:   ctx,
		Input: input,
	}
	mock.lockUndo.Lock()
	mock.calls.Undo = append(mock.calls.Undo, callInfo)
	mock.lockUndo.Unlock()
	return mock.UndoFunc(ctx, input)
}

func (mock *journalServiceMock) UndoCalls() []struct {
	Ctx   context.Context
	Input journal.ToggleInput
} {
	var calls []struct {
		Ctx   context.Context
		Input journal.ToggleInput
	}
	mock.lockUndo.RLock()
	calls = mock.calls.Undo
	mock.lockUndo.RUnlock()
	return calls
}
