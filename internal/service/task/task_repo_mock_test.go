package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/heartmarshall/undojournal/internal/domain"
)

var _ taskRepo = &taskRepoMock{}

type taskRepoMock struct {
	InsertFunc       func(ctx context.Context, t *domain.Task) (*domain.Task, error)
	SetCompletedFunc func(ctx context.Context, userID uuid.UUID, id uuid.UUID, completed bool, at time.Time) (*domain.Task, error)
	DeleteFunc       func(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
	GetByIDFunc      func(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*domain.Task, error)
	ListByUserFunc   func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	calls struct {
		Insert []struct {
			Ctx context.Context
			T   *domain.Task
		}
		SetCompleted []struct {
			Ctx       context.Context
			UserID    uuid.UUID
			ID        uuid.UUID
			Completed bool
			At        time.Time
		}
		Delete []struct {
			Ctx    context.Context
			UserID uuid.UUID
			ID     uuid.UUID
		}
		GetByID []struct {
			Ctx    context.Context
			UserID uuid.UUID
			ID     uuid.UUID
		}
		ListByUser []struct {
			Ctx    context.Context
			UserID uuid.UUID
		}
	}
	lockInsert       sync.RWMutex
	lockSetCompleted sync.RWMutex
	lockDelete       sync.RWMutex
	lockGetByID      sync.RWMutex
	lockListByUser   sync.RWMutex
}

func (mock *taskRepoMock) Insert(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	if mock.InsertFunc == nil {
		panic("taskRepoMock.InsertFunc: method is nil but taskRepo.Insert was just called")
	}
	callInfo := struct {
		Ctx context.Context
		T   *domain.Task
	}{
		Ctx: ctx,
		T:   t,
	}
	mock.lockInsert.Lock()
	mock.calls.Insert = append(mock.calls.Insert, callInfo)
	mock.lockInsert.Unlock()
	return mock.InsertFunc(ctx, t)
}

func (mock *taskRepoMock) InsertCalls() []struct {
	Ctx context.Context
	T   *domain.Task
} {
	var calls []struct {
		Ctx context.Context
		T   *domain.Task
	}
	mock.lockInsert.RLock()
	calls = mock.calls.Insert
	mock.lockInsert.RUnlock()
	return calls
}

func (mock *taskRepoMock) SetCompleted(ctx context.Context, userID uuid.UUID, id uuid.UUID, completed bool, at time.Time) (*domain.Task, error) {
	if mock.SetCompletedFunc == nil {
		panic("taskRepoMock.SetCompletedFunc: method is nil but taskRepo.SetCompleted was just called")
	}
	callInfo := struct {
		Ctx       context.Context
		UserID    uuid.UUID
		ID        uuid.UUID
		Completed bool
		At        time.Time
	}{
		Ctx:       ctx,
		UserID:    userID,
		ID:        id,
		Completed: completed,
		At:        at,
	}
	mock.lockSetCompleted.Lock()
	mock.calls.SetCompleted = append(mock.calls.SetCompleted, callInfo)
	mock.lockSetCompleted.Unlock()
	return mock.SetCompletedFunc(ctx, userID, id, completed, at)
}

func (mock *taskRepoMock) SetCompletedCalls() []struct {
	Ctx       context.Context
	UserID    uuid.UUID
	ID        uuid.UUID
	Completed bool
	At        time.Time
} {
	var calls []struct {
		Ctx       context.Context
		UserID    uuid.UUID
		ID        uuid.UUID
		Completed bool
		At        time.Time
	}
	mock.lockSetCompleted.RLock()
	calls = mock.calls.SetCompleted
	mock.lockSetCompleted.RUnlock()
	return calls
}

func (mock *taskRepoMock) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	if mock.DeleteFunc == nil {
		panic("taskRepoMock.DeleteFunc: method is nil but taskRepo.Delete was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID uuid.UUID
		ID     uuid.UUID
	}{
		Ctx:    ctx,
		UserID: userID,
		ID:     id,
	}
	mock.lockDelete.Lock()
	mock.calls.Delete = append(mock.calls.Delete, callInfo)
	mock.lockDelete.Unlock()
	return mock.DeleteFunc(ctx, userID, id)
}

func (mock *taskRepoMock) DeleteCalls() []struct {
	Ctx    context.Context
	UserID uuid.UUID
	ID     uuid.UUID
} {
	var calls []struct {
		Ctx    context.Context
		UserID uuid.UUID
		ID     uuid.UUID
	}
	mock.lockDelete.RLock()
	calls = mock.calls.Delete
	mock.lockDelete.RUnlock()
	return calls
}

func (mock *taskRepoMock) GetByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*domain.Task, error) {
	if mock.GetByIDFunc == nil {
		panic("taskRepoMock.GetByIDFunc: method is nil but taskRepo.GetByID was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID uuid.UUID
		ID     uuid.UUID
	}{
		Ctx:    ctx,
		UserID: userID,
		ID:     id,
	}
	mock.lockGetByID.Lock()
	mock.calls.GetByID = append(mock.calls.GetByID, callInfo)
	mock.lockGetByID.Unlock()
	return mock.GetByIDFunc(ctx, userID, id)
}

func (mock *taskRepoMock) GetByIDCalls() []struct {
	Ctx    context.Context
	UserID uuid.UUID
	ID     uuid.UUID
} {
	var calls []struct {
		Ctx    context.Context
		UserID uuid.UUID
		ID     uuid.UUID
	}
	mock.lockGetByID.RLock()
	calls = mock.calls.GetByID
	mock.lockGetByID.RUnlock()
	return calls
}

func (mock *taskRepoMock) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	if mock.ListByUserFunc == nil {
		panic("taskRepoMock.ListByUserFunc: method is nil but taskRepo.ListByUser was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID uuid.UUID
	}{
		Ctx:    ctx,
		UserID: userID,
	}
	mock.lockListByUser.Lock()
	mock.calls.ListByUser = append(mock.calls.ListByUser, callInfo)
	mock.lockListByUser.Unlock()
	return mock.ListByUserFunc(ctx, userID)
}

func (mock *taskRepoMock) ListByUserCalls() []struct {
	Ctx    context.Context
	UserID uuid.UUID
} {
	var calls []struct {
		Ctx    context.Context
		UserID uuid.UUID
	}
	mock.lockListByUser.RLock()
	calls = mock.calls.ListByUser
	mock.lockListByUser.RUnlock()
	return calls
}
