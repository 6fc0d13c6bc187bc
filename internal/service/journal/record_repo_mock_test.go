package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/undojournal/internal/domain"
)

var _ recordRepo = &recordRepoMock{}

type recordRepoMock struct {
	CreateFunc              func(ctx context.Context, rec *domain.UndoRecord) (*domain.UndoRecord, error)
	GetByIDForUpdateFunc    func(ctx context.Context, userID uuid.UUID, id int64) (*domain.UndoRecord, error)
	GetLatestForUpdateFunc  func(ctx context.Context, userID uuid.UUID, undone bool, notBefore time.Time) (*domain.UndoRecord, error)
	HasNewerFunc            func(ctx context.Context, userID uuid.UUID, undone bool, rec *domain.UndoRecord) (bool, error)
	ListByUserFunc          func(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter) ([]*domain.UndoRecord, error)
	SetUndoneFunc           func(ctx context.Context, userID uuid.UUID, id int64, undone bool, at time.Time) (*domain.UndoRecord, error)
	DeleteCreatedBeforeFunc func(ctx context.Context, threshold time.Time, limit int) ([]domain.RecordRef, error)

	calls struct {
		Create []struct {
			Ctx context.Context
			Rec *domain.UndoRecord
		}
		GetByIDForUpdate []struct {
			Ctx    context.Context
			UserID uuid.UUID
			ID     int64
		}
		GetLatestForUpdate []struct {
			Ctx       context.Context
			UserID    uuid.UUID
			Undone    bool
			NotBefore time.Time
		}
		HasNewer []struct {
			Ctx    context.Context
			UserID uuid.UUID
			Undone bool
			Rec    *domain.UndoRecord
		}
		ListByUser []struct {
			Ctx    context.Context
			UserID uuid.UUID
			Filter domain.HistoryFilter
		}
		SetUndone []struct {
			Ctx    context.Context
			UserID uuid.UUID
			ID     int64
			Undone bool
			At     time.Time
		}
		DeleteCreatedBefore []struct {
			Ctx       context.Context
			Threshold time.Time
			Limit     int
		}
	}
	lockCreate              sync.RWMutex
	lockGetByIDForUpdate    sync.RWMutex
	lockGetLatestForUpdate  sync.RWMutex
	lockHasNewer            sync.RWMutex
	lockListByUser          sync.RWMutex
	lockSetUndone           sync.RWMutex
	lockDeleteCreatedBefore sync.RWMutex
}

func (mock *recordRepoMock) Create(ctx context.Context, rec *domain.UndoRecord) (*domain.UndoRecord, error) {
	if mock.CreateFunc == nil {
		panic("recordRepoMock.CreateFunc: method is nil but recordRepo.Create was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Rec *domain.UndoRecord
	}{Ctx: ctx, Rec: rec}
	mock.lockCreate.Lock()
	mock.calls.Create = append(mock.calls.Create, callInfo)
	mock.lockCreate.Unlock()
	return mock.CreateFunc(ctx, rec)
}

func (mock *recordRepoMock) CreateCalls() []struct {
		Ctx context.Context
		Rec *domain.UndoRecord
} {
	mock.lockCreate.RLock()
	calls := mock.calls.Create
	mock.lockCreate.RUnlock()
	return calls
}

func (mock *recordRepoMock) GetByIDForUpdate(ctx context.Context, userID uuid.UUID, id int64) (*domain.UndoRecord, error) {
	if mock.GetByIDForUpdateFunc == nil {
		panic("recordRepoMock.GetByIDForUpdateFunc: method is nil but recordRepo.GetByIDForUpdate was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID uuid.UUID
		ID     int64
	}{Ctx: ctx, UserID: userID, ID: id}
	mock.lockGetByIDForUpdate.Lock()
	mock.calls.GetByIDForUpdate = append(mock.calls.GetByIDForUpdate, callInfo)
	mock.lockGetByIDForUpdate.Unlock()
	return mock.GetByIDForUpdateFunc(ctx, userID, id)
}

func (mock *recordRepoMock) GetByIDForUpdateCalls() []struct {
		Ctx    context.Context
		UserID uuid.UUID
		ID     int64
} {
	mock.lockGetByIDForUpdate.RLock()
	calls := mock.calls.GetByIDForUpdate
	mock.lockGetByIDForUpdate.RUnlock()
	return calls
}

func (mock *recordRepoMock) GetLatestForUpdate(ctx context.Context, userID uuid.UUID, undone bool, notBefore time.Time) (*domain.UndoRecord, error) {
	if mock.GetLatestForUpdateFunc == nil {
		panic("recordRepoMock.GetLatestForUpdateFunc: method is nil but recordRepo.GetLatestForUpdate was just called")
	}
	callInfo := struct {
		Ctx       context.Context
		UserID    uuid.UUID
		Undone    bool
		NotBefore time.Time
	}{Ctx: ctx, UserID: userID, Undone: undone, NotBefore: notBefore}
	mock.lockGetLatestForUpdate.Lock()
	mock.calls.GetLatestForUpdate = append(mock.calls.GetLatestForUpdate, callInfo)
	mock.lockGetLatestForUpdate.Unlock()
	return mock.GetLatestForUpdateFunc(ctx, userID, undone, notBefore)
}

func (mock *recordRepoMock) GetLatestForUpdateCalls() []struct {
		Ctx       context.Context
		UserID    uuid.UUID
		Undone    bool
		NotBefore time.Time
} {
	mock.lockGetLatestForUpdate.RLock()
	calls := mock.calls.GetLatestForUpdate
	mock.lockGetLatestForUpdate.RUnlock()
	return calls
}

func (mock *recordRepoMock) HasNewer(ctx context.Context, userID uuid.UUID, undone bool, rec *domain.UndoRecord) (bool, error) {
	if mock.HasNewerFunc == nil {
		panic("recordRepoMock.HasNewerFunc: method is nil but recordRepo.HasNewer was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID uuid.UUID
		Undone bool
		Rec    *domain.UndoRecord
	}{Ctx: ctx, UserID: userID, Undone: undone, Rec: rec}
	mock.lockHasNewer.Lock()
	mock.calls.HasNewer = append(mock.calls.HasNewer, callInfo)
	mock.lockHasNewer.Unlock()
	return mock.HasNewerFunc(ctx, userID, undone, rec)
}

func (mock *recordRepoMock) HasNewerCalls() []struct {
	Ctx    context.Context
	UserID uuid.UUID
	Undone bool
	Rec    *domain.UndoRecord
} {
	mock.lockHasNewer.RLock()
	calls := mock.calls.HasNewer
	mock.lockHasNewer.RUnlock()
	return calls
}

func (mock *recordRepoMock) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter) ([]*domain.UndoRecord, error) {
	if mock.ListByUserFunc == nil {
		panic("recordRepoMock.ListByUserFunc: method is nil but recordRepo.ListByUser was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID uuid.UUID
		Filter domain.HistoryFilter
	}{Ctx: ctx, UserID: userID, Filter: filter}
	mock.lockListByUser.Lock()
	mock.calls.ListByUser = append(mock.calls.ListByUser, callInfo)
	mock.lockListByUser.Unlock()
	return mock.ListByUserFunc(ctx, userID, filter)
}

func (mock *recordRepoMock) ListByUserCalls() []struct {
		Ctx    context.Context
		UserID uuid.UUID
		Filter domain.HistoryFilter
} {
	mock.lockListByUser.RLock()
	calls := mock.calls.ListByUser
	mock.lockListByUser.RUnlock()
	return calls
}

func (mock *recordRepoMock) SetUndone(ctx context.Context, userID uuid.UUID, id int64, undone bool, at time.Time) (*domain.UndoRecord, error) {
	if mock.SetUndoneFunc == nil {
		panic("recordRepoMock.SetUndoneFunc: method is nil but recordRepo.SetUndone was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		UserID uuid.UUID
		ID     int64
		Undone bool
		At     time.Time
	}{Ctx: ctx, UserID: userID, ID: id, Undone: undone, At: at}
	mock.lockSetUndone.Lock()
	mock.calls.SetUndone = append(mock.calls.SetUndone, callInfo)
	mock.lockSetUndone.Unlock()
	return mock.SetUndoneFunc(ctx, userID, id, undone, at)
}

func (mock *recordRepoMock) SetUndoneCalls() []struct {
		Ctx    context.Context
		UserID uuid.UUID
		ID     int64
		Undone bool
		At     time.Time
} {
	mock.lockSetUndone.RLock()
	calls := mock.calls.SetUndone
	mock.lockSetUndone.RUnlock()
	return calls
}

func (mock *recordRepoMock) DeleteCreatedBefore(ctx context.Context, threshold time.Time, limit int) ([]domain.RecordRef, error) {
	if mock.DeleteCreatedBeforeFunc == nil {
		panic("recordRepoMock.DeleteCreatedBeforeFunc: method is nil but recordRepo.DeleteCreatedBefore was just called")
	}
	callInfo := struct {
		Ctx       context.Context
		Threshold time.Time
		Limit     int
	}{Ctx: ctx, Threshold: threshold, Limit: limit}
	mock.lockDeleteCreatedBefore.Lock()
	mock.calls.DeleteCreatedBefore = append(mock.calls.DeleteCreatedBefore, callInfo)
	mock.lockDeleteCreatedBefore.Unlock()
	return mock.DeleteCreatedBeforeFunc(ctx, threshold, limit)
}

func (mock *recordRepoMock) DeleteCreatedBeforeCalls() []struct {
		Ctx       context.Context
		Threshold time.Time
		Limit     int
} {
	mock.lockDeleteCreatedBefore.RLock()
	calls := mock.calls.DeleteCreatedBefore
	mock.lockDeleteCreatedBefore.RUnlock()
	return calls
}
