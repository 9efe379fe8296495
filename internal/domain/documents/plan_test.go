package documents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain/audit"
	"stockbook/internal/domain/events"
	"stockbook/internal/domain/journal"
	"stockbook/internal/domain/saga"
)

type recordingLocker struct {
	mu       sync.Mutex
	acquired [][]string
	released int
	fail     error
}

func (l *recordingLocker) Acquire(_ context.Context, keys []string) (Release, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	l.mu.Lock()
	l.acquired = append(l.acquired, keys)
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

// remotePoster stands in for a GL service whose entries outlive a rollback.
type remotePoster struct {
	posted   []journal.Request
	reversed int
	live     []journal.Entry
}

func (p *remotePoster) IsExternal() bool { return true }

func (p *remotePoster) Post(_ context.Context, req journal.Request) (journal.Entry, error) {
	p.posted = append(p.posted, req)
	e := journal.Entry{ID: id.New(), SourceType: req.SourceType, SourceID: req.SourceID, Memo: req.Memo, Lines: req.Lines}
	p.live = append(p.live, e)
	return e, nil
}

func (p *remotePoster) Reverse(context.Context, journal.SourceType, id.ID) error {
	p.reversed++
	p.live = nil
	return nil
}

func (p *remotePoster) ForSource(context.Context, journal.SourceType, id.ID) ([]journal.Entry, error) {
	return append([]journal.Entry(nil), p.live...), nil
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, audit.Entry) error { return errors.New("audit table gone") }

func receiptJournal(docID id.ID) JournalFunc {
	return journalFor(docID, "", decimal.NewFromInt(50))
}

func journalFor(docID id.ID, memo string, amount decimal.Decimal) JournalFunc {
	return func(context.Context) (*journal.Builder, error) {
		return journal.NewBuilder(journal.SourceItemReceipt, docID, time.Now(), memo).
			Debit(journal.AccountInventory, nil, amount, "").
			Credit(journal.AccountGRNI, nil, amount, ""), nil
	}
}

func TestPlan_RunsStagesInOrder(t *testing.T) {
	locker := &recordingLocker{}
	journals := journal.NewMemoryRepository()
	auditLog := &audit.MemoryRecorder{}
	outbox := &events.Recorder{}
	deps := Deps{
		TxManager: tx.Nop{},
		Journal:   journal.NewService(journals),
		Locker:    locker,
		Audit:     auditLog,
		Events:    outbox,
	}

	docID := id.New()
	state := NewSaveState("item_receipt", OpCreate, docID)
	state.Snapshot = map[string]string{"number": "IR-2026-00001"}
	state.Emit(events.DocumentCreated, nil)

	err := NewPlan(deps, state, []string{"item:a"}).
		Step(StageHeader, func(context.Context) error { return nil }).
		Step(StageLines, func(context.Context) error { return nil }).
		Journal(journal.SourceItemReceipt, receiptJournal(docID)).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Stage{StageLock, StageHeader, StageLines, StageJournal, StageAudit, StageEvents}, state.Completed)
	assert.Empty(t, state.Failed)
	require.NotNil(t, state.Journal)
	assert.Equal(t, 1, journals.Len())
	assert.Len(t, auditLog.Entries, 1)
	assert.Equal(t, []string{events.DocumentCreated}, outbox.Types())
	assert.Equal(t, [][]string{{"item:a"}}, locker.acquired)
	assert.Equal(t, 1, locker.released)
}

func TestPlan_FailureCompensatesRemoteJournal(t *testing.T) {
	locker := &recordingLocker{}
	gl := &remotePoster{}
	outbox := &events.Recorder{}
	deps := Deps{TxManager: tx.Nop{}, Journal: gl, Locker: locker, Events: outbox}

	docID := id.New()
	state := NewSaveState("item_receipt", OpCreate, docID)
	state.Emit(events.DocumentCreated, nil)
	boom := apperror.NewInsufficientStock("i", "l", "2.0000", "1.0000")

	err := NewPlan(deps, state, []string{"item:a"}).
		Journal(journal.SourceItemReceipt, receiptJournal(docID)).
		Step(StageValuation, func(context.Context) error { return boom }).
		Run(context.Background())

	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	var stepErr *saga.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, []string{string(StageJournal)}, stepErr.Compensated)

	assert.Equal(t, StageValuation, state.Failed)
	assert.Len(t, gl.posted, 1)
	assert.Equal(t, 1, gl.reversed)
	assert.Equal(t, 1, locker.released)
	assert.Empty(t, outbox.Events())
}

// rollbackWatcher records how many locks were released when the transaction
// function returned.
type rollbackWatcher struct {
	locker          *recordingLocker
	releasedAtClose int
}

func (w *rollbackWatcher) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	w.locker.mu.Lock()
	w.releasedAtClose = w.locker.released
	w.locker.mu.Unlock()
	return err
}

func (w *rollbackWatcher) RunNested(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestPlan_LocksHeldUntilRollback(t *testing.T) {
	locker := &recordingLocker{}
	txm := &rollbackWatcher{locker: locker}
	deps := Deps{TxManager: txm, Journal: &remotePoster{}, Locker: locker}
	docID := id.New()

	err := NewPlan(deps, NewSaveState("item_receipt", OpCreate, docID), []string{"item:a", "item:b"}).
		Journal(journal.SourceItemReceipt, receiptJournal(docID)).
		Step(StageValuation, func(context.Context) error { return errors.New("valuation failed") }).
		Run(context.Background())

	require.Error(t, err)
	assert.Zero(t, txm.releasedAtClose, "keys stay locked while the transaction rolls back")
	assert.Equal(t, 1, locker.released)
}

func TestPlan_LocalJournalIsLeftToTheTransaction(t *testing.T) {
	journals := journal.NewMemoryRepository()
	deps := Deps{TxManager: tx.Nop{}, Journal: journal.NewService(journals)}
	docID := id.New()

	err := NewPlan(deps, NewSaveState("item_receipt", OpCreate, docID), nil).
		Journal(journal.SourceItemReceipt, receiptJournal(docID)).
		Step(StageStatus, func(context.Context) error { return errors.New("status table locked") }).
		Run(context.Background())

	require.Error(t, err)
	// tx.Nop has nothing to roll back; a real transaction drops the entry.
	assert.Equal(t, 1, journals.Len())
}

func TestPlan_AuditFailureDoesNotFailSave(t *testing.T) {
	deps := Deps{TxManager: tx.Nop{}, Journal: journal.NewService(journal.NewMemoryRepository()), Audit: failingRecorder{}}
	state := NewSaveState("transfer", OpDelete, id.New())

	err := NewPlan(deps, state, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageLock, StageEvents}, state.Completed)
}

func TestPlan_LockFailureStopsEverything(t *testing.T) {
	locker := &recordingLocker{fail: apperror.NewLocked("item:a")}
	ran := false
	deps := Deps{TxManager: tx.Nop{}, Locker: locker}

	err := NewPlan(deps, NewSaveState("transfer", OpCreate, id.New()), []string{"item:a"}).
		Step(StageHeader, func(context.Context) error {
			ran = true
			return nil
		}).
		Run(context.Background())

	assert.True(t, apperror.HasCode(err, apperror.CodeLocked))
	assert.False(t, ran)
	assert.Zero(t, locker.released)
}

func TestPlan_DeleteReversesWithoutPosting(t *testing.T) {
	gl := &remotePoster{}
	docID := id.New()
	state := NewSaveState("item_receipt", OpDelete, docID)

	err := NewPlan(Deps{TxManager: tx.Nop{}, Journal: gl}, state, nil).
		Journal(journal.SourceItemReceipt, receiptJournal(docID)).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gl.reversed)
	assert.Empty(t, gl.posted)
	assert.Nil(t, state.Journal)
}

func TestPlan_FailedUpdateRestoresRemoteEntries(t *testing.T) {
	gl := &remotePoster{}
	docID := id.New()
	_, err := gl.Post(context.Background(), journal.Request{SourceType: journal.SourceItemReceipt, SourceID: docID, Memo: "v1"})
	require.NoError(t, err)

	err = NewPlan(Deps{TxManager: tx.Nop{}, Journal: gl}, NewSaveState("item_receipt", OpUpdate, docID), nil).
		Journal(journal.SourceItemReceipt, journalFor(docID, "v2", decimal.NewFromInt(70))).
		Step(StageStatus, func(context.Context) error { return errors.New("boom") }).
		Run(context.Background())
	require.Error(t, err)

	require.Len(t, gl.live, 1)
	assert.Equal(t, "v1", gl.live[0].Memo)
	assert.Equal(t, 2, gl.reversed)
	assert.Len(t, gl.posted, 3)
}
