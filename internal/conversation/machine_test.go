package conversation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/finbot/internal/ledger"
)

func TestStartRejectsSecondFlow(t *testing.T) {
	m := NewMachine()
	if err := m.Start(1, FlowAddOperation); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := m.CurrentStep(1); got != StepWaitingForType {
		t.Fatalf("step = %q, want %q", got, StepWaitingForType)
	}
	if err := m.Start(1, FlowSetBudget); !errors.Is(err, ErrAlreadyInFlow) {
		t.Fatalf("err = %v, want ErrAlreadyInFlow", err)
	}
	if err := m.Start(2, FlowSetBudget); err != nil {
		t.Fatalf("other chat must be independent: %v", err)
	}
}

func TestStartUnknownFlow(t *testing.T) {
	if err := NewMachine().Start(1, Flow("bogus")); !errors.Is(err, ErrUnknownFlow) {
		t.Fatalf("err = %v, want ErrUnknownFlow", err)
	}
}

func TestIdleChatOperations(t *testing.T) {
	m := NewMachine()
	if got := m.CurrentStep(9); got != StepNone {
		t.Fatalf("step = %q, want none", got)
	}
	if err := m.RecordField(9, FieldName, "x"); !errors.Is(err, ErrNoActiveFlow) {
		t.Fatalf("RecordField err = %v", err)
	}
	if err := m.Advance(9, StepWaitingForDate); !errors.Is(err, ErrNoActiveFlow) {
		t.Fatalf("Advance err = %v", err)
	}
	if f := m.Complete(9); f != nil {
		t.Fatalf("Complete on idle = %#v, want nil", f)
	}
}

func TestFieldsAccumulateAndCompleteClears(t *testing.T) {
	m := NewMachine()
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	_ = m.Start(1, FlowAddOperation)

	steps := []struct {
		key   Field
		value any
		next  Step
	}{
		{FieldKind, ledger.KindExpense, StepWaitingForAmount},
		{FieldAmount, 500.0, StepWaitingForDate},
		{FieldDate, date, StepWaitingForDate},
	}
	for _, s := range steps {
		if err := m.RecordField(1, s.key, s.value); err != nil {
			t.Fatalf("RecordField(%s): %v", s.key, err)
		}
		if err := m.Advance(1, s.next); err != nil {
			t.Fatalf("Advance(%s): %v", s.next, err)
		}
	}

	got, ok := m.Complete(1).(OperationFields)
	if !ok {
		t.Fatal("expected OperationFields")
	}
	want := OperationFields{Kind: ledger.KindExpense, Amount: 500, Date: date}
	if got != want {
		t.Fatalf("fields = %+v, want %+v", got, want)
	}
	if m.Complete(1) != nil {
		t.Fatal("second Complete must return nil")
	}
	if m.CurrentStep(1) != StepNone || m.Active() != 0 {
		t.Fatal("session must be cleared")
	}
}

func TestRecordFieldRejectsForeignKeys(t *testing.T) {
	m := NewMachine()
	_ = m.Start(1, FlowSetBudget)
	if err := m.RecordField(1, FieldCurrency, "USD"); !errors.Is(err, ErrFieldMismatch) {
		t.Fatalf("err = %v, want ErrFieldMismatch", err)
	}
	if err := m.RecordField(1, FieldAmount, "100"); !errors.Is(err, ErrFieldMismatch) {
		t.Fatalf("string amount err = %v, want ErrFieldMismatch", err)
	}
	s, _ := m.Session(1)
	if s.Fields != (BudgetFields{}) {
		t.Fatalf("fields changed on rejected record: %+v", s.Fields)
	}
}

func TestAdvanceRejectsForeignStep(t *testing.T) {
	m := NewMachine()
	_ = m.Start(1, FlowRegistration)
	if err := m.Advance(1, StepWaitingForCurrency); !errors.Is(err, ErrStepMismatch) {
		t.Fatalf("err = %v, want ErrStepMismatch", err)
	}
	if m.CurrentStep(1) != StepWaitingForName {
		t.Fatal("step must not move")
	}
}

func TestSessionSnapshotIsDetached(t *testing.T) {
	m := NewMachine()
	_ = m.Start(1, FlowViewOperations)
	snap, _ := m.Session(1)
	_ = m.RecordField(1, FieldCurrency, "EUR")
	if snap.Fields.(ViewFields).Currency != "" {
		t.Fatal("snapshot must not observe later writes")
	}
}

func TestLockSerializesSameChatOnly(t *testing.T) {
	m := NewMachine()
	unlock := m.Lock(1)

	otherDone := make(chan struct{})
	go func() {
		release := m.Lock(2)
		release()
		close(otherDone)
	}()
	select {
	case <-otherDone:
	case <-time.After(time.Second):
		t.Fatal("lock on chat 1 blocked chat 2")
	}

	sameDone := make(chan struct{})
	go func() {
		release := m.Lock(1)
		release()
		close(sameDone)
	}()
	select {
	case <-sameDone:
		t.Fatal("second lock on chat 1 acquired while held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	unlock()
	<-sameDone

	m.locksMu.Lock()
	left := len(m.locks)
	m.locksMu.Unlock()
	if left != 0 {
		t.Fatalf("lock table leaked %d entries", left)
	}
}

func TestConcurrentChatsDoNotInterfere(t *testing.T) {
	m := NewMachine()
	var wg sync.WaitGroup
	for chat := int64(1); chat <= 50; chat++ {
		wg.Add(1)
		go func(chat int64) {
			defer wg.Done()
			unlock := m.Lock(chat)
			defer unlock()
			_ = m.Start(chat, FlowSetBudget)
			_ = m.RecordField(chat, FieldAmount, float64(chat))
			if f := m.Complete(chat).(BudgetFields); f.Amount != float64(chat) {
				t.Errorf("chat %d got %v", chat, f.Amount)
			}
		}(chat)
	}
	wg.Wait()
	if m.Active() != 0 {
		t.Fatalf("active = %d", m.Active())
	}
}
