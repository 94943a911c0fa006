// Package conversation tracks, per chat, which guided flow is active, the
// step it waits on and the fields collected so far.
package conversation

import (
	"fmt"
	"time"

	"github.com/m3rciful/finbot/internal/ledger"
)

// Flow names a multi-step dialogue.
type Flow string

const (
	// FlowNone means the chat is idle.
	FlowNone           Flow = ""
	FlowRegistration   Flow = "registration"
	FlowAddOperation   Flow = "add_operation"
	FlowSetBudget      Flow = "set_budget"
	FlowViewOperations Flow = "view_operations"
)

// Step is one point within a flow awaiting a specific kind of input.
type Step string

const (
	// StepNone is reported for idle chats.
	StepNone               Step = ""
	StepWaitingForName     Step = "waiting_for_name"
	StepWaitingForType     Step = "waiting_for_type"
	StepWaitingForAmount   Step = "waiting_for_amount"
	StepWaitingForDate     Step = "waiting_for_date"
	StepWaitingForBudget   Step = "waiting_for_budget"
	StepWaitingForCurrency Step = "waiting_for_currency"
	StepWaitingForExchange Step = "waiting_for_exchange"
)

var flowSteps = map[Flow][]Step{
	FlowRegistration:   {StepWaitingForName},
	FlowAddOperation:   {StepWaitingForType, StepWaitingForAmount, StepWaitingForDate},
	FlowSetBudget:      {StepWaitingForBudget},
	FlowViewOperations: {StepWaitingForCurrency, StepWaitingForExchange},
}

// Steps lists the steps of f in order; nil for unknown flows.
func (f Flow) Steps() []Step {
	return flowSteps[f]
}

// InitialStep is the step a freshly started flow waits on.
func (f Flow) InitialStep() Step {
	if steps := flowSteps[f]; len(steps) > 0 {
		return steps[0]
	}
	return StepNone
}

func (f Flow) has(step Step) bool {
	for _, s := range flowSteps[f] {
		if s == step {
			return true
		}
	}
	return false
}

func (f Flow) newFields() Fields {
	switch f {
	case FlowRegistration:
		return RegistrationFields{}
	case FlowAddOperation:
		return OperationFields{}
	case FlowSetBudget:
		return BudgetFields{}
	case FlowViewOperations:
		return ViewFields{}
	}
	return nil
}

// Field keys accepted by RecordField.
type Field string

const (
	FieldName     Field = "name"
	FieldKind     Field = "kind"
	FieldAmount   Field = "amount"
	FieldDate     Field = "date"
	FieldCurrency Field = "currency"
)

// Fields is the typed set of values collected by one flow. The concrete type
// is fixed by the flow: RegistrationFields, OperationFields, BudgetFields or ViewFields.
type Fields interface {
	Flow() Flow
	with(key Field, value any) (Fields, error)
}

// RegistrationFields are collected by the registration flow.
type RegistrationFields struct {
	Name string
}

// OperationFields are collected by the add-operation flow.
type OperationFields struct {
	Kind   ledger.Kind
	Amount float64
	Date   time.Time
}

// BudgetFields are collected by the set-budget flow.
type BudgetFields struct {
	Amount float64
}

// ViewFields are collected by the view-operations flow.
type ViewFields struct {
	Currency string
}

func (RegistrationFields) Flow() Flow { return FlowRegistration }
func (OperationFields) Flow() Flow    { return FlowAddOperation }
func (BudgetFields) Flow() Flow       { return FlowSetBudget }
func (ViewFields) Flow() Flow         { return FlowViewOperations }

func (f RegistrationFields) with(key Field, value any) (Fields, error) {
	if v, ok := value.(string); ok && key == FieldName {
		f.Name = v
		return f, nil
	}
	return f, mismatch(f, key, value)
}

func (f OperationFields) with(key Field, value any) (Fields, error) {
	switch v := value.(type) {
	case ledger.Kind:
		if key == FieldKind {
			f.Kind = v
			return f, nil
		}
	case float64:
		if key == FieldAmount {
			f.Amount = v
			return f, nil
		}
	case time.Time:
		if key == FieldDate {
			f.Date = v
			return f, nil
		}
	}
	return f, mismatch(f, key, value)
}

func (f BudgetFields) with(key Field, value any) (Fields, error) {
	if v, ok := value.(float64); ok && key == FieldAmount {
		f.Amount = v
		return f, nil
	}
	return f, mismatch(f, key, value)
}

func (f ViewFields) with(key Field, value any) (Fields, error) {
	if v, ok := value.(string); ok && key == FieldCurrency {
		f.Currency = v
		return f, nil
	}
	return f, mismatch(f, key, value)
}

func mismatch(f Fields, key Field, value any) error {
	return fmt.Errorf("%w: %s does not accept %s=%T", ErrFieldMismatch, f.Flow(), key, value)
}
