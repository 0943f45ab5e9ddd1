package game

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Trigger is an automation rule: one condition, one or more actions.
// Conditions and actions are tagged unions discriminated by a "type"
// field on the wire, stored as JSONB.
type Trigger struct {
	ID           uuid.UUID
	GameID       uuid.UUID
	Name         string
	Description  *string
	Enabled      bool
	Condition    TriggerCondition
	Actions      []TriggerAction
	ExecuteOnce  bool
	DelaySeconds int
	SortOrder    int
}

// TriggerCondition is the closed set of conditions a trigger can fire on.
// Variants referencing a step, phase or artifact carry either a resolved
// ID or a positional order alias, never both.
type TriggerCondition interface {
	ConditionType() string
}

// TriggerAction is the closed set of actions a trigger can execute.
type TriggerAction interface {
	ActionType() string
}

type ManualCondition struct{}

type StepStartedCondition struct {
	StepID    *string `json:"stepId"`
	StepOrder *int    `json:"stepOrder,omitempty"`
}

type StepCompletedCondition struct {
	StepID    *string `json:"stepId"`
	StepOrder *int    `json:"stepOrder,omitempty"`
}

type PhaseStartedCondition struct {
	PhaseID    *string `json:"phaseId"`
	PhaseOrder *int    `json:"phaseOrder,omitempty"`
}

type PhaseCompletedCondition struct {
	PhaseID    *string `json:"phaseId"`
	PhaseOrder *int    `json:"phaseOrder,omitempty"`
}

type ArtifactUnlockedCondition struct {
	ArtifactID    *string `json:"artifactId"`
	ArtifactOrder *int    `json:"artifactOrder,omitempty"`
}

// Keypad conditions reference keypad artifacts; artifacts double as
// keypad entities, so the alias is an artifact order.
type KeypadCorrectCondition struct {
	KeypadID      *string `json:"keypadId"`
	ArtifactOrder *int    `json:"artifactOrder,omitempty"`
}

type KeypadFailedCondition struct {
	KeypadID      *string `json:"keypadId"`
	ArtifactOrder *int    `json:"artifactOrder,omitempty"`
}

type TimerEndedCondition struct {
	TimerID string `json:"timerId"`
}

type DecisionResolvedCondition struct {
	DecisionID string `json:"decisionId"`
	Outcome    string `json:"outcome,omitempty"`
}

type SignalReceivedCondition struct {
	Channel string `json:"channel,omitempty"`
}

// RawCondition carries a condition type this codebase has no dedicated
// variant for. The payload is preserved byte-for-byte so unknown but
// valid condition types survive an import round-trip untouched.
type RawCondition struct {
	Kind string
	Raw  json.RawMessage
}

func (ManualCondition) ConditionType() string            { return "manual" }
func (StepStartedCondition) ConditionType() string       { return "step_started" }
func (StepCompletedCondition) ConditionType() string     { return "step_completed" }
func (PhaseStartedCondition) ConditionType() string      { return "phase_started" }
func (PhaseCompletedCondition) ConditionType() string    { return "phase_completed" }
func (ArtifactUnlockedCondition) ConditionType() string  { return "artifact_unlocked" }
func (KeypadCorrectCondition) ConditionType() string     { return "keypad_correct" }
func (KeypadFailedCondition) ConditionType() string      { return "keypad_failed" }
func (TimerEndedCondition) ConditionType() string        { return "timer_ended" }
func (DecisionResolvedCondition) ConditionType() string  { return "decision_resolved" }
func (SignalReceivedCondition) ConditionType() string    { return "signal_received" }
func (c RawCondition) ConditionType() string             { return c.Kind }

type RevealArtifactAction struct {
	ArtifactID    *string `json:"artifactId"`
	ArtifactOrder *int    `json:"artifactOrder,omitempty"`
}

type HideArtifactAction struct {
	ArtifactID    *string `json:"artifactId"`
	ArtifactOrder *int    `json:"artifactOrder,omitempty"`
}

type UnlockDecisionAction struct {
	DecisionID string `json:"decisionId"`
}

type LockDecisionAction struct {
	DecisionID string `json:"decisionId"`
}

type AdvanceStepAction struct{}

type AdvancePhaseAction struct{}

type StartTimerAction struct {
	Duration int    `json:"duration"`
	Name     string `json:"name"`
}

type SendMessageAction struct {
	Message string `json:"message"`
	Style   string `json:"style,omitempty"`
}

type SendSignalAction struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

type TimeBankApplyDeltaAction struct {
	DeltaSeconds      int    `json:"deltaSeconds"`
	Reason            string `json:"reason"`
	MinBalanceSeconds *int   `json:"minBalanceSeconds,omitempty"`
	MaxBalanceSeconds *int   `json:"maxBalanceSeconds,omitempty"`
}

type PlaySoundAction struct {
	SoundID string `json:"soundId"`
}

type ShowCountdownAction struct {
	Duration int    `json:"duration"`
	Message  string `json:"message"`
}

type ResetKeypadAction struct {
	KeypadID string `json:"keypadId"`
}

// RawAction mirrors RawCondition for unhandled action types.
type RawAction struct {
	Kind string
	Raw  json.RawMessage
}

func (RevealArtifactAction) ActionType() string     { return "reveal_artifact" }
func (HideArtifactAction) ActionType() string       { return "hide_artifact" }
func (UnlockDecisionAction) ActionType() string     { return "unlock_decision" }
func (LockDecisionAction) ActionType() string       { return "lock_decision" }
func (AdvanceStepAction) ActionType() string        { return "advance_step" }
func (AdvancePhaseAction) ActionType() string       { return "advance_phase" }
func (StartTimerAction) ActionType() string         { return "start_timer" }
func (SendMessageAction) ActionType() string        { return "send_message" }
func (SendSignalAction) ActionType() string         { return "send_signal" }
func (TimeBankApplyDeltaAction) ActionType() string { return "time_bank_apply_delta" }
func (PlaySoundAction) ActionType() string          { return "play_sound" }
func (ShowCountdownAction) ActionType() string      { return "show_countdown" }
func (ResetKeypadAction) ActionType() string        { return "reset_keypad" }
func (a RawAction) ActionType() string              { return a.Kind }

// marshalTagged serializes a union variant and injects its "type"
// discriminant. The value must not itself implement json.Marshaler.
func marshalTagged(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	kindJSON, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	fields["type"] = kindJSON
	return json.Marshal(fields)
}

// MarshalCondition produces the wire/storage form of a condition, with
// the "type" discriminant and without consumed alias fields.
func MarshalCondition(c TriggerCondition) ([]byte, error) {
	if raw, ok := c.(RawCondition); ok {
		return raw.Raw, nil
	}
	return marshalTagged(c.ConditionType(), c)
}

// MarshalAction produces the wire/storage form of an action.
func MarshalAction(a TriggerAction) ([]byte, error) {
	if raw, ok := a.(RawAction); ok {
		return raw.Raw, nil
	}
	return marshalTagged(a.ActionType(), a)
}

// MarshalActions serializes an action list into one JSON array.
func MarshalActions(actions []TriggerAction) ([]byte, error) {
	parts := make([]json.RawMessage, 0, len(actions))
	for _, a := range actions {
		data, err := MarshalAction(a)
		if err != nil {
			return nil, err
		}
		parts = append(parts, data)
	}
	return json.Marshal(parts)
}

type taggedEnvelope struct {
	Type string `json:"type"`
}

// UnmarshalCondition decodes one condition from its tagged wire form.
// Unknown types decode into RawCondition and are preserved as-is.
func UnmarshalCondition(data []byte) (TriggerCondition, error) {
	var env taggedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "condition is not an object")
	}

	decode := func(v TriggerCondition) (TriggerCondition, error) {
		if err := json.Unmarshal(data, v); err != nil {
			return nil, errors.Wrapf(err, "malformed %s condition", env.Type)
		}
		return v, nil
	}

	switch env.Type {
	case "manual":
		return ManualCondition{}, nil
	case "step_started":
		c, err := decode(&StepStartedCondition{})
		if err != nil {
			return nil, err
		}
		return *c.(*StepStartedCondition), nil
	case "step_completed":
		c, err := decode(&StepCompletedCondition{})
		if err != nil {
			return nil, err
		}
		return *c.(*StepCompletedCondition), nil
	case "phase_started":
		c, err := decode(&PhaseStartedCondition{})
		if err != nil {
			return nil, err
		}
		return *c.(*PhaseStartedCondition), nil
	case "phase_completed":
		c, err := decode(&PhaseCompletedCondition{})
		if err != nil {
			return nil, err
		}
		return *c.(*PhaseCompletedCondition), nil
	case "artifact_unlocked":
		c, err := decode(&ArtifactUnlockedCondition{})
		if err != nil {
			return nil, err
		}
		return *c.(*ArtifactUnlockedCondition), nil
	case "keypad_correct":
		c, err := decode(&KeypadCorrectCondition{})
		if err != nil {
			return nil, err
		}
		return *c.(*KeypadCorrectCondition), nil
	case "keypad_failed":
		c, err := decode(&KeypadFailedCondition{})
		if err != nil {
			return nil, err
		}
		return *c.(*KeypadFailedCondition), nil
	case "timer_ended":
		c, err := decode(&TimerEndedCondition{})
		if err != nil {
			return nil, err
		}
		return *c.(*TimerEndedCondition), nil
	case "decision_resolved":
		c, err := decode(&DecisionResolvedCondition{})
		if err != nil {
			return nil, err
		}
		return *c.(*DecisionResolvedCondition), nil
	case "signal_received":
		c, err := decode(&SignalReceivedCondition{})
		if err != nil {
			return nil, err
		}
		return *c.(*SignalReceivedCondition), nil
	default:
		return RawCondition{Kind: env.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// UnmarshalAction decodes one action from its tagged wire form.
func UnmarshalAction(data []byte) (TriggerAction, error) {
	var env taggedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "action is not an object")
	}

	decode := func(v TriggerAction) error {
		if err := json.Unmarshal(data, v); err != nil {
			return errors.Wrapf(err, "malformed %s action", env.Type)
		}
		return nil
	}

	switch env.Type {
	case "reveal_artifact":
		var a RevealArtifactAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case "hide_artifact":
		var a HideArtifactAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case "unlock_decision":
		var a UnlockDecisionAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case "lock_decision":
		var a LockDecisionAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case "advance_step":
		return AdvanceStepAction{}, nil
	case "advance_phase":
		return AdvancePhaseAction{}, nil
	case "start_timer":
		var a StartTimerAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case "send_message":
		var a SendMessageAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case "send_signal":
		var a SendSignalAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case "time_bank_apply_delta":
		var a TimeBankApplyDeltaAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case "play_sound":
		var a PlaySoundAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case "show_countdown":
		var a ShowCountdownAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case "reset_keypad":
		var a ResetKeypadAction
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return RawAction{Kind: env.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// UnmarshalActions decodes a JSON array of tagged actions.
func UnmarshalActions(data []byte) ([]TriggerAction, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, errors.Wrap(err, "actions is not an array")
	}
	actions := make([]TriggerAction, 0, len(parts))
	for _, part := range parts {
		a, err := UnmarshalAction(part)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}
