package model

import "errors"

// Sentinel errors for the ten error classes named by the error-handling
// design. Components wrap these with fmt.Errorf("...: %w", Err...) to add
// field/metric/agent context, mirroring the registry package's
// ErrNotFound convention.
var (
	ErrConfiguration       = errors.New("configuration error")
	ErrDuplicateTeamID     = errors.New("duplicate team_id")
	ErrPluginLoad          = errors.New("plugin load error")
	ErrTaskValidation      = errors.New("task validation error")
	ErrTransientProvider   = errors.New("transient provider error")
	ErrTerminalProvider    = errors.New("terminal provider error")
	ErrToolMisconfiguration = errors.New("tool misconfiguration error")
	ErrEvaluator           = errors.New("evaluator error")
	ErrJudgment            = errors.New("judgment error")
	ErrTimeout             = errors.New("timeout")
	ErrStore               = errors.New("store error")
)
