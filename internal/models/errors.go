package models

import "fmt"

// ErrorType identifies the category of error that occurred.
type ErrorType string

const (
	// Startup
	ErrConfigurationInvalid ErrorType = "configuration_invalid"

	// Snapshot acquisition
	ErrDirectoryCreationFailed ErrorType = "directory_creation_failed"
	ErrFetchFailed             ErrorType = "fetch_failed"

	// Tool invocation
	ErrPregenerationFailed   ErrorType = "pregeneration_failed"
	ErrArtifactRemovalFailed ErrorType = "artifact_removal_failed"
	ErrProcessSpawnFailed    ErrorType = "process_spawn_failed"
	ErrEncodingInvalid       ErrorType = "encoding_invalid"

	// Catch-all
	ErrCancelled     ErrorType = "cancelled"
	ErrInternalError ErrorType = "internal_error"
)

// Phase names the pipeline step an entry was in when it failed.
type Phase string

const (
	PhaseCreateDirectory Phase = "creating directory"
	PhaseInit            Phase = "initializing"
	PhaseRemote          Phase = "setting up remotes"
	PhaseFetch           Phase = "fetching origin"
	PhaseCheckout        Phase = "checking out repository"
	PhasePregenerateOld  Phase = "generating std with old tool"
	PhaseRemoveArtifact  Phase = "deleting stale std artifact"
	PhasePregenerateNew  Phase = "regenerating std before new tool"
	PhaseRunOld          Phase = "running old tool"
	PhaseRunNew          Phase = "running new tool"
	PhaseDecodeOld       Phase = "parsing old tool output as utf-8"
	PhaseDecodeNew       Phase = "parsing new tool output as utf-8"
)

// EntryError is a failure of one corpus entry, tagged with the phase it happened in.
type EntryError struct {
	ID    string
	Phase Phase
	Type  ErrorType
	Err   error
}

func (e *EntryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.ID, e.Phase)
	}
	return fmt.Sprintf("%s: %s: %v", e.ID, e.Phase, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// ConfigError reports a missing or invalid configuration value.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
