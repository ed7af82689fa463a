package web

// # Error Codes Reference
//
// Errors returned by the HTTP surface carry a short code that can be quoted
// when reporting a problem.
//
//	IN001    - Input file missing from the input directory
//	COL001   - Required column missing from an input file
//	RUN001   - A pipeline run is already in progress
//	VIEW001  - Unknown view name
//	NORUN001 - No run has finished yet
//	S3001    - Upload of outputs failed ("publish:")
//	DB001    - Unable to connect to database ("connection refused")
//	DB002    - Database connection interrupted ("connection reset")
//	DB003    - Database operation timed out ("timeout", "deadline exceeded")
//	DB004    - Database rejected the credentials ("password authentication", "access denied for user")
//	DB005    - Target database does not exist ("does not exist", "unknown database")
//	ERR000   - Anything else; check the server log for the request ID
//
// Typed errors are matched first with errors.Is. The remaining patterns are
// matched case-insensitively with strings.Contains, first match wins.

import (
	"errors"
	"strings"

	"github.com/JonMunkholm/salesetl/internal/extract"
	"github.com/JonMunkholm/salesetl/internal/pipeline"
	"github.com/JonMunkholm/salesetl/internal/transform"
)

// ErrUnknownView is returned for a view name the transform does not produce.
var ErrUnknownView = errors.New("unknown view")

// ErrNoRun is returned when no pipeline run has finished yet.
var ErrNoRun = errors.New("no pipeline run has finished yet")

// UserMessage is what a client sees for an error.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

type typedError struct {
	target error
	msg    UserMessage
}

var typedErrors = []typedError{
	{extract.ErrMissingInput, UserMessage{"Input file not found", "Check INPUT_DIR contains empregados.csv, produtos.csv and vendas.csv", "IN001"}},
	{transform.ErrMissingColumn, UserMessage{"Required column missing from an input file", "Check the input headers", "COL001"}},
	{pipeline.ErrRunInProgress, UserMessage{"A pipeline run is already in progress", "Wait for it to finish and try again", "RUN001"}},
	{ErrUnknownView, UserMessage{"Unknown view", "Use one of the names listed by the latest run", "VIEW001"}},
	{ErrNoRun, UserMessage{"No pipeline run has finished yet", "Trigger a run with POST /api/runs", "NORUN001"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"publish:", UserMessage{"Uploading the outputs failed", "Check PUBLISH_S3_BUCKET and the AWS credentials", "S3001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Check the database URL and that the server is up", "DB001"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB002"}},
	{"timeout", UserMessage{"Database operation timed out", "Raise DB_WRITE_TIMEOUT or try again later", "DB003"}},
	{"deadline exceeded", UserMessage{"Database operation timed out", "Raise DB_WRITE_TIMEOUT or try again later", "DB003"}},
	{"password authentication", UserMessage{"Database rejected the credentials", "Check the user and password in the database URL", "DB004"}},
	{"access denied for user", UserMessage{"Database rejected the credentials", "Check the user and password in the database URL", "DB004"}},
	{"does not exist", UserMessage{"Database or table does not exist", "Create the target database first", "DB005"}},
	{"unknown database", UserMessage{"Database or table does not exist", "Create the target database first", "DB005"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the server log using the request ID",
	Code:    "ERR000",
}

// MapError converts an error to a client-facing message. nil maps to the
// zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, te := range typedErrors {
		if errors.Is(err, te.target) {
			return te.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}
