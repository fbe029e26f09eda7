// Package mcptool exposes qmd's core operations over the Model Context
// Protocol (spec.md §6, "Tool server surface"): six tools (search, vsearch,
// query, get, multi_get, status) plus one qmd://{collection}/{path}
// resource per active document, served over a line-delimited stdio
// channel. Grounded on the teacher's
// internal/mcp package (server.go, tools.go, resources.go, errors.go),
// generalized from AmanMCP's code-search tool set to qmd's document
// operations.
package mcptool

import (
	"errors"
	"fmt"

	qmderrors "github.com/qmd-dev/qmd/internal/errors"
)

// JSON-RPC and qmd-specific MCP error codes, mirroring the teacher's
// errors.go numbering scheme.
const (
	ErrCodeDocumentNotFound = -32001
	ErrCodeProviderFailure  = -32002
	ErrCodeInvalidParams    = -32602
	ErrCodeInternalError    = -32603
)

// ToolError is an MCP protocol error with a numeric code and message.
type ToolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError builds a ToolError for a malformed tool call.
func NewInvalidParamsError(msg string) *ToolError {
	return &ToolError{Code: ErrCodeInvalidParams, Message: msg}
}

// notFoundError builds a qmd NotFound error for a missing document,
// later translated to a ToolError by MapError.
func notFoundError(msg string) error {
	return qmderrors.NotFound(qmderrors.CodeDocumentNotFound, msg)
}

// MapError translates a qmd core error into a ToolError, preserving the
// taxonomy from internal/errors where possible (spec.md §7).
func MapError(err error) *ToolError {
	if err == nil {
		return nil
	}

	var qerr *qmderrors.Error
	if errors.As(err, &qerr) {
		switch qerr.Kind {
		case qmderrors.KindNotFound:
			return &ToolError{Code: ErrCodeDocumentNotFound, Message: qerr.Message}
		case qmderrors.KindTransientLLM:
			return &ToolError{Code: ErrCodeProviderFailure, Message: qerr.Message}
		case qmderrors.KindValidation:
			return &ToolError{Code: ErrCodeInvalidParams, Message: qerr.Message}
		default:
			return &ToolError{Code: ErrCodeInternalError, Message: qerr.Message}
		}
	}

	return &ToolError{Code: ErrCodeInternalError, Message: err.Error()}
}
