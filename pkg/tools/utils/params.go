// Package utils provides shared helpers for extracting tool arguments.
package utils

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// GetStringParam safely extracts a string parameter from the request
func GetStringParam(req mcp.CallToolRequest, key string, required bool) (string, error) {
	val, exists := req.Params.Arguments[key]
	if !exists || val == nil {
		if required {
			return "", fmt.Errorf("missing required parameter: '%s'", key)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("parameter '%s' must be a string", key)
	}

	return str, nil
}

// GetOptionalStringParam is a shorthand for GetStringParam with required=false
func GetOptionalStringParam(req mcp.CallToolRequest, key string) (string, error) {
	return GetStringParam(req, key, false)
}

// HandleParameterError returns a properly formatted error response for parameter validation errors
func HandleParameterError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}
