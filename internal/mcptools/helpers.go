package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/soaringjerry/psyscore/internal/models"
	"github.com/soaringjerry/psyscore/internal/services"
)

// SurveyService is the survey workflow exposed as tools.
type SurveyService interface {
	ListMySurveys(ctx context.Context, userID string) ([]*models.Attempt, error)
	GetDetail(ctx context.Context, userID, attemptID string) (*services.AttemptDetail, error)
	StartSurvey(ctx context.Context, userID, categoryCode string) (*services.StartResult, error)
	SubmitSurvey(ctx context.Context, userID string, req services.SubmitRequest) (*services.SubmitResult, error)
}

func userIDParam() mcp.ToolOption {
	return mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Id of the user the operation acts for"),
	)
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// errorResult turns a service error into a tool-level error the model can read.
// Errors that are not service errors are returned as protocol errors.
func errorResult(err error) (*mcp.CallToolResult, error) {
	if se, ok := services.AsServiceError(err); ok {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", se.Code, se.Message)), nil
	}
	return nil, err
}

// numbers reads a JSON array of numbers from the tool arguments.
func numbers(req mcp.CallToolRequest, name string) ([]float64, error) {
	raw, ok := req.GetArguments()[name]
	if !ok || raw == nil {
		return nil, fmt.Errorf("'%s' is required", name)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("'%s' must be an array of numbers", name)
	}
	out := make([]float64, 0, len(list))
	for i, v := range list {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("'%s'[%d] is not a number", name, i)
			}
			out = append(out, f)
		default:
			return nil, fmt.Errorf("'%s'[%d] is not a number", name, i)
		}
	}
	return out, nil
}

func requiredString(req mcp.CallToolRequest, name string) (string, *mcp.CallToolResult) {
	v := strings.TrimSpace(req.GetString(name, ""))
	if v == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("'%s' is required", name))
	}
	return v, nil
}
