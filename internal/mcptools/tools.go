package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/soaringjerry/psyscore/internal/services"
)

// ListMySurveysTool handles the list_my_surveys MCP tool.
type ListMySurveysTool struct {
	svc SurveyService
}

func NewListMySurveysTool(svc SurveyService) *ListMySurveysTool {
	return &ListMySurveysTool{svc: svc}
}

func (t *ListMySurveysTool) Definition() mcp.Tool {
	return mcp.NewTool("list_my_surveys",
		mcp.WithDescription("List a user's completed professional surveys, newest first, with score and interpretation."),
		userIDParam(),
	)
}

func (t *ListMySurveysTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, bad := requiredString(req, "user_id")
	if bad != nil {
		return bad, nil
	}
	list, err := t.svc.ListMySurveys(ctx, uid)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(list)
}

// GetSurveyDetailTool handles the get_survey_detail MCP tool.
type GetSurveyDetailTool struct {
	svc SurveyService
}

func NewGetSurveyDetailTool(svc SurveyService) *GetSurveyDetailTool {
	return &GetSurveyDetailTool{svc: svc}
}

func (t *GetSurveyDetailTool) Definition() mcp.Tool {
	return mcp.NewTool("get_survey_detail",
		mcp.WithDescription("Show one of the user's survey attempts with its result band text."),
		userIDParam(),
		mcp.WithString("attempt_id",
			mcp.Required(),
			mcp.Description("Attempt id returned by submit_survey or list_my_surveys"),
		),
	)
}

func (t *GetSurveyDetailTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, bad := requiredString(req, "user_id")
	if bad != nil {
		return bad, nil
	}
	id, bad := requiredString(req, "attempt_id")
	if bad != nil {
		return bad, nil
	}
	detail, err := t.svc.GetDetail(ctx, uid, id)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(detail)
}

// StartSurveyTool handles the start_survey MCP tool.
type StartSurveyTool struct {
	svc SurveyService
}

func NewStartSurveyTool(svc SurveyService) *StartSurveyTool {
	return &StartSurveyTool{svc: svc}
}

func (t *StartSurveyTool) Definition() mcp.Tool {
	return mcp.NewTool("start_survey",
		mcp.WithDescription("Get the questionnaire for a category (e.g. 'stress', 'attachment'): instrument code, answer scale and ordered questions."),
		userIDParam(),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Category code of the instrument"),
		),
	)
}

func (t *StartSurveyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, bad := requiredString(req, "user_id")
	if bad != nil {
		return bad, nil
	}
	category, bad := requiredString(req, "category")
	if bad != nil {
		return bad, nil
	}
	out, err := t.svc.StartSurvey(ctx, uid, category)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(out)
}

// SubmitSurveyTool handles the submit_survey MCP tool.
type SubmitSurveyTool struct {
	svc SurveyService
}

func NewSubmitSurveyTool(svc SurveyService) *SubmitSurveyTool {
	return &SubmitSurveyTool{svc: svc}
}

func (t *SubmitSurveyTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_survey",
		mcp.WithDescription("Score a completed questionnaire and store the attempt. Answers are positional, one per question, within the instrument's scale."),
		userIDParam(),
		mcp.WithString("instrument_code",
			mcp.Required(),
			mcp.Description("Instrument code from start_survey (e.g. PSS-10)"),
		),
		mcp.WithArray("answers",
			mcp.Required(),
			mcp.Description("Numeric answers in question order"),
			mcp.Items(map[string]any{"type": "number"}),
		),
	)
}

func (t *SubmitSurveyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, bad := requiredString(req, "user_id")
	if bad != nil {
		return bad, nil
	}
	code, bad := requiredString(req, "instrument_code")
	if bad != nil {
		return bad, nil
	}
	answers, err := numbers(req, "answers")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := t.svc.SubmitSurvey(ctx, uid, services.SubmitRequest{InstrumentCode: code, Answers: answers})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(out)
}
