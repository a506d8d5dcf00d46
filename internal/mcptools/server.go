package mcptools

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewServer registers the survey tools on a new MCP server.
func NewServer(svc SurveyService, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"psyscore",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	list := NewListMySurveysTool(svc)
	s.AddTool(list.Definition(), list.Handle)

	detail := NewGetSurveyDetailTool(svc)
	s.AddTool(detail.Definition(), detail.Handle)

	start := NewStartSurveyTool(svc)
	s.AddTool(start.Definition(), start.Handle)

	submit := NewSubmitSurveyTool(svc)
	s.AddTool(submit.Definition(), submit.Handle)

	return s
}
