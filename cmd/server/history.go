package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/soaringjerry/psyscore/internal/models"
)

func newHistoryCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a user's scored surveys, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			list, err := a.surveyService(store).ListMySurveys(cmd.Context(), user)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), user, list)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

type historyStyles struct {
	header lipgloss.Style
	code   lipgloss.Style
	score  lipgloss.Style
	dim    lipgloss.Style
}

func newHistoryStyles() historyStyles {
	return historyStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		code:   lipgloss.NewStyle().Bold(true).Width(10),
		score:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Width(28),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func renderHistory(w io.Writer, user string, list []*models.Attempt) {
	st := newHistoryStyles()
	fmt.Fprintln(w, st.header.Render(fmt.Sprintf("Surveys for %s (%d)", user, len(list))))
	if len(list) == 0 {
		fmt.Fprintln(w, st.dim.Render("  no surveys yet"))
		return
	}
	for _, a := range list {
		interp := a.Interpretation
		if interp == "" {
			interp = "no interpretation available"
		}
		fmt.Fprintf(w, "  %s %s %s %s\n",
			st.dim.Render(a.CreatedAt.Format("2006-01-02 15:04")),
			st.code.Render(a.InstrumentCode),
			st.score.Render(formatScore(a.Score)),
			interp,
		)
	}
}

func formatScore(s models.Score) string {
	if s.Kind == models.ScoreDimensions {
		parts := make([]string, 0, len(s.Dimensions))
		for _, d := range s.Dimensions {
			parts = append(parts, fmt.Sprintf("%s %.2f", d.Dimension, d.Average))
		}
		return strings.Join(parts, " / ")
	}
	return fmt.Sprintf("total %g", s.Total)
}
