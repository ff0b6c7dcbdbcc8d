package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/planlens/compare-cli/internal/model"
)

var askInsurers []string

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Interactive comparison session with follow-up support",
	Long:  "Reads queries from stdin in a loop. Follow-ups like \"메리츠는?\" reuse the previous coverage anchor. Type \"reset\" to drop the anchor, \"exit\" to quit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		sessionID := uuid.NewString()
		out := cmd.OutOrStdout()
		scanner := bufio.NewScanner(cmd.InOrStdin())

		fmt.Fprintln(out, "질문을 입력하세요 (exit 입력 시 종료):")
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				break
			}
			query := strings.TrimSpace(scanner.Text())
			switch query {
			case "":
				continue
			case "exit", "quit":
				return scanner.Err()
			case "reset":
				e.Tracker.Reset(sessionID)
				fmt.Fprintln(out, "대화 상태를 초기화했습니다.")
				continue
			}

			req := model.CompareRequest{
				Insurers:  askInsurers,
				Query:     query,
				SessionID: sessionID,
			}
			res, err := e.Tracker.Apply(ctx, sessionID, query)
			if err == nil {
				applyAnchor(&req, res)
			}
			if len(req.Insurers) == 0 {
				fmt.Fprintln(out, "비교할 보험사를 질문에 포함하거나 --insurers 로 지정하세요.")
				continue
			}

			result, err := e.Engine.Compare(ctx, req)
			if err != nil {
				fmt.Fprintf(out, "오류: %v\n", err)
				continue
			}

			summary := e.Assistant.Summarize(ctx, result)
			fmt.Fprintln(out, summary.Text)
		}
		return scanner.Err()
	},
}

func init() {
	askCmd.Flags().StringSliceVar(&askInsurers, "insurers", nil, "default insurer codes when the query names none")
	rootCmd.AddCommand(askCmd)
}
