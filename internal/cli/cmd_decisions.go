package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/arbiterhq/arbiter/internal/api"
)

// newDecisionsCmd creates the decisions command
func newDecisionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decisions",
		Short: "List pending decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")

			var out struct {
				Decisions []api.PendingDecisionView `json:"decisions"`
			}
			if err := getJSON(server+"/api/decisions", &out); err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Decisions)
			}

			if len(out.Decisions) == 0 {
				fmt.Println("No pending decisions")
				return nil
			}
			for _, d := range out.Decisions {
				remaining := time.Until(d.TimeoutAt).Round(time.Second)
				switch d.Kind {
				case "question":
					fmt.Printf("%s  question  %d question(s)  times out in %s\n",
						d.ID, len(d.Questions), remaining)
				default:
					fmt.Printf("%s  approval  %s  times out in %s\n",
						d.ID, d.ToolName, remaining)
				}
			}
			return nil
		},
	}
}

// newApproveCmd creates the approve command
func newApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <decision-id>",
		Short: "Approve a pending tool call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			id := args[0]

			err := postJSON(server+"/api/approvals/"+id, api.ApprovalSubmission{Approved: true})
			if err != nil {
				return err
			}
			fmt.Printf("✅ Decision %s approved\n", id)
			return nil
		},
	}
}

// newDenyCmd creates the deny command
func newDenyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deny <decision-id>",
		Short: "Deny a pending tool call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			id := args[0]
			reason, _ := cmd.Flags().GetString("reason")
			if reason == "" {
				reason = "denied by user"
			}

			err := postJSON(server+"/api/approvals/"+id, api.ApprovalSubmission{Approved: false, Reason: reason})
			if err != nil {
				return err
			}
			fmt.Printf("❌ Decision %s denied: %s\n", id, reason)
			return nil
		},
	}
	cmd.Flags().String("reason", "", "reason shown to the agent")
	return cmd
}

func getJSON(url string, out any) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("contact server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func postJSON(url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("contact server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return fmt.Errorf("server: %s", body.Error)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
