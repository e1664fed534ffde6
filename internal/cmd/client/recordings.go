package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/colinclerk/sr/internal/catalog"
)

// NewRecordingsCommand constructs the `recordings` command group.
func NewRecordingsCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "recordings", Short: "Recording catalog"}
	cmd.AddCommand(newRecordingsListCommand(baseURL), newRecordingsGetCommand(baseURL))
	return cmd
}

func newRecordingsListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, _ := cmd.Flags().GetString("session")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			q := url.Values{}
			if session != "" {
				q.Set("session", session)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			u := baseURL() + "/v1/recordings"
			if len(q) > 0 {
				u += "?" + q.Encode()
			}
			body, err := getBody(cmd.Context(), u)
			if err != nil {
				return err
			}
			if asJSON {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}
			var resp struct {
				Recordings []catalog.Entry `json:"recordings"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("decode recordings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), recordingsTable(resp.Recordings))
			return nil
		},
	}
	listCmd.Flags().String("session", "", "Only recordings of this session")
	listCmd.Flags().Int("limit", 0, "Maximum number of recordings")
	listCmd.Flags().Bool("json", false, "Print raw JSON")
	return listCmd
}

func newRecordingsGetCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getBody(cmd.Context(), baseURL()+"/v1/recordings/"+url.PathEscape(args[0]))
			if err != nil {
				return err
			}
			var e catalog.Entry
			if err := json.Unmarshal(body, &e); err != nil {
				return fmt.Errorf("decode recording: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), recordingsTable([]catalog.Entry{e}))
			return nil
		},
	}
}

func recordingsTable(entries []catalog.Entry) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 60
	bold := color.New(color.Bold).SprintFunc()
	table.AddRow(bold("ID"), bold("SESSION"), bold("CREATED"), bold("BUCKETED"))
	for _, e := range entries {
		created := time.UnixMilli(e.CreatedAtMs).UTC().Format(time.RFC3339)
		table.AddRow(e.ID, e.Session, created, e.Bucketed)
	}
	return table
}
