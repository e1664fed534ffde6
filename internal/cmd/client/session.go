package client

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/colinclerk/sr/internal/batch"
	"github.com/colinclerk/sr/internal/recorder"
)

// NewSessionCommand constructs the `session` command group.
func NewSessionCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "Session log operations"}
	cmd.AddCommand(
		newSessionReadCommand(baseURL),
		newSessionCursorCommand(baseURL),
		newSessionConnectionsCommand(baseURL),
		newSessionPushCommand(baseURL),
	)
	return cmd
}

func newSessionReadCommand(baseURL BaseURLFunc) *cobra.Command {
	readCmd := &cobra.Command{
		Use:   "read <session>",
		Short: "Print the session's segments as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			tname, _ := cmd.Flags().GetString("transport")
			pretty, _ := cmd.Flags().GetBool("pretty")
			t, err := getTransport(tname, baseURL)
			if err != nil {
				return err
			}
			body, err := t.ReadCurrent(cmd.Context(), args[0], filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if pretty {
				var buf bytes.Buffer
				if err := json.Indent(&buf, body, "", "  "); err == nil {
					body = buf.Bytes()
				}
			}
			if _, err := out.Write(bytes.TrimRight(body, "\n")); err != nil {
				return err
			}
			_, err = fmt.Fprintln(out)
			return err
		},
	}
	readCmd.Flags().String("filter", "", "CEL expression over type, timestamp, segment, event")
	readCmd.Flags().String("transport", "http", "Transport: http|grpc")
	readCmd.Flags().Bool("pretty", false, "Indent JSON output")
	return readCmd
}

func newSessionCursorCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "cursor <session>",
		Short: "Show the session's write cursor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getBody(cmd.Context(), baseURL()+"/v1/sessions/"+url.PathEscape(args[0])+"/cursor")
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, body, "", "  "); err != nil {
				return fmt.Errorf("decode cursor: %w", err)
			}
			_, err = buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}

func newSessionConnectionsCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "connections <session>",
		Short: "List live ingest connections of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getBody(cmd.Context(), baseURL()+"/v1/sessions/"+url.PathEscape(args[0])+"/connections")
			if err != nil {
				return err
			}
			var resp struct {
				Connections []recorder.Connection `json:"connections"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("decode connections: %w", err)
			}
			table := uitable.New()
			bold := color.New(color.Bold).SprintFunc()
			table.AddRow(bold("ID"), bold("TRANSPORT"), bold("REMOTE"), bold("CONNECTED"))
			for _, c := range resp.Connections {
				table.AddRow(c.ID, c.Transport, c.Remote, time.UnixMilli(c.ConnectedAtMs).UTC().Format(time.RFC3339))
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

// newSessionPushCommand replays newline-delimited JSON event arrays into a
// session: every line is sent as one batch.
func newSessionPushCommand(baseURL BaseURLFunc) *cobra.Command {
	pushCmd := &cobra.Command{
		Use:   "push <session>",
		Short: "Push NDJSON event batches (one JSON array per line)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			tname, _ := cmd.Flags().GetString("transport")
			compression, _ := cmd.Flags().GetString("compression")
			if tname == "http" {
				tname = "ws"
			}
			codec, err := batch.NewCodec(compression)
			if err != nil {
				return err
			}
			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			t, err := getTransport(tname, baseURL)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			stream, err := t.Push(ctx, args[0])
			if err != nil {
				return err
			}
			defer stream.Close()

			sc := bufio.NewScanner(in)
			sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
			sent, total := 0, 0
			for line := 1; sc.Scan(); line++ {
				raw := bytes.TrimSpace(sc.Bytes())
				if len(raw) == 0 {
					continue
				}
				var events []json.RawMessage
				if err := json.Unmarshal(raw, &events); err != nil {
					return fmt.Errorf("line %d: expected a JSON array of events: %w", line, err)
				}
				buf, err := codec.Encode(events)
				if err != nil {
					return fmt.Errorf("line %d: %w", line, err)
				}
				if _, err := stream.Send(ctx, buf); err != nil {
					return fmt.Errorf("line %d: %w", line, err)
				}
				sent++
				total += len(buf)
			}
			if err := sc.Err(); err != nil {
				return err
			}
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d batches (%d bytes) to %s\n", green("pushed"), sent, total, args[0])
			return nil
		},
	}
	pushCmd.Flags().StringP("file", "f", "-", "NDJSON input file (- for stdin)")
	pushCmd.Flags().String("transport", "ws", "Transport: ws|grpc")
	pushCmd.Flags().String("compression", "gzip", "Batch compression: gzip|zlib|snappy|none")
	return pushCmd
}
