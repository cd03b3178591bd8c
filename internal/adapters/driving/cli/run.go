package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	credfile "github.com/custodia-labs/zoho-inventory-sink/internal/adapters/driven/credentials/file"
	"github.com/custodia-labs/zoho-inventory-sink/internal/connectors/zoho"
	"github.com/custodia-labs/zoho-inventory-sink/internal/core/domain"
	"github.com/custodia-labs/zoho-inventory-sink/internal/logger"
)

// billsStream is the record stream this sink consumes.
const billsStream = "Bills"

// maxMessageSize bounds a single inbound message line.
const maxMessageSize = 4 * 1024 * 1024

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read record messages from stdin and post them as purchase orders",
	Long: `Reads newline-delimited messages on stdin. RECORD messages for the
"Bills" stream are translated and posted to Zoho Inventory; SCHEMA and
STATE messages are ignored. Exits non-zero if any record fails.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	store, err := credfile.NewStore(configPath)
	if err != nil {
		return err
	}

	state := domain.NewRunState()
	logger.Info("starting run %s", state.RunID)

	auth := zoho.NewAuthenticator(store, state)
	client := zoho.NewClient(store.Credentials(), auth)
	sink := zoho.NewSink(client, state)

	if err := processStream(cmd.Context(), os.Stdin, sink, state); err != nil {
		return err
	}

	processed, failed := state.Counts()
	logger.Info("run %s finished: %d records processed, %d failed", state.RunID, processed, failed)
	if failed > 0 {
		return fmt.Errorf("%d records failed", failed)
	}
	return nil
}

// message is one newline-delimited stream message in the upstream
// pipeline's format.
type message struct {
	Type   string          `json:"type"`
	Stream string          `json:"stream"`
	Record json.RawMessage `json:"record"`
}

// recordProcessor is the slice of the sink the stream loop needs.
type recordProcessor interface {
	ProcessRecord(ctx context.Context, record domain.BillRecord) error
}

// processStream dispatches every Bills RECORD message to the processor.
// A failed record is logged and counted but does not stop the stream.
// Two failures abort the whole run: a malformed message, since the
// input can no longer be trusted, and an authentication failure, since
// every remaining record would fail the same way.
func processStream(ctx context.Context, r io.Reader, proc recordProcessor, state *domain.RunState) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxMessageSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			return fmt.Errorf("malformed input message: %w", err)
		}

		if msg.Type != "RECORD" {
			logger.Debug("ignoring %s message", msg.Type)
			continue
		}
		if msg.Stream != billsStream {
			logger.Debug("ignoring record for stream %q", msg.Stream)
			continue
		}

		var record domain.BillRecord
		if err := json.Unmarshal(msg.Record, &record); err != nil {
			return fmt.Errorf("malformed %s record: %w", billsStream, err)
		}

		if err := proc.ProcessRecord(ctx, record); err != nil {
			state.RecordFailed()
			logger.Error("record %s failed: %v", record.ID, err)
			if zoho.IsAuthError(err) || zoho.IsUnauthorized(err) {
				return fmt.Errorf("authentication failed, aborting run: %w", err)
			}
			continue
		}
		state.RecordProcessed()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input stream: %w", err)
	}
	return nil
}
