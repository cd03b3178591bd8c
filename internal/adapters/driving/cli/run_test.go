package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/zoho-inventory-sink/internal/connectors/zoho"
	"github.com/custodia-labs/zoho-inventory-sink/internal/core/domain"
)

// fakeProcessor records the bills it receives and fails on request.
type fakeProcessor struct {
	records []domain.BillRecord
	failIDs map[string]bool
	errs    map[string]error
}

func (p *fakeProcessor) ProcessRecord(_ context.Context, record domain.BillRecord) error {
	p.records = append(p.records, record)
	if err, ok := p.errs[record.ID]; ok {
		return err
	}
	if p.failIDs[record.ID] {
		return errors.New("boom")
	}
	return nil
}

func TestProcessStream(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"SCHEMA","stream":"Bills"}`,
		`{"type":"RECORD","stream":"Bills","record":{"id":"rec-1","billNum":"B-1"}}`,
		``,
		`{"type":"RECORD","stream":"Invoices","record":{"id":"other"}}`,
		`{"type":"STATE"}`,
		`{"type":"RECORD","stream":"Bills","record":{"id":"rec-2"}}`,
	}, "\n")

	proc := &fakeProcessor{}
	state := domain.NewRunState()

	err := processStream(context.Background(), strings.NewReader(input), proc, state)
	require.NoError(t, err)

	require.Len(t, proc.records, 2, "only Bills RECORD messages dispatched")
	assert.Equal(t, "rec-1", proc.records[0].ID)
	assert.Equal(t, "B-1", proc.records[0].BillNumber)
	assert.Equal(t, "rec-2", proc.records[1].ID)

	processed, failed := state.Counts()
	assert.Equal(t, 2, processed)
	assert.Zero(t, failed)
}

func TestProcessStream_FailedRecordDoesNotStopStream(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"RECORD","stream":"Bills","record":{"id":"rec-1"}}`,
		`{"type":"RECORD","stream":"Bills","record":{"id":"rec-2"}}`,
		`{"type":"RECORD","stream":"Bills","record":{"id":"rec-3"}}`,
	}, "\n")

	proc := &fakeProcessor{failIDs: map[string]bool{"rec-2": true}}
	state := domain.NewRunState()

	err := processStream(context.Background(), strings.NewReader(input), proc, state)
	require.NoError(t, err)

	assert.Len(t, proc.records, 3)
	processed, failed := state.Counts()
	assert.Equal(t, 2, processed)
	assert.Equal(t, 1, failed)
}

func TestProcessStream_MalformedMessageAborts(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"RECORD","stream":"Bills","record":{"id":"rec-1"}}`,
		`{this is not json}`,
		`{"type":"RECORD","stream":"Bills","record":{"id":"rec-2"}}`,
	}, "\n")

	proc := &fakeProcessor{}
	state := domain.NewRunState()

	err := processStream(context.Background(), strings.NewReader(input), proc, state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed input message")
	assert.Len(t, proc.records, 1, "stream stops at the malformed line")
}

func TestProcessStream_AuthFailureAbortsRun(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"RECORD","stream":"Bills","record":{"id":"rec-1"}}`,
		`{"type":"RECORD","stream":"Bills","record":{"id":"rec-2"}}`,
		`{"type":"RECORD","stream":"Bills","record":{"id":"rec-3"}}`,
	}, "\n")

	tests := []struct {
		name string
		err  error
	}{
		{
			name: "token refresh failure",
			err:  &zoho.AuthError{Body: `{"error":"invalid_client"}`, Err: errors.New("status 401")},
		},
		{
			name: "rejected data call",
			err:  &zoho.APIError{StatusCode: 401, Method: "GET", Path: "/vendors"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &fakeProcessor{errs: map[string]error{"rec-2": tt.err}}
			state := domain.NewRunState()

			err := processStream(context.Background(), strings.NewReader(input), proc, state)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "authentication failed")
			assert.Len(t, proc.records, 2, "stream stops at the auth failure")

			processed, failed := state.Counts()
			assert.Equal(t, 1, processed)
			assert.Equal(t, 1, failed)
		})
	}
}

func TestProcessStream_EmptyInput(t *testing.T) {
	proc := &fakeProcessor{}
	state := domain.NewRunState()

	err := processStream(context.Background(), strings.NewReader(""), proc, state)
	require.NoError(t, err)
	assert.Empty(t, proc.records)
}
