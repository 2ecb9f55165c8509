package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/billfold/internal/conflict"
	"github.com/roach88/billfold/internal/localstore"
	"github.com/roach88/billfold/internal/model"
	"github.com/roach88/billfold/internal/syncstatus"
	"github.com/roach88/billfold/internal/watch"
)

func TestSyncStatusLocalMode(t *testing.T) {
	out, err := runBillfold(t, testDB(t), "sync", "status")
	require.NoError(t, err)

	assert.Contains(t, out, "Mode:     local")
	assert.Contains(t, out, "State:    synced")
	assert.Contains(t, out, "Database:")
}

func TestSyncStatusJSON(t *testing.T) {
	db := testDB(t)

	out, err := runBillfold(t, db, "--format", "json", "sync", "status")
	require.NoError(t, err)

	data := decodeResponse(t, out)
	assert.Equal(t, "local", data["mode"])
	assert.Equal(t, "synced", data["state"])
	assert.Equal(t, true, data["online"])
	assert.Equal(t, db, data["database"])
}

func TestSyncWatchFlags(t *testing.T) {
	cmd := NewRootCommand()
	watchCmd, _, err := cmd.Find([]string{"sync", "watch"})
	require.NoError(t, err)

	intervalFlag := watchCmd.Flags().Lookup("interval")
	require.NotNil(t, intervalFlag)
	assert.Equal(t, "500ms", intervalFlag.DefValue)
}

type recordingDeleter struct {
	ids []string
}

func (r *recordingDeleter) DeleteInvoice(ctx context.Context, id string) error {
	r.ids = append(r.ids, id)
	return nil
}

// Drives the interactive prompt against a real pending conflict. The
// local record has no cloud counterpart, the common case for the
// default detector, and must still be described in full.
func TestResolvePendingPrintsLocalRecord(t *testing.T) {
	ctx := context.Background()

	local, err := localstore.Open(filepath.Join(t.TempDir(), "billfold.db"))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	inv, err := local.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0042"}, "")
	require.NoError(t, err)

	tracker := syncstatus.New(time.Now)
	deleter := &recordingDeleter{}
	det := conflict.New(local, deleter, tracker)
	det.HandleEvent(ctx, watch.Event{
		Origin:    watch.OriginStorage,
		InvoiceID: inv.ID,
		At:        time.Now(),
	})
	pending, ok := det.Pending()
	require.True(t, ok)

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("local\n"))
	cmd.SetContext(ctx)

	resolvePending(cmd, det, pending)

	out := buf.String()
	assert.Contains(t, out, "Conflict detected:")
	assert.Contains(t, out, "local: INV-0042 "+inv.ID)
	assert.Contains(t, out, "Resolved: kept local.")

	_, stillPending := det.Pending()
	assert.False(t, stillPending)
	assert.Empty(t, deleter.ids, "keeping local with no cloud copy deletes nothing")
}

func TestResolvePendingSkipLeavesUnresolved(t *testing.T) {
	ctx := context.Background()

	local, err := localstore.Open(filepath.Join(t.TempDir(), "billfold.db"))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	inv, err := local.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0001"}, "")
	require.NoError(t, err)

	det := conflict.New(local, &recordingDeleter{}, syncstatus.New(time.Now))
	det.HandleEvent(ctx, watch.Event{Origin: watch.OriginStorage, InvoiceID: inv.ID, At: time.Now()})
	pending, ok := det.Pending()
	require.True(t, ok)

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("skip\n"))
	cmd.SetContext(ctx)

	resolvePending(cmd, det, pending)

	assert.Contains(t, buf.String(), "Left unresolved.")
	_, stillPending := det.Pending()
	assert.False(t, stillPending, "skip cancels the pending conflict")
}

func TestReadResolution(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   conflict.Resolution
		wantOK bool
	}{
		{name: "local", input: "local\n", want: conflict.KeepLocal, wantOK: true},
		{name: "cloud", input: "cloud\n", want: conflict.KeepCloud, wantOK: true},
		{name: "merge", input: "merge\n", want: conflict.Merge, wantOK: true},
		{name: "case and spacing forgiven", input: "  Cloud \n", want: conflict.KeepCloud, wantOK: true},
		{name: "skip", input: "skip\n", wantOK: false},
		{name: "blank line skips", input: "\n", wantOK: false},
		{name: "garbage then answer", input: "what\nlocal\n", want: conflict.KeepLocal, wantOK: true},
		{name: "eof", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := readResolution(strings.NewReader(tt.input))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
