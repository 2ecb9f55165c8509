package localstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/billfold/internal/model"
)

func TestReader_SeesWritesFromOtherConnections(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t, "inv-1")

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	dvBefore, err := r.DataVersion(ctx)
	require.NoError(t, err)
	revBefore, err := r.Revision(ctx)
	require.NoError(t, err)

	_, err = s.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0001"}, "")
	require.NoError(t, err)

	dvAfter, err := r.DataVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, dvBefore, dvAfter, "data_version must change after a foreign write")

	revAfter, err := r.Revision(ctx)
	require.NoError(t, err)
	assert.Equal(t, revBefore+1, revAfter)

	invoices, err := r.Invoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "inv-1", invoices[0].ID)
}

func TestReader_MissingDatabase(t *testing.T) {
	_, err := OpenReader("/nonexistent/dir/billfold.db")
	assert.Error(t, err)
}

func TestReader_MalformedBlobReturnsError(t *testing.T) {
	ctx := context.Background()
	_, path := openTestStore(t)

	writeRawBlob(t, path, keyInvoices, "{broken")

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Invoices(ctx)
	assert.Error(t, err, "reader surfaces parse errors for the watcher to log and skip")
}

func TestReader_MalformedRevisionReturnsError(t *testing.T) {
	ctx := context.Background()
	_, path := openTestStore(t)

	// Write the revision row directly; writeRawBlob would re-bump it
	// back to a clean integer.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE blobs SET value = '12abc' WHERE key = ?`, keyRevision)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Revision(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse revision", "trailing garbage must not parse as a number")
}
