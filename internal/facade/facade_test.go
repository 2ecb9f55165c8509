package facade

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/billfold/internal/localstore"
	"github.com/roach88/billfold/internal/model"
	"github.com/roach88/billfold/internal/syncstatus"
	"github.com/roach88/billfold/internal/testutil"
)

type fixture struct {
	facade  *Facade
	local   *localstore.Store
	backend *testutil.FakeBackend
	auth    *testutil.FakeAuth
	status  *syncstatus.Tracker
}

func newFixture(t *testing.T, authed bool) *fixture {
	t.Helper()
	local, err := localstore.Open(filepath.Join(t.TempDir(), "billfold.db"),
		localstore.WithIDs(testutil.NewFixedIDs("inv-1", "inv-2", "inv-3")))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	backend := &testutil.FakeBackend{}
	auth := testutil.NewFakeAuth(authed)
	status := syncstatus.New(nil)
	return &fixture{
		facade:  New(local, backend, auth, status),
		local:   local,
		backend: backend,
		auth:    auth,
		status:  status,
	}
}

func TestSaveInvoice_RoutesLocallyWhenUnauthenticated(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, false)

	saved, err := fx.facade.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0001"}, "")
	require.NoError(t, err)

	assert.Zero(t, fx.backend.CallCount(), "no remote call may happen unauthenticated")

	got, ok, err := fx.local.GetInvoice(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok, "record must land in the local store")
	assert.Equal(t, "INV-0001", got.Number)
}

func TestSaveInvoice_RoutesRemotelyWhenAuthenticated(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true)
	fx.auth.SetTeam("team-9")

	saved, err := fx.facade.SaveInvoice(ctx, model.InvoiceForm{
		Number:  "INV-0001",
		ToName:  "ACME",
		ToEmail: "billing@acme.test",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "backend-1", saved.ID, "backend assigns the identifier")

	assert.Equal(t, []string{"CreateInvoice"}, fx.backend.Calls)
	require.Len(t, fx.backend.Created, 1)
	assert.Equal(t, "ACME", fx.backend.Created[0].Client.Name,
		"remote save splits the client snapshot out of the form")

	list, err := fx.local.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "local store must stay untouched on the remote path")
}

func TestSaveInvoice_ExistingIDUpdatesRemotely(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true)

	_, err := fx.facade.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0002"}, "r-7")
	require.NoError(t, err)
	assert.Equal(t, []string{"UpdateInvoice"}, fx.backend.Calls)
}

func TestRouting_ReevaluatedPerCall(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, false)

	_, err := fx.facade.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0001"}, "")
	require.NoError(t, err)
	assert.Zero(t, fx.backend.CallCount())

	// Mid-session sign-in: the very next call must go remote.
	fx.auth.SetAuthenticated(true)
	_, err = fx.facade.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0002"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, fx.backend.CallCount())

	// And sign-out redirects straight back.
	fx.auth.SetAuthenticated(false)
	_, err = fx.facade.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0003"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, fx.backend.CallCount())
}

func TestDryRun_ForcesLocalRouting(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true)
	fx.auth.SetDryRun(true)

	_, err := fx.facade.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0001"}, "")
	require.NoError(t, err)
	assert.Zero(t, fx.backend.CallCount(), "dry-run context must not touch the backend")
}

func TestBusySignal_WrapsEveryOperation(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, false)

	var seen []syncstatus.State
	fx.status.Subscribe(func(s syncstatus.Status) { seen = append(seen, s.State) })

	_, err := fx.facade.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0001"}, "")
	require.NoError(t, err)

	assert.Equal(t, []syncstatus.State{syncstatus.Syncing, syncstatus.Synced}, seen)
}

func TestErrors_PropagateAfterBusyReleased(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true)
	boom := errors.New("backend rejected")
	fx.backend.Err = boom

	_, err := fx.facade.SaveInvoice(ctx, model.InvoiceForm{Number: "INV-0001"}, "")
	assert.ErrorIs(t, err, boom, "backend errors propagate unmodified")

	// CompleteSync ran despite the failure (finally semantics).
	assert.Equal(t, syncstatus.Synced, fx.status.Snapshot().State)
}

func TestGetInvoice_RemoteUsesCachedList(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true)
	fx.backend.List = []model.Invoice{{ID: "r-1", Number: "INV-0001"}}

	// Nothing fetched yet: lookup misses without issuing a fetch.
	_, ok, err := fx.facade.GetInvoice(ctx, "r-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, fx.backend.CallCount(), "remote lookup must not fetch per id")

	require.NoError(t, fx.facade.Refresh(ctx))

	got, ok, err := fx.facade.GetInvoice(ctx, "r-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "INV-0001", got.Number)

	// The cache is only as fresh as the last refresh.
	fx.backend.List = nil
	got, ok, err = fx.facade.GetInvoice(ctx, "r-1")
	require.NoError(t, err)
	assert.True(t, ok, "stale cache still answers until the next refresh")
	assert.Equal(t, "INV-0001", got.Number)
}

func TestInvoices_FetchesOnceThenCaches(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true)
	fx.backend.List = []model.Invoice{{ID: "r-1"}}

	_, err := fx.facade.Invoices(ctx)
	require.NoError(t, err)
	_, err = fx.facade.Invoices(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"ListInvoices"}, fx.backend.Calls)
}

func TestNextInvoiceNumber_Routing(t *testing.T) {
	ctx := context.Background()

	fx := newFixture(t, false)
	got, err := fx.facade.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", got)
	assert.Zero(t, fx.backend.CallCount())

	fx = newFixture(t, true)
	fx.backend.Next = "INV-0042"
	got, err = fx.facade.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0042", got)
	assert.Equal(t, []string{"NextInvoiceNumber"}, fx.backend.Calls)
}

func TestDeleteInvoice_Routing(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true)

	require.NoError(t, fx.facade.DeleteInvoice(ctx, "r-1"))
	assert.Equal(t, []string{"r-1"}, fx.backend.Deleted)
}

func TestLoading_Contract(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true)

	assert.True(t, fx.facade.Loading(), "remote path loads until the first list fetch")
	require.NoError(t, fx.facade.Refresh(ctx))
	assert.False(t, fx.facade.Loading())

	fx.auth.SetAuthenticated(false)
	assert.False(t, fx.facade.Loading(), "local store hydrated at Open")
}
