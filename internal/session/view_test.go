package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-versions/internal/history"
	"github.com/jonathan/resume-versions/internal/store"
	"github.com/jonathan/resume-versions/internal/types"
)

type fixture struct {
	store   *store.MemoryStore
	manager *history.Manager
	view    *View
	v1, v2  *types.CompanyVersion
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore(nil)
	m := history.NewManager(s, nil)

	v1, err := m.CreateCompany(ctx, types.CreateCompanyRequest{
		CompanyName: "Acme",
		JobTitle:    "Engineer",
		ResumeData:  types.ResumeData{Summary: "Backend engineer"},
	})
	require.NoError(t, err)
	v2, err := m.AddVersion(ctx, v1.CompanyID, types.AddVersionRequest{
		JobTitle:   "Senior Engineer",
		ResumeData: types.ResumeData{Summary: "Senior backend engineer"},
	})
	require.NoError(t, err)

	return &fixture{store: s, manager: m, view: NewView(m), v1: v1, v2: v2}
}

func TestLoad_ShowsDurableCurrent(t *testing.T) {
	f := newFixture(t)

	shown, err := f.view.Load(context.Background(), f.v1.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, f.v2.ID, shown.ID)

	state := f.view.Snapshot()
	assert.True(t, state.Active)
	assert.Equal(t, "Acme", state.CompanyName)
	assert.Equal(t, 2, state.Version)
	assert.True(t, state.IsCurrent)
}

func TestLoad_UnknownCompany(t *testing.T) {
	f := newFixture(t)

	_, err := f.view.Load(context.Background(), "missing")
	var nfErr *types.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "company", nfErr.Resource)
	assert.False(t, f.view.Snapshot().Active)
}

func TestOpen_DoesNotChangeDurableState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.view.Load(ctx, f.v1.CompanyID)
	require.NoError(t, err)
	before, _ := f.store.Raw(f.v1.CompanyID)

	shown, err := f.view.Open(f.v1.ID)
	require.NoError(t, err)
	assert.Equal(t, f.v1.ID, shown.ID)
	assert.Equal(t, "Engineer", shown.JobTitle)

	state := f.view.Snapshot()
	assert.Equal(t, f.v1.ID, state.VersionID)
	assert.Equal(t, f.v2.ID, state.CurrentVersionID)
	assert.False(t, state.IsCurrent)

	after, _ := f.store.Raw(f.v1.CompanyID)
	assert.Equal(t, before, after)
}

func TestOpen_Failures(t *testing.T) {
	f := newFixture(t)

	_, err := f.view.Open(f.v1.ID)
	assert.ErrorIs(t, err, ErrNoActiveCompany)

	_, err = f.view.Load(context.Background(), f.v1.CompanyID)
	require.NoError(t, err)
	_, err = f.view.Open("missing")
	var nfErr *types.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, f.v2.ID, f.view.Snapshot().VersionID)
}

func TestSwitch_RealignsViewAndStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.view.Load(ctx, f.v1.CompanyID)
	require.NoError(t, err)

	shown, err := f.view.Switch(ctx, f.v1.ID)
	require.NoError(t, err)
	assert.Equal(t, f.v1.ID, shown.ID)

	h, err := f.manager.GetHistory(ctx, f.v1.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, f.v1.ID, h.CurrentVersionID)

	state := f.view.Snapshot()
	assert.True(t, state.IsCurrent)
	assert.Equal(t, f.v1.ID, state.CurrentVersionID)
}

func TestSwitch_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.view.Switch(ctx, f.v1.ID)
	assert.ErrorIs(t, err, ErrNoActiveCompany)

	_, err = f.view.Load(ctx, f.v1.CompanyID)
	require.NoError(t, err)
	_, err = f.view.Switch(ctx, "missing")
	var nfErr *types.NotFoundError
	require.ErrorAs(t, err, &nfErr)

	h, err := f.manager.GetHistory(ctx, f.v1.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, f.v2.ID, h.CurrentVersionID)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.view.Load(ctx, f.v1.CompanyID)
	require.NoError(t, err)
	_, err = f.view.Open(f.v1.ID)
	require.NoError(t, err)

	v3, err := f.manager.AddVersion(ctx, f.v1.CompanyID, types.AddVersionRequest{ResumeData: types.ResumeData{Summary: "Staff engineer"}})
	require.NoError(t, err)

	shown, err := f.view.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.v1.ID, shown.ID)
	assert.Equal(t, v3.ID, f.view.Snapshot().CurrentVersionID)
	assert.Len(t, f.view.History().Versions, 3)

	_, err = f.manager.DeleteCompany(ctx, f.v1.CompanyID)
	require.NoError(t, err)
	_, err = f.view.Refresh(ctx)
	var nfErr *types.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.False(t, f.view.Snapshot().Active)
}

func TestClear_LeavesStorageAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.view.Load(ctx, f.v1.CompanyID)
	require.NoError(t, err)
	before, _ := f.store.Raw(f.v1.CompanyID)

	f.view.Clear()
	assert.Equal(t, State{}, f.view.Snapshot())
	assert.Nil(t, f.view.Viewing())
	assert.Nil(t, f.view.History())

	after, ok := f.store.Raw(f.v1.CompanyID)
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestViewing_ReturnsCopy(t *testing.T) {
	f := newFixture(t)
	_, err := f.view.Load(context.Background(), f.v1.CompanyID)
	require.NoError(t, err)

	shown := f.view.Viewing()
	shown.JobTitle = "mutated"
	assert.Equal(t, "Senior Engineer", f.view.Viewing().JobTitle)
}

type brokenSource struct{}

func (brokenSource) GetHistory(context.Context, string) (*types.CompanyVersionHistory, error) {
	return nil, errors.New("disk on fire")
}

func (brokenSource) SwitchVersion(context.Context, string, string) (bool, error) {
	return false, errors.New("disk on fire")
}

func TestLoad_SourceError(t *testing.T) {
	v := NewView(brokenSource{})
	_, err := v.Load(context.Background(), "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load company")

	var nfErr *types.NotFoundError
	assert.False(t, errors.As(err, &nfErr))
}
