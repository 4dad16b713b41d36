package rbac

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/platform/cache"
)

type stubRepo struct {
	catalog      []access.Permission
	grants       map[int64]Grant
	rolePrivs    map[int64][]int64
	roleUsers    map[int64][]int64
	catalogCalls int

	beforeGrant   func(ctx context.Context) error
	afterRoleRead func()
}

func (s *stubRepo) Catalog(ctx context.Context) ([]access.Permission, error) {
	s.catalogCalls++
	return s.catalog, nil
}

func (s *stubRepo) RolePrivilegeIDs(ctx context.Context, roleID int64) ([]int64, error) {
	ids := s.rolePrivs[roleID]
	if s.afterRoleRead != nil {
		s.afterRoleRead()
	}
	return ids, nil
}

func (s *stubRepo) UserGrant(ctx context.Context, userID int64) (Grant, error) {
	if s.beforeGrant != nil {
		if err := s.beforeGrant(ctx); err != nil {
			return Grant{}, err
		}
	}
	g, ok := s.grants[userID]
	if !ok {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (s *stubRepo) RoleUserIDs(ctx context.Context, roleID int64) ([]int64, error) {
	return s.roleUsers[roleID], nil
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		catalog: []access.Permission{
			{ID: 14, Name: "Roles", Code: "ROLES", Module: "Role Management", Privileges: []access.Privilege{
				{ID: 30, Name: "Ver", Code: "ROLE_VIEW"},
				{ID: 31, Name: "Crear", Code: "ROLE_CREATE"},
			}},
			{ID: 5, Name: "Gestión de Clientes", Code: "CLIENTS", Module: "Client Management", Privileges: []access.Privilege{
				{ID: 10, Name: "Ver", Code: "CLIENT_READ"},
			}},
		},
		grants: map[int64]Grant{
			1: {UserID: 1, UserActive: true, RoleID: 1, RoleActive: true},
			2: {UserID: 2, UserActive: true, RoleID: 2, RoleActive: false},
			3: {UserID: 3, UserActive: false, RoleID: 1, RoleActive: true},
		},
		rolePrivs: map[int64][]int64{1: {30, 10, 404}, 2: {31}},
		roleUsers: map[int64][]int64{1: {1, 3}},
	}
}

func newTestService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, cache.NewJSON(client, "access:", time.Minute), nil), mr
}

func TestEffectiveResolvesAndCaches(t *testing.T) {
	repo := newStubRepo()
	svc, mr := newTestService(t, repo)
	ctx := context.Background()

	gate, err := svc.Gate(ctx, 1)
	require.NoError(t, err)
	assert.True(t, gate.HasCode("ROLE_VIEW"))
	assert.True(t, gate.HasPrivilege("Gestión de Clientes", "ver"))
	assert.False(t, gate.HasCode("ROLE_CREATE"))
	assert.True(t, mr.Exists("access:user:1"))

	_, err = svc.Gate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.catalogCalls)
}

func TestEffectiveInactiveGrantsHoldNothing(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo())

	for _, userID := range []int64{2, 3} {
		modules, err := svc.Effective(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, modules)
		gate := access.GateFromModules(modules)
		assert.Empty(t, gate.Codes())
	}
}

func TestEffectiveUnknownUser(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo())
	_, err := svc.Effective(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInvalidateRoleDropsHolders(t *testing.T) {
	svc, mr := newTestService(t, newStubRepo())
	ctx := context.Background()
	_, err := svc.Effective(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Effective(ctx, 2)
	require.NoError(t, err)

	n, err := svc.InvalidateRole(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, mr.Exists("access:user:1"))
	assert.True(t, mr.Exists("access:user:2"))

	n, err = svc.FlushAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInvalidationDuringLoadDoesNotLeaveStaleEntry(t *testing.T) {
	repo := newStubRepo()
	read := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	repo.afterRoleRead = func() {
		once.Do(func() {
			close(read)
			<-release
		})
	}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Effective(ctx, 1)
		done <- err
	}()
	<-read

	repo.rolePrivs[1] = []int64{10}
	_, err := svc.InvalidateRole(ctx, 1)
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	gate, err := svc.Gate(ctx, 1)
	require.NoError(t, err)
	assert.False(t, gate.HasCode("ROLE_VIEW"))
	assert.True(t, gate.HasCode("CLIENT_READ"))
}

func TestBumpRoleRetiresCachedEntries(t *testing.T) {
	repo := newStubRepo()
	svc, mr := newTestService(t, repo)
	ctx := context.Background()

	gate, err := svc.Gate(ctx, 1)
	require.NoError(t, err)
	require.True(t, gate.HasCode("ROLE_VIEW"))

	repo.rolePrivs[1] = []int64{10}
	require.NoError(t, svc.BumpRole(ctx, 1))
	assert.True(t, mr.Exists("access:user:1"))

	gate, err = svc.Gate(ctx, 1)
	require.NoError(t, err)
	assert.False(t, gate.HasCode("ROLE_VIEW"))
	assert.Equal(t, 2, repo.catalogCalls)

	_, err = svc.Gate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.catalogCalls)
}

func TestSharedLoadSurvivesCallerCancellation(t *testing.T) {
	repo := newStubRepo()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	repo.beforeGrant = func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-release
		return ctx.Err()
	}
	svc, _ := newTestService(t, repo)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Effective(first, 1)
		firstErr <- err
	}()
	<-started

	type result struct {
		modules []access.WireModule
		err     error
	}
	second := make(chan result, 1)
	go func() {
		modules, err := svc.Effective(context.Background(), 1)
		second <- result{modules: modules, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	close(release)

	res := <-second
	require.NoError(t, res.err)
	assert.True(t, access.GateFromModules(res.modules).HasCode("ROLE_VIEW"))
}

func TestRoleSelectionDropsStaleGrants(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo())

	sel, err := svc.RoleSelection(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 10}, sel.SelectedPrivilegeIDs())
	assert.Equal(t, []int64{404}, sel.Dropped())
}

func TestServiceWithoutCache(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)

	gate, err := svc.Gate(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, gate.HasCode("client_read"))
	_, err = svc.Gate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.catalogCalls)
}

func TestModulesFromRows(t *testing.T) {
	id := func(v int64) *int64 { return &v }
	str := func(v string) *string { return &v }
	rows := []catalogRow{
		{PermissionID: id(5), PermissionName: str("Clientes"), PermissionCode: str("CLIENTS"), Module: "Client Management", PrivilegeID: id(10), PrivilegeName: str("Ver"), PrivilegeCode: str("CLIENT_READ")},
		{PermissionID: id(5), PermissionName: str("Clientes"), PermissionCode: str("CLIENTS"), Module: "Client Management", PrivilegeID: id(11), PrivilegeName: str("Crear"), PrivilegeCode: str("CLIENT_CREATE")},
		{PermissionID: id(7), PermissionName: str("Vacío"), PermissionCode: str("EMPTY"), Module: "Client Management"},
		{Module: "Dashboard", PrivilegeID: id(40), PrivilegeName: str("Ver"), PrivilegeCode: str("DASHBOARD_VIEW")},
	}

	perms := access.NormalizeModules(modulesFromRows(rows))
	require.Len(t, perms, 3)
	assert.Equal(t, int64(5), perms[0].ID)
	assert.Len(t, perms[0].Privileges, 2)
	assert.Equal(t, int64(7), perms[1].ID)
	assert.Empty(t, perms[1].Privileges)
	assert.True(t, perms[2].Placeholder)
	assert.Equal(t, "Dashboard", perms[2].Module)
	assert.Equal(t, int64(40), perms[2].Privileges[0].ID)
}
