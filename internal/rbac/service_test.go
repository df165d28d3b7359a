package rbac

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/platform/httpx"
	"github.com/khandaa/adminbase/internal/shared"
)

type memRepo struct {
	roles     map[int64]Role
	perms     map[int64]Permission
	rolePerms map[int64]map[int64]struct{}
	userRoles map[int64]map[int64]struct{}
	nextRole  int64
	nextPerm  int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		roles:     make(map[int64]Role),
		perms:     make(map[int64]Permission),
		rolePerms: make(map[int64]map[int64]struct{}),
		userRoles: make(map[int64]map[int64]struct{}),
		nextRole:  1,
		nextPerm:  1,
	}
}

func (m *memRepo) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role %d", httpx.ErrNotFound, id)
	}
	return r, nil
}

func (m *memRepo) CreateRole(ctx context.Context, name, description string) (Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			return Role{}, fmt.Errorf("%w: role %s", httpx.ErrDuplicate, name)
		}
	}
	r := Role{ID: m.nextRole, Name: name, Description: description}
	m.nextRole++
	m.roles[r.ID] = r
	return r, nil
}

func (m *memRepo) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role %d", httpx.ErrNotFound, id)
	}
	r.Name = name
	r.Description = description
	m.roles[id] = r
	return r, nil
}

func (m *memRepo) DeleteRole(ctx context.Context, id int64) (int64, error) {
	if _, ok := m.roles[id]; !ok {
		return 0, nil
	}
	delete(m.roles, id)
	delete(m.rolePerms, id)
	return 1, nil
}

func (m *memRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(m.perms))
	for _, p := range m.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	for id, p := range m.perms {
		if p.Name == name {
			p.Description = description
			m.perms[id] = p
			return p, nil
		}
	}
	p := Permission{ID: m.nextPerm, Name: name, Description: description}
	m.nextPerm++
	m.perms[p.ID] = p
	return p, nil
}

func (m *memRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	var out []Permission
	for id := range m.rolePerms[roleID] {
		out = append(out, m.perms[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	if m.rolePerms[roleID] == nil {
		m.rolePerms[roleID] = make(map[int64]struct{})
	}
	m.rolePerms[roleID][permissionID] = struct{}{}
	return nil
}

func (m *memRepo) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	delete(m.rolePerms[roleID], permissionID)
	return nil
}

func (m *memRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	if m.userRoles[userID] == nil {
		m.userRoles[userID] = make(map[int64]struct{})
	}
	m.userRoles[userID][roleID] = struct{}{}
	return nil
}

func (m *memRepo) RemoveRole(ctx context.Context, userID, roleID int64) error {
	delete(m.userRoles[userID], roleID)
	return nil
}

func (m *memRepo) RolesForUser(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	for id := range m.userRoles[userID] {
		names = append(names, m.roles[id].Name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memRepo) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	seen := make(map[string]struct{})
	for roleID := range m.userRoles[userID] {
		for permID := range m.rolePerms[roleID] {
			seen[m.perms[permID].Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type recorderSpy struct {
	entries []activity.Entry
}

func (r *recorderSpy) Record(ctx context.Context, e activity.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func TestCreateRoleTrimsAndRecords(t *testing.T) {
	spy := &recorderSpy{}
	svc := NewService(newMemRepo(), spy, nil)

	role, err := svc.CreateRole(context.Background(), 9, "  manager  ", " runs things ")
	require.NoError(t, err)
	assert.Equal(t, "manager", role.Name)
	assert.Equal(t, "runs things", role.Description)

	require.Len(t, spy.entries, 1)
	assert.Equal(t, "role.created", spy.entries[0].Action)
	assert.Equal(t, int64(9), spy.entries[0].ActorID)
}

func TestCreateRoleEmptyName(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	_, err := svc.CreateRole(context.Background(), 1, "   ", "")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRoleDuplicate(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	_, err := svc.CreateRole(context.Background(), 1, "manager", "")
	require.NoError(t, err)
	_, err = svc.CreateRole(context.Background(), 1, "manager", "")
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestDeleteRoleMissing(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	err := svc.DeleteRole(context.Background(), 1, 404)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestSetRolePermissionsDiffs(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, 1, "auditor", "")
	require.NoError(t, err)

	view, err := svc.EnsurePermission(ctx, "users.view", "")
	require.NoError(t, err)
	edit, err := svc.EnsurePermission(ctx, "users.edit", "")
	require.NoError(t, err)
	logs, err := svc.EnsurePermission(ctx, "activity.view", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetRolePermissions(ctx, 1, role.ID, []int64{view.ID, edit.ID}))

	perms, err := svc.RolePermissions(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 2)

	// replace edit with logs; view must survive untouched
	require.NoError(t, svc.SetRolePermissions(ctx, 1, role.ID, []int64{view.ID, logs.ID}))

	perms, err = svc.RolePermissions(ctx, role.ID)
	require.NoError(t, err)
	names := []string{perms[0].Name, perms[1].Name}
	assert.Equal(t, []string{"activity.view", "users.view"}, names)
}

func TestSetRolePermissionsUnknownRole(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	err := svc.SetRolePermissions(context.Background(), 1, 99, []int64{1})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestEffectivePermissionsDeduplicated(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	manager, err := svc.CreateRole(ctx, 1, "manager", "")
	require.NoError(t, err)
	auditor, err := svc.CreateRole(ctx, 1, "auditor", "")
	require.NoError(t, err)

	view, err := svc.EnsurePermission(ctx, "users.view", "")
	require.NoError(t, err)
	edit, err := svc.EnsurePermission(ctx, "users.edit", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetRolePermissions(ctx, 1, manager.ID, []int64{view.ID, edit.ID}))
	require.NoError(t, svc.SetRolePermissions(ctx, 1, auditor.ID, []int64{view.ID}))

	require.NoError(t, svc.AssignRole(ctx, 1, 7, manager.ID))
	require.NoError(t, svc.AssignRole(ctx, 1, 7, auditor.ID))

	perms, err := svc.EffectivePermissions(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"users.edit", "users.view"}, perms)

	roles, err := svc.RolesForUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"auditor", "manager"}, roles)
}

func TestEnsureCorePermissionsSeedsCatalogue(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureCorePermissions(ctx))

	perms, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, shared.CoreScopes(), names)

	// Re-running does not duplicate rows.
	require.NoError(t, svc.EnsureCorePermissions(ctx))
	again, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(perms))
}

func TestAssignRoleUnknownRole(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil)
	err := svc.AssignRole(context.Background(), 1, 7, 99)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRemoveRoleRevokesGrants(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, 1, "manager", "")
	require.NoError(t, err)
	require.NoError(t, svc.AssignRole(ctx, 1, 7, role.ID))
	require.NoError(t, svc.RemoveRole(ctx, 1, 7, role.ID))

	roles, err := svc.RolesForUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, roles)
}
