package repository

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sarthi-kalathiya/examsync/internal/api"
	"github.com/sarthi-kalathiya/examsync/internal/apitest"
	"github.com/sarthi-kalathiya/examsync/internal/model"
	"github.com/sarthi-kalathiya/examsync/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserRepo(t *testing.T, srv *apitest.Server) *UserRepository {
	t.Helper()
	client, store := newTestClient(t, srv)
	return NewUserRepository(client, store, validator.New(), zerolog.Nop())
}

func TestUserListCachesItemsAndPagination(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newUserRepo(t, srv)
	ctx := context.Background()

	first, err := repo.GetAll(ctx, UserFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	require.NotNil(t, first.Pagination)
	assert.Equal(t, 1, first.Pagination.Total)

	second, err := repo.GetAll(ctx, UserFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, srv.Hits("GET /user/admin/users"))
}

func TestUserListFilterVariantsAreSeparateKeys(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newUserRepo(t, srv)
	ctx := context.Background()

	_, err := repo.GetAll(ctx, UserFilter{Page: 1})
	require.NoError(t, err)
	_, err = repo.GetAll(ctx, UserFilter{Page: 2})
	require.NoError(t, err)

	active := true
	_, err = repo.GetAll(ctx, UserFilter{Page: 1, IsActive: &active})
	require.NoError(t, err)

	assert.Equal(t, 3, srv.Hits("GET /user/admin/users"))
}

func TestUserCreateInvalidatesLists(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newUserRepo(t, srv)
	ctx := context.Background()

	before, err := repo.GetAll(ctx, UserFilter{})
	require.NoError(t, err)
	require.Len(t, before.Items, 1)

	created, err := repo.Create(ctx, model.CreateUserRequest{
		FirstName:     "Tara",
		LastName:      "Iyer",
		Email:         "tara@example.com",
		Password:      "password123",
		Role:          model.RoleTeacher,
		ContactNumber: "+1999999",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.RoleTeacher, created.Role)

	after, err := repo.GetAll(ctx, UserFilter{})
	require.NoError(t, err)
	assert.Len(t, after.Items, 2)
	assert.Equal(t, 2, srv.Hits("GET /user/admin/users"))
}

func TestUserUpdateInvalidates(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newUserRepo(t, srv)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "admin-1")
	require.NoError(t, err)

	updated, err := repo.Update(ctx, "admin-1", model.UpdateUserRequest{FirstName: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FirstName)

	user, err := repo.GetByID(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", user.FirstName)
	assert.Equal(t, 2, srv.Hits("GET /user/admin/users/:id"))
}

func TestUserDeleteInvalidates(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newUserRepo(t, srv)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.CreateUserRequest{
		FirstName:     "Tara",
		LastName:      "Iyer",
		Email:         "tara@example.com",
		Password:      "password123",
		Role:          model.RoleStudent,
		ContactNumber: "+1999999",
	})
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.GetByID(ctx, created.ID)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr, "the deleted user must not be served from cache")
	assert.Equal(t, 404, apiErr.StatusCode)
}

func TestUserUpdateSubjectsInvalidatesDetailOnly(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newUserRepo(t, srv)
	ctx := context.Background()

	_, err := repo.GetAll(ctx, UserFilter{})
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, "admin-1")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSubjects(ctx, "admin-1", []string{"s1", "s2"}))

	_, err = repo.GetByID(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("GET /user/admin/users/:id"),
		"the detail key is invalidated")

	_, err = repo.GetAll(ctx, UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits("GET /user/admin/users"),
		"the lists are left untouched")
}

func TestUserStatusChangeInvalidates(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newUserRepo(t, srv)
	ctx := context.Background()

	user, err := repo.GetByID(ctx, "admin-1")
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	user, err = repo.GetByID(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits("GET /user/admin/users/:id"))

	require.NoError(t, repo.UpdateStatus(ctx, "admin-1", false))

	user, err = repo.GetByID(ctx, "admin-1")
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Equal(t, 2, srv.Hits("GET /user/admin/users/:id"))
}
