package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sarthi-kalathiya/examsync/internal/api"
	"github.com/sarthi-kalathiya/examsync/internal/apitest"
	"github.com/sarthi-kalathiya/examsync/internal/cache"
	"github.com/sarthi-kalathiya/examsync/internal/model"
	"github.com/sarthi-kalathiya/examsync/internal/storage"
	"github.com/sarthi-kalathiya/examsync/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenStub struct {
	token string
}

func (t *tokenStub) AccessToken() string { return t.token }

// newTestClient signs the seeded admin in and returns an authenticated client
// plus a fresh cache store.
func newTestClient(t *testing.T, srv *apitest.Server) (*api.Client, *cache.Store) {
	t.Helper()

	tokens := &tokenStub{}
	client := api.NewClient(srv.URL, 5*time.Second, tokens, zerolog.Nop())

	var result model.AuthResult
	_, err := client.Post(context.Background(), "/auth/signin", model.LoginRequest{
		Email:    apitest.AdminEmail,
		Password: apitest.AdminPassword,
	}, &result)
	require.NoError(t, err)
	tokens.token = result.AccessToken

	store := cache.NewStore(storage.NewMemoryStore(), zerolog.Nop())
	return client, store
}

func newSubjectRepo(t *testing.T, srv *apitest.Server) *SubjectRepository {
	t.Helper()
	client, store := newTestClient(t, srv)
	return NewSubjectRepository(client, store, validator.New(), zerolog.Nop())
}

func seedSubject(srv *apitest.Server, id, name string) {
	srv.AddSubject(model.Subject{
		ID: id, Name: name, Code: "SUB-" + id, Credits: 3, IsActive: true,
	})
}

func TestSubjectListServedFromCache(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seedSubject(srv, "s1", "Algebra")
	repo := newSubjectRepo(t, srv)
	ctx := context.Background()

	first, err := repo.GetAll(ctx, SubjectFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := repo.GetAll(ctx, SubjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, srv.Hits("GET /subjects"), "repeat query must be a cache hit")
}

func TestSubjectListDistinctFiltersMissSeparately(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seedSubject(srv, "s1", "Algebra")
	seedSubject(srv, "s2", "Biology")
	repo := newSubjectRepo(t, srv)
	ctx := context.Background()

	all, err := repo.GetAll(ctx, SubjectFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := repo.GetAll(ctx, SubjectFilter{SearchTerm: "alg"})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	assert.Equal(t, 2, srv.Hits("GET /subjects"), "distinct filters map to distinct keys")
}

func TestSubjectDetailServedFromCache(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seedSubject(srv, "s1", "Algebra")
	repo := newSubjectRepo(t, srv)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	sub, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra", sub.Name)
	assert.Equal(t, 1, srv.Hits("GET /subjects/:id"))
}

func TestSubjectMutationInvalidatesAfterSuccess(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seedSubject(srv, "s1", "Algebra")
	repo := newSubjectRepo(t, srv)
	ctx := context.Background()

	_, err := repo.GetAll(ctx, SubjectFilter{})
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, "s1", false))

	sub, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, sub.IsActive, "refetched detail must see the mutation")
	assert.Equal(t, 2, srv.Hits("GET /subjects/:id"))

	_, err = repo.GetAll(ctx, SubjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("GET /subjects"), "lists are invalidated too")
}

func TestSubjectFailedMutationLeavesCacheIntact(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seedSubject(srv, "s1", "Algebra")
	repo := newSubjectRepo(t, srv)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)

	srv.FailNext("PATCH /subjects/:id/status", 1)
	err = repo.UpdateStatus(ctx, "s1", false)
	require.Error(t, err)
	var apiErr *api.Error
	assert.ErrorAs(t, err, &apiErr)

	_, err = repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits("GET /subjects/:id"),
		"a failed mutation must not evict the cached entry")
}

func TestSubjectCreateInvalidatesLists(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newSubjectRepo(t, srv)
	ctx := context.Background()

	empty, err := repo.GetAll(ctx, SubjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	created, err := repo.Create(ctx, model.CreateSubjectRequest{
		Name: "Chemistry", Code: "CHEM101", Credits: 4,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)

	after, err := repo.GetAll(ctx, SubjectFilter{})
	require.NoError(t, err)
	assert.Len(t, after, 1)
	assert.Equal(t, 2, srv.Hits("GET /subjects"))
}

func TestSubjectCreateRejectedLocally(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	repo := newSubjectRepo(t, srv)

	_, err := repo.Create(context.Background(), model.CreateSubjectRequest{
		Name: "X", // too short, and code/credits missing
	})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "name")
	assert.Contains(t, vErr.Fields, "code")
	assert.Equal(t, 0, srv.Hits("POST /subjects"), "invalid payloads never leave the process")
}

func TestSubjectDeleteInvalidates(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seedSubject(srv, "s1", "Algebra")
	repo := newSubjectRepo(t, srv)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "s1"))

	_, err = repo.GetByID(ctx, "s1")
	require.Error(t, err, "the deleted subject must not be served from cache")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
}
