package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/sarthi-kalathiya/examsync/internal/api"
	"github.com/sarthi-kalathiya/examsync/internal/cache"
	"github.com/sarthi-kalathiya/examsync/internal/model"
	"github.com/sarthi-kalathiya/examsync/internal/validator"
)

// UserFilter narrows admin user list queries. Zero values mean "not set".
type UserFilter struct {
	Page       int
	PageSize   int
	SearchTerm string
	Role       model.Role
	IsActive   *bool
}

func (f UserFilter) values() map[string]any {
	values := map[string]any{
		"searchTerm": f.SearchTerm,
		"role":       string(f.Role),
		"isActive":   f.IsActive,
	}
	if f.Page > 0 {
		values["page"] = f.Page
	}
	if f.PageSize > 0 {
		values["pageSize"] = f.PageSize
	}
	return values
}

func (f UserFilter) query() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(f.PageSize))
	}
	if f.SearchTerm != "" {
		q.Set("searchTerm", f.SearchTerm)
	}
	if f.Role != "" {
		q.Set("role", string(f.Role))
	}
	if f.IsActive != nil {
		q.Set("isActive", strconv.FormatBool(*f.IsActive))
	}
	return q
}

// UserRepository is the cache-aware client for the admin users domain.
type UserRepository struct {
	client *api.Client
	cache  *cache.Store
	valid  *validator.Validator
	log    zerolog.Logger
}

func NewUserRepository(client *api.Client, store *cache.Store, valid *validator.Validator, log zerolog.Logger) *UserRepository {
	return &UserRepository{
		client: client,
		cache:  store,
		valid:  valid,
		log:    log.With().Str("component", "user_repository").Logger(),
	}
}

// GetAll lists users page by page, served from cache when valid.
func (r *UserRepository) GetAll(ctx context.Context, f UserFilter) (model.Page[model.User], error) {
	return readThrough(r.cache, CacheKey.UserList(f), func() (model.Page[model.User], error) {
		var users []model.User
		env, err := r.client.Get(ctx, "/user/admin/users", f.query(), &users)
		if err != nil {
			return model.Page[model.User]{}, fmt.Errorf("list users: %w", err)
		}
		return model.Page[model.User]{Items: users, Pagination: env.Pagination}, nil
	})
}

// GetByID returns one user, served from cache when valid.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return readThrough(r.cache, CacheKey.UserDetail(id), func() (*model.User, error) {
		var user model.User
		if _, err := r.client.Get(ctx, "/user/admin/users/"+id, nil, &user); err != nil {
			return nil, fmt.Errorf("get user %s: %w", id, err)
		}
		return &user, nil
	})
}

// Create adds a user account and invalidates the cached lists.
func (r *UserRepository) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if err := validateReq(r.valid, req); err != nil {
		return nil, err
	}

	var user model.User
	if _, err := r.client.Post(ctx, "/user/admin/users", req, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	r.cache.ClearByPrefix(userListPrefix)
	return &user, nil
}

// Update edits a user and invalidates its detail key plus the lists.
func (r *UserRepository) Update(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	if err := validateReq(r.valid, req); err != nil {
		return nil, err
	}

	var user model.User
	if _, err := r.client.Put(ctx, "/user/admin/users/"+id, req, &user); err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}

	r.invalidate(id)
	return &user, nil
}

// UpdateStatus flips a user's active flag and invalidates their keys.
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, isActive bool) error {
	body := map[string]bool{"isActive": isActive}
	if _, err := r.client.Patch(ctx, "/user/admin/users/"+id+"/status", body, nil); err != nil {
		return fmt.Errorf("update user status %s: %w", id, err)
	}

	r.invalidate(id)
	return nil
}

// UpdateSubjects replaces a teacher's or student's subject assignment and
// invalidates the user's detail key.
func (r *UserRepository) UpdateSubjects(ctx context.Context, id string, subjectIDs []string) error {
	body := map[string][]string{"subjectIds": subjectIDs}
	if _, err := r.client.Patch(ctx, "/user/admin/users/"+id+"/subjects", body, nil); err != nil {
		return fmt.Errorf("update user subjects %s: %w", id, err)
	}

	r.cache.Remove(CacheKey.UserDetail(id))
	return nil
}

// Delete removes a user and invalidates the cached lists.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Delete(ctx, "/user/admin/users/"+id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	r.invalidate(id)
	return nil
}

func (r *UserRepository) invalidate(id string) {
	r.cache.Remove(CacheKey.UserDetail(id))
	r.cache.ClearByPrefix(userListPrefix)
}
