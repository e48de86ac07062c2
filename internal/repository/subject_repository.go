package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/sarthi-kalathiya/examsync/internal/api"
	"github.com/sarthi-kalathiya/examsync/internal/cache"
	"github.com/sarthi-kalathiya/examsync/internal/model"
	"github.com/sarthi-kalathiya/examsync/internal/validator"
)

// SubjectFilter narrows subject list queries.
type SubjectFilter struct {
	Status     string // "active", "inactive", or empty for all
	SearchTerm string
}

func (f SubjectFilter) values() map[string]any {
	return map[string]any{
		"status":     f.Status,
		"searchTerm": f.SearchTerm,
	}
}

func (f SubjectFilter) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.SearchTerm != "" {
		q.Set("searchTerm", f.SearchTerm)
	}
	return q
}

// SubjectRepository is the cache-aware client for the subjects domain.
type SubjectRepository struct {
	client *api.Client
	cache  *cache.Store
	valid  *validator.Validator
	log    zerolog.Logger
}

func NewSubjectRepository(client *api.Client, store *cache.Store, valid *validator.Validator, log zerolog.Logger) *SubjectRepository {
	return &SubjectRepository{
		client: client,
		cache:  store,
		valid:  valid,
		log:    log.With().Str("component", "subject_repository").Logger(),
	}
}

// GetAll lists subjects matching the filter, served from cache when valid.
func (r *SubjectRepository) GetAll(ctx context.Context, f SubjectFilter) ([]model.Subject, error) {
	return readThrough(r.cache, CacheKey.SubjectList(f), func() ([]model.Subject, error) {
		var subjects []model.Subject
		if _, err := r.client.Get(ctx, "/subjects", f.query(), &subjects); err != nil {
			return nil, fmt.Errorf("list subjects: %w", err)
		}
		return subjects, nil
	})
}

// GetByID returns one subject, served from cache when valid.
func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	return readThrough(r.cache, CacheKey.SubjectDetail(id), func() (*model.Subject, error) {
		var subject model.Subject
		if _, err := r.client.Get(ctx, "/subjects/"+id, nil, &subject); err != nil {
			return nil, fmt.Errorf("get subject %s: %w", id, err)
		}
		return &subject, nil
	})
}

// Create adds a subject and invalidates the cached lists.
func (r *SubjectRepository) Create(ctx context.Context, req model.CreateSubjectRequest) (*model.Subject, error) {
	if err := validateReq(r.valid, req); err != nil {
		return nil, err
	}

	var subject model.Subject
	if _, err := r.client.Post(ctx, "/subjects", req, &subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}

	r.cache.ClearByPrefix(subjectListPrefix)
	return &subject, nil
}

// Update edits a subject and invalidates its detail key plus the lists.
func (r *SubjectRepository) Update(ctx context.Context, id string, req model.UpdateSubjectRequest) (*model.Subject, error) {
	if err := validateReq(r.valid, req); err != nil {
		return nil, err
	}

	var subject model.Subject
	if _, err := r.client.Put(ctx, "/subjects/"+id, req, &subject); err != nil {
		return nil, fmt.Errorf("update subject %s: %w", id, err)
	}

	r.invalidate(id)
	return &subject, nil
}

// UpdateStatus flips the subject's active flag and invalidates its keys.
func (r *SubjectRepository) UpdateStatus(ctx context.Context, id string, isActive bool) error {
	body := map[string]bool{"isActive": isActive}
	if _, err := r.client.Patch(ctx, "/subjects/"+id+"/status", body, nil); err != nil {
		return fmt.Errorf("update subject status %s: %w", id, err)
	}

	r.invalidate(id)
	return nil
}

// Delete removes a subject and invalidates its keys.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Delete(ctx, "/subjects/"+id); err != nil {
		return fmt.Errorf("delete subject %s: %w", id, err)
	}

	r.invalidate(id)
	return nil
}

func (r *SubjectRepository) invalidate(id string) {
	r.cache.Remove(CacheKey.SubjectDetail(id))
	r.cache.ClearByPrefix(subjectListPrefix)
}
