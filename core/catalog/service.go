package catalog

import (
	"context"
	"fmt"
	"reflect"
	"regexp"

	"Playshare/logger"
	"Playshare/model"
	"Playshare/repository"
	"Playshare/storage"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// TagCache caches typeahead lookups. Implemented by cache.TagCache.
type TagCache interface {
	Get(ctx context.Context, term string) ([]model.Tag, int64, bool, error)
	Set(ctx context.Context, version int64, term string, tags []model.Tag) error
	Invalidate(ctx context.Context) error
}

// Service implements playlist, song, tag, search and account operations.
type Service struct {
	repos    *repository.Repositories
	blobs    storage.BlobStore
	tagCache TagCache
	validate *validator.Validate
}

// NewService wires the service. tagCache may be nil.
func NewService(repos *repository.Repositories, blobs storage.BlobStore, tagCache TagCache) *Service {
	return &Service{
		repos:    repos,
		blobs:    blobs,
		tagCache: tagCache,
		validate: newValidator(),
	}
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// check runs struct validation and records the first failure per field.
func (s *Service) check(in interface{}, verr *ValidationError) {
	err := s.validate.Struct(in)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("__all__", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

// removeBlob deletes key and only logs failures.
func (s *Service) removeBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		logger.Warn("Failed to remove blob", logger.String("key", key), logger.ErrorField(err))
	}
}

func (s *Service) invalidateTags(ctx context.Context) {
	if s.tagCache == nil {
		return
	}
	if err := s.tagCache.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate tag cache", logger.ErrorField(err))
	}
}

