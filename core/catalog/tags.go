package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"Playshare/logger"
	"Playshare/model"
	"Playshare/repository"

	"github.com/pkg/errors"
)

const maxTagNameLength = 50

// TagOption is one typeahead suggestion.
type TagOption struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// ParseTagNames splits a comma-separated list, trimming whitespace and
// dropping empty entries. Duplicates are kept; resolution collapses them.
func ParseTagNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// checkTagNames validates parsed new_tags.
func checkTagNames(names []string, verr *ValidationError) {
	for _, name := range names {
		if utf8.RuneCountInString(name) > maxTagNameLength {
			verr.add("new_tags", fmt.Sprintf("Tag %q is longer than %d characters.", name, maxTagNameLength))
			return
		}
	}
}

// ResolveTags finds or creates a tag per name, ignoring case, and returns
// the distinct tags in first-seen order.
func (s *Service) ResolveTags(ctx context.Context, names []string) ([]model.Tag, error) {
	tags, created, err := resolveTags(ctx, s.repos, names)
	if err != nil {
		return nil, err
	}
	if created {
		s.invalidateTags(ctx)
	}
	return tags, nil
}

func resolveTags(ctx context.Context, repos *repository.Repositories, names []string) ([]model.Tag, bool, error) {
	var (
		tags    []model.Tag
		seen    = make(map[int64]bool)
		created bool
	)
	for _, name := range names {
		tag, isNew, err := repos.Tags.GetOrCreate(ctx, name)
		if err != nil {
			return nil, false, errors.Wrapf(err, "failed to resolve tag %q", name)
		}
		created = created || isNew
		if !seen[tag.ID] {
			seen[tag.ID] = true
			tags = append(tags, *tag)
		}
	}
	return tags, created, nil
}

// selectedTags loads the existing tags picked by id. Unknown ids are a validation error.
func (s *Service) selectedTags(ctx context.Context, ids []int64, verr *ValidationError) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tags, err := s.repos.Tags.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load selected tags")
	}
	found := make(map[int64]bool, len(tags))
	for _, t := range tags {
		found[t.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			verr.add("tags", fmt.Sprintf("Select a valid choice. %d is not one of the available choices.", id))
			break
		}
	}
	return tags, nil
}

// SearchTags returns every tag whose name contains term, ordered by name.
// An empty term returns all tags.
func (s *Service) SearchTags(ctx context.Context, term string) ([]TagOption, error) {
	term = strings.TrimSpace(term)

	tags, version, hit := s.cachedTags(ctx, term)
	if !hit {
		var err error
		tags, err = s.repos.Tags.Search(ctx, term)
		if err != nil {
			return nil, errors.Wrap(err, "failed to search tags")
		}
		if s.tagCache != nil && version >= 0 {
			if err := s.tagCache.Set(ctx, version, term, tags); err != nil {
				logger.Warn("Failed to cache tag search", logger.String("term", term), logger.ErrorField(err))
			}
		}
	}

	options := make([]TagOption, 0, len(tags))
	for _, t := range tags {
		options = append(options, TagOption{ID: t.ID, Text: t.Name})
	}
	return options, nil
}

// cachedTags looks term up in the cache. version is -1 when the cache is
// unusable, so the loaded result is not written back.
func (s *Service) cachedTags(ctx context.Context, term string) ([]model.Tag, int64, bool) {
	if s.tagCache == nil {
		return nil, -1, false
	}
	tags, version, ok, err := s.tagCache.Get(ctx, term)
	if err != nil {
		logger.Warn("Tag cache unavailable", logger.ErrorField(err))
		return nil, -1, false
	}
	return tags, version, ok
}
