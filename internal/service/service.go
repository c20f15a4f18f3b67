package service

import (
	"context"

	"github.com/rs/zerolog"

	"example.com/notes-api/internal/notes"
	"example.com/notes-api/internal/stringsx"
)

// Repository is the persistence dependency. notes.Repository and
// notes.MemoryRepository implement it; unit tests stub it.
type Repository interface {
	CreateNote(ctx context.Context, title, content string, tags []string) (notes.Note, error)
	GetNote(ctx context.Context, id int64) (notes.Note, error)
	UpdateNote(ctx context.Context, id int64, title, content string, tags []string) (notes.Note, error)
	DeleteNote(ctx context.Context, id int64) error
	SearchNotes(ctx context.Context, f notes.Filter, req notes.PageRequest) (notes.Page, error)
	ListTags(ctx context.Context) ([]notes.Tag, error)
	GetOrCreateTag(ctx context.Context, name string) (notes.Tag, bool, error)
}

// Service validates and normalizes input before it reaches the repository.
// It is independent from transport and database.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func New(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) CreateNote(ctx context.Context, in notes.NoteInput) (notes.Note, error) {
	in, err := in.Normalize()
	if err != nil {
		return notes.Note{}, err
	}

	n, err := s.repo.CreateNote(ctx, in.Title, in.Content, in.Tags)
	if err != nil {
		return notes.Note{}, err
	}
	s.logger(ctx).Info().
		Int64("note_id", n.ID).
		Str("title", stringsx.Clip(n.Title, 50)).
		Strs("tags", n.Tags).
		Msg("note created")
	return n, nil
}

func (s *Service) GetNote(ctx context.Context, id int64) (notes.Note, error) {
	return s.repo.GetNote(ctx, id)
}

// UpdateNote replaces the note wholesale: title, content and the full tag set.
func (s *Service) UpdateNote(ctx context.Context, id int64, in notes.NoteInput) (notes.Note, error) {
	in, err := in.Normalize()
	if err != nil {
		return notes.Note{}, err
	}

	n, err := s.repo.UpdateNote(ctx, id, in.Title, in.Content, in.Tags)
	if err != nil {
		return notes.Note{}, err
	}
	s.logger(ctx).Info().Int64("note_id", n.ID).Strs("tags", n.Tags).Msg("note updated")
	return n, nil
}

func (s *Service) DeleteNote(ctx context.Context, id int64) error {
	if err := s.repo.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.logger(ctx).Info().Int64("note_id", id).Msg("note deleted")
	return nil
}

// ListNotes filters, orders and pages the note collection.
func (s *Service) ListNotes(ctx context.Context, f notes.Filter, req notes.PageRequest) (notes.Page, error) {
	if err := req.Validate(); err != nil {
		return notes.Page{}, err
	}
	f = f.Normalize()

	s.logger(ctx).Debug().
		Str("body_text", f.BodyText).
		Str("title_text", f.TitleText).
		Strs("tags", f.Tags).
		Int("page", req.Page).
		Int("page_size", req.PageSize).
		Msg("listing notes")
	return s.repo.SearchNotes(ctx, f, req)
}

func (s *Service) ListTags(ctx context.Context) ([]notes.Tag, error) {
	return s.repo.ListTags(ctx)
}

// CreateTag returns the tag with the normalized name, creating it when it
// does not exist yet. created is false when an existing tag was returned.
func (s *Service) CreateTag(ctx context.Context, in notes.TagInput) (tag notes.Tag, created bool, err error) {
	in, err = in.Normalize()
	if err != nil {
		return notes.Tag{}, false, err
	}

	tag, created, err = s.repo.GetOrCreateTag(ctx, in.Name)
	if err != nil {
		return notes.Tag{}, false, err
	}
	if created {
		s.logger(ctx).Debug().Int64("tag_id", tag.ID).Str("name", tag.Name).Msg("tag created")
	}
	return tag, created, nil
}

// logger prefers the request-scoped logger carried by ctx.
func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}
