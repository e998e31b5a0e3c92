package usecase

import (
	"context"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/voiceout/internal/voiceout/domain"
	"github.com/rise-and-shine/voiceout/internal/voiceout/repo"
	"github.com/rise-and-shine/voiceout/observability/logger"
	"github.com/rise-and-shine/voiceout/ucdef"
	"github.com/rise-and-shine/voiceout/upload"
)

// CreatePostInput is decoded from a multipart form or a JSON body.
// The optional file is handled by the upload interceptor.
type CreatePostInput struct {
	VoiceOut string `json:"voice_out" form:"voice_out" validate:"required"`
}

// CreatePost persists a post and broadcasts it once committed.
type CreatePost struct {
	posts     repo.PostRepo
	publisher Publisher
	deps      deps
	log       logger.Logger
}

var _ ucdef.UserAction[*CreatePostInput, *domain.Post] = (*CreatePost)(nil)

func NewCreatePost(posts repo.PostRepo, publisher Publisher, opts ...Option) *CreatePost {
	return &CreatePost{
		posts:     posts,
		publisher: publisher,
		deps:      buildDeps(opts),
		log:       logger.Named("usecase.create_post"),
	}
}

func (uc *CreatePost) OperationID() string { return "create-post" }

func (uc *CreatePost) Execute(ctx context.Context, in *CreatePostInput) (*domain.Post, error) {
	post := &domain.Post{
		ID:       uc.deps.newID(),
		VoiceOut: in.VoiceOut,
		Date:     uc.deps.now(),
	}

	if media := upload.FromContext(ctx); media != nil {
		post.Media = lo.ToPtr(media.Ref)
		post.MediaType = string(media.Kind)
	}

	post, err := uc.posts.Create(ctx, post)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	// delivery is best-effort and must not fail a committed post
	if err = uc.publisher.PublishPostCreated(ctx, post); err != nil {
		uc.log.WithContext(ctx).With("post_id", post.ID).Warnx(err)
	}

	return post, nil
}
