package usecase

import (
	"context"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/voiceout/filestore"
	"github.com/rise-and-shine/voiceout/internal/voiceout/domain"
	"github.com/rise-and-shine/voiceout/internal/voiceout/repo"
	"github.com/rise-and-shine/voiceout/observability/logger"
	"github.com/rise-and-shine/voiceout/ucdef"
)

type DeletePostInput struct {
	ID string `params:"id" validate:"required"`
}

// DeletePost removes a post and, best-effort, its media.
type DeletePost struct {
	posts repo.PostRepo
	media filestore.FileStore
	log   logger.Logger
}

var _ ucdef.UserAction[*DeletePostInput, *domain.Post] = (*DeletePost)(nil)

func NewDeletePost(posts repo.PostRepo, media filestore.FileStore) *DeletePost {
	return &DeletePost{
		posts: posts,
		media: media,
		log:   logger.Named("usecase.delete_post"),
	}
}

func (uc *DeletePost) OperationID() string { return "delete-post" }

// Execute returns the deleted post. A media cleanup failure is logged and
// does not fail the request, the post is already gone at that point.
func (uc *DeletePost) Execute(ctx context.Context, in *DeletePostInput) (*domain.Post, error) {
	post, err := uc.posts.Get(ctx, repo.PostFilter{ID: in.ID})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	if err = uc.posts.Delete(ctx, post); err != nil {
		return nil, errx.Wrap(err)
	}

	if post.Media != nil && uc.media != nil {
		err = uc.media.Delete(ctx, *post.Media)
		if err != nil && !filestore.IsNotFound(err) {
			uc.log.WithContext(ctx).
				With("post_id", post.ID).
				With("media", *post.Media).
				Warnx(err)
		}
	}

	return post, nil
}
