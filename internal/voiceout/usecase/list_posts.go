package usecase

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/voiceout/internal/voiceout/domain"
	"github.com/rise-and-shine/voiceout/internal/voiceout/repo"
	"github.com/rise-and-shine/voiceout/pagination"
	"github.com/rise-and-shine/voiceout/ucdef"
)

const headerTotalCount = "X-Total-Count"

type ListPostsInput struct {
	pagination.Params
}

// PostList renders as a bare JSON array. The total is sent as X-Total-Count
// when the client asked for a page.
type PostList struct {
	Posts     []domain.Post
	Total     int
	Paginated bool
}

func (l *PostList) MarshalJSON() ([]byte, error) {
	if l.Posts == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Posts)
}

func (l *PostList) ResponseHeaders() map[string]string {
	if !l.Paginated {
		return nil
	}
	return map[string]string{headerTotalCount: strconv.Itoa(l.Total)}
}

// ListPosts returns posts newest first.
type ListPosts struct {
	posts repo.PostRepo
}

var _ ucdef.UserAction[*ListPostsInput, *PostList] = (*ListPosts)(nil)

func NewListPosts(posts repo.PostRepo) *ListPosts {
	return &ListPosts{posts: posts}
}

func (uc *ListPosts) OperationID() string { return "list-posts" }

func (uc *ListPosts) Execute(ctx context.Context, in *ListPostsInput) (*PostList, error) {
	if !in.IsSet() {
		posts, err := uc.posts.List(ctx, repo.PostFilter{})
		if err != nil {
			return nil, errx.Wrap(err)
		}
		return &PostList{Posts: posts, Total: len(posts)}, nil
	}

	limit, offset := in.ToLimitOffset()
	filter := repo.PostFilter{Limit: limit, Offset: offset}

	posts, err := uc.posts.List(ctx, filter)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	total, err := uc.posts.Count(ctx, filter)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &PostList{Posts: posts, Total: total, Paginated: true}, nil
}
