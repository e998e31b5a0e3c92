package usecase

import (
	"context"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/voiceout/internal/voiceout/domain"
	"github.com/rise-and-shine/voiceout/internal/voiceout/repo"
	"github.com/rise-and-shine/voiceout/ucdef"
)

// CreateFeedbackInput carries a user message. Email is stored as given.
type CreateFeedbackInput struct {
	Email    string  `json:"email"    form:"email"    validate:"required" mask:"true"`
	Feedback string  `json:"feedback" form:"feedback" validate:"required"`
	Subject  *string `json:"subject"  form:"subject"`
}

type CreateFeedback struct {
	feedbacks repo.FeedbackRepo
	deps      deps
}

var _ ucdef.UserAction[*CreateFeedbackInput, *domain.Feedback] = (*CreateFeedback)(nil)

func NewCreateFeedback(feedbacks repo.FeedbackRepo, opts ...Option) *CreateFeedback {
	return &CreateFeedback{feedbacks: feedbacks, deps: buildDeps(opts)}
}

func (uc *CreateFeedback) OperationID() string { return "create-feedback" }

func (uc *CreateFeedback) Execute(ctx context.Context, in *CreateFeedbackInput) (*domain.Feedback, error) {
	fb, err := uc.feedbacks.Create(ctx, &domain.Feedback{
		ID:       uc.deps.newID(),
		Email:    in.Email,
		Feedback: in.Feedback,
		Subject:  in.Subject,
		Date:     uc.deps.now(),
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return fb, nil
}
