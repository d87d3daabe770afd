package service

import (
	"context"
	"strings"

	"github.com/eqzhou81/CPEN-321-sub000/internal/apperr"
	"github.com/eqzhou81/CPEN-321-sub000/internal/realtime"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DiscussionStore interface {
	Create(ctx context.Context, d *model.Discussion) (*model.Discussion, error)
	List(ctx context.Context, limit, offset int, search string) ([]model.Discussion, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Discussion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Discussion, error)
	AddMessage(ctx context.Context, m *model.Message) (*model.Message, error)
}

// Publisher fans events out to connected clients.
type Publisher interface {
	Publish(event, room string, data any)
}

type DiscussionService struct {
	store  DiscussionStore
	events Publisher
	logger *zap.Logger
}

func NewDiscussionService(store DiscussionStore, events Publisher, logger *zap.Logger) *DiscussionService {
	return &DiscussionService{store: store, events: events, logger: logger}
}

func (s *DiscussionService) Create(ctx context.Context, author *model.User, req *model.CreateDiscussionReq) (*model.Discussion, error) {
	d, err := s.store.Create(ctx, &model.Discussion{
		UserID:      author.UserID,
		UserName:    author.Name,
		Topic:       strings.TrimSpace(req.Topic),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		return nil, apperr.Persistence("Failed to create discussion", err)
	}

	s.events.Publish(realtime.EventNewDiscussion, "", d)
	return d, nil
}

func (s *DiscussionService) List(ctx context.Context, q *model.ListDiscussionsQuery) ([]model.Discussion, int, error) {
	items, total, err := s.store.List(ctx, q.PageSize, (q.Page-1)*q.PageSize, strings.TrimSpace(q.Search))
	if err != nil {
		return nil, 0, apperr.Persistence("Failed to load discussions", err)
	}
	return items, total, nil
}

func (s *DiscussionService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Discussion, error) {
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("Failed to load discussions", err)
	}
	return items, nil
}

func (s *DiscussionService) Get(ctx context.Context, id uuid.UUID) (*model.Discussion, error) {
	d, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Discussion", "load discussion")
	}
	return d, nil
}

// PostMessage adds a message to the thread and notifies the thread's room.
func (s *DiscussionService) PostMessage(ctx context.Context, author *model.User, discussionID uuid.UUID, req *model.PostMessageReq) (*model.Message, error) {
	m, err := s.store.AddMessage(ctx, &model.Message{
		DiscussionID: discussionID,
		UserID:       author.UserID,
		UserName:     author.Name,
		Content:      strings.TrimSpace(req.Content),
	})
	if err != nil {
		return nil, storeErr(err, "Discussion", "post message")
	}

	s.events.Publish(realtime.EventMessageReceived, realtime.DiscussionRoom(discussionID.String()), m)
	return m, nil
}
