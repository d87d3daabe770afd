package service

import (
	"context"
	"testing"

	"github.com/eqzhou81/CPEN-321-sub000/internal/apperr"
	"github.com/eqzhou81/CPEN-321-sub000/internal/realtime"
	"github.com/eqzhou81/CPEN-321-sub000/internal/repository"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memDiscussions struct {
	items map[uuid.UUID]*model.Discussion
	err   error
}

func (m *memDiscussions) Create(ctx context.Context, d *model.Discussion) (*model.Discussion, error) {
	if m.err != nil {
		return nil, m.err
	}
	cp := *d
	cp.DiscussionID = uuid.New()
	m.items[cp.DiscussionID] = &cp
	out := cp
	return &out, nil
}

func (m *memDiscussions) List(ctx context.Context, limit, offset int, search string) ([]model.Discussion, int, error) {
	out := []model.Discussion{}
	for _, d := range m.items {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *memDiscussions) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Discussion, error) {
	out := []model.Discussion{}
	for _, d := range m.items {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDiscussions) GetByID(ctx context.Context, id uuid.UUID) (*model.Discussion, error) {
	d, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDiscussions) AddMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	d, ok := m.items[msg.DiscussionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *msg
	cp.MessageID = uuid.New()
	d.Messages = append(d.Messages, cp)
	d.MessageCount++
	return &cp, nil
}

func TestDiscussionService(t *testing.T) {
	ctx := context.Background()
	author := &model.User{UserID: uuid.New(), Name: "Ada"}

	t.Run("create announces the thread to everyone", func(t *testing.T) {
		store := &memDiscussions{items: map[uuid.UUID]*model.Discussion{}}
		events := &recordingPublisher{}
		svc := NewDiscussionService(store, events, zap.NewNop())

		d, err := svc.Create(ctx, author, &model.CreateDiscussionReq{Topic: "  System design  ", Description: " tips "})
		require.NoError(t, err)
		assert.Equal(t, "System design", d.Topic)
		assert.Equal(t, "tips", d.Description)
		assert.Equal(t, "Ada", d.UserName)

		require.Len(t, events.events, 1)
		assert.Equal(t, realtime.EventNewDiscussion, events.events[0].event)
		assert.Equal(t, "", events.events[0].room)
		assert.Equal(t, d, events.events[0].data)

		mine, err := svc.ListMine(ctx, author.UserID)
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	})

	t.Run("message goes to the thread room", func(t *testing.T) {
		store := &memDiscussions{items: map[uuid.UUID]*model.Discussion{}}
		events := &recordingPublisher{}
		svc := NewDiscussionService(store, events, zap.NewNop())
		d, err := svc.Create(ctx, author, &model.CreateDiscussionReq{Topic: "Offers"})
		require.NoError(t, err)

		m, err := svc.PostMessage(ctx, author, d.DiscussionID, &model.PostMessageReq{Content: " Negotiate! "})
		require.NoError(t, err)
		assert.Equal(t, "Negotiate!", m.Content)

		require.Len(t, events.events, 2)
		last := events.events[1]
		assert.Equal(t, realtime.EventMessageReceived, last.event)
		assert.Equal(t, realtime.DiscussionRoom(d.DiscussionID.String()), last.room)

		got, err := svc.Get(ctx, d.DiscussionID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.MessageCount)
	})

	t.Run("failures publish nothing", func(t *testing.T) {
		events := &recordingPublisher{}
		svc := NewDiscussionService(&memDiscussions{items: map[uuid.UUID]*model.Discussion{}, err: errBoom}, events, zap.NewNop())

		_, err := svc.Create(ctx, author, &model.CreateDiscussionReq{Topic: "x"})
		requireKind(t, err, apperr.KindPersistence, "Failed to create discussion")

		_, err = svc.PostMessage(ctx, author, uuid.New(), &model.PostMessageReq{Content: "hi"})
		requireKind(t, err, apperr.KindNotFound, "Discussion not found")

		_, err = svc.Get(ctx, uuid.New())
		requireKind(t, err, apperr.KindNotFound, "Discussion not found")
		assert.Empty(t, events.events)
	})
}
