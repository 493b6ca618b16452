package repository

import (
	"context"

	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/specification"
	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/pkg/classify"
	"ai-helpdesk-be/pkg/qa"

	"github.com/google/uuid"
)

// GormConversationStore persists conversation turns as chat messages. It is
// the production memory behind the answering pipeline; one Append call is
// one transaction.
type GormConversationStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewGormConversationStore(uowFactory unitofwork.RepositoryFactory) *GormConversationStore {
	return &GormConversationStore{
		uowFactory: uowFactory,
	}
}

func (s *GormConversationStore) GetRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]qa.Turn, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ChatMessageRepository()

	// Newest first so the limit keeps the tail of the conversation. Role
	// breaks created_at ties within a turn pair: reversed, 'user' sorts
	// before 'assistant' again.
	specs := []specification.Specification{
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "role", Desc: false},
	}
	if limit > 0 {
		specs = append(specs, specification.Pagination{Limit: limit})
	}

	messages, err := repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	// Reverse back into chronological order.
	turns := make([]qa.Turn, len(messages))
	for i, m := range messages {
		turns[len(messages)-1-i] = toTurn(m)
	}
	return turns, nil
}

func (s *GormConversationStore) Append(ctx context.Context, sessionID uuid.UUID, turns ...qa.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	messages := make([]*entity.ChatMessage, len(turns))
	for i, t := range turns {
		messages[i] = toChatMessage(sessionID, t)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().CreateBulk(ctx, messages); err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}

func toTurn(m *entity.ChatMessage) qa.Turn {
	sources := make([]qa.Source, 0, len(m.Sources))
	for _, ref := range m.Sources {
		sources = append(sources, qa.Source{
			DocumentID: ref.DocumentId.String(),
			Title:      ref.Title,
		})
	}
	if len(sources) == 0 {
		sources = nil
	}
	return qa.Turn{
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.CreatedAt,
		Category:  classify.Category(m.Category),
		Sources:   sources,
	}
}

func toChatMessage(sessionID uuid.UUID, t qa.Turn) *entity.ChatMessage {
	var refs []entity.SourceRef
	for _, src := range t.Sources {
		id, err := uuid.Parse(src.DocumentID)
		if err != nil {
			continue
		}
		refs = append(refs, entity.SourceRef{
			DocumentId: id,
			Title:      src.Title,
		})
	}
	return &entity.ChatMessage{
		Content:       t.Content,
		Role:          t.Role,
		Category:      string(t.Category),
		Sources:       refs,
		ChatSessionId: sessionID,
		CreatedAt:     t.Timestamp,
	}
}
