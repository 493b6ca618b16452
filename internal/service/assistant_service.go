package service

import (
	"context"
	"fmt"
	"strings"

	"ai-helpdesk-be/internal/constant"
	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/internal/repository/specification"
	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/pkg/qa"

	"github.com/google/uuid"
)

// IAssistantService defines the helpdesk assistant service interface
type IAssistantService interface {
	Query(ctx context.Context, userId uuid.UUID, request *dto.QueryRequest) (*dto.QueryResponse, error)
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error
}

type assistantService struct {
	uowFactory unitofwork.RepositoryFactory
	pipeline   *qa.Pipeline
	log        logger.ILogger
}

func NewAssistantService(
	uowFactory unitofwork.RepositoryFactory,
	pipeline *qa.Pipeline,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		uowFactory: uowFactory,
		pipeline:   pipeline,
		log:        log,
	}
}

// Query answers one user question inside an owned session. The pipeline
// persists both conversation turns; this layer handles ownership, the
// first-exchange retitle and the response shape.
func (as *assistantService) Query(ctx context.Context, userId uuid.UUID, request *dto.QueryRequest) (*dto.QueryResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	result, err := as.pipeline.Answer(ctx, chatSession.Id, request.Query)
	if err != nil {
		return nil, err
	}

	// First exchange names the session after the query. The answer is
	// already persisted, so a failed retitle only logs.
	if chatSession.Title == constant.ChatSessionDefaultTitle {
		chatSession.Title = sessionTitle(request.Query)
		if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
			as.log.Warn("AssistantService", "Failed to retitle session", map[string]interface{}{
				"session_id": chatSession.Id.String(),
				"error":      err.Error(),
			})
		}
	}

	sent, reply, err := as.loadLastExchange(ctx, uow, chatSession.Id)
	if err != nil {
		return nil, err
	}

	return &dto.QueryResponse{
		ChatSessionId:    chatSession.Id,
		ChatSessionTitle: chatSession.Title,
		Category:         string(result.Category),
		Sent:             sent,
		Reply:            reply,
	}, nil
}

// CreateSession creates a new empty chat session
func (as *assistantService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	chatSession := entity.ChatSession{
		Id:     uuid.New(),
		UserId: userId,
		Title:  constant.ChatSessionDefaultTitle,
	}

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id}, nil
}

// GetAllSessions retrieves all chat sessions owned by the user
func (as *assistantService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

// GetChatHistory retrieves the full message history for an owned session
func (as *assistantService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.OrderBy{Field: "role", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Category:  msg.Category,
			Sources:   toSourceDTOs(msg.Sources),
			CreatedAt: msg.CreatedAt,
		})
	}

	return resp, nil
}

// DeleteSession removes an owned chat session with its messages
func (as *assistantService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	uow := as.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found or access denied")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, request.ChatSessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, request.ChatSessionId); err != nil {
		return err
	}

	return uow.Commit()
}

// loadLastExchange reads back the turn pair the pipeline just appended so
// the response carries persisted ids and timestamps.
func (as *assistantService) loadLastExchange(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) (*dto.QueryResponseChat, *dto.QueryResponseChat, error) {
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "role", Desc: false},
		specification.Pagination{Limit: 2},
	)
	if err != nil {
		return nil, nil, err
	}

	var sent, reply *dto.QueryResponseChat
	for _, msg := range messages {
		chat := &dto.QueryResponseChat{
			Id:        msg.Id,
			Content:   msg.Content,
			Role:      msg.Role,
			CreatedAt: msg.CreatedAt,
			Sources:   toSourceDTOs(msg.Sources),
		}
		switch msg.Role {
		case constant.ChatMessageRoleUser:
			sent = chat
		case constant.ChatMessageRoleAssistant:
			reply = chat
		}
	}
	if sent == nil || reply == nil {
		return nil, nil, fmt.Errorf("conversation turns missing after append")
	}
	return sent, reply, nil
}

func toSourceDTOs(refs []entity.SourceRef) []dto.SourceDTO {
	if len(refs) == 0 {
		return nil
	}
	sources := make([]dto.SourceDTO, len(refs))
	for i, ref := range refs {
		sources[i] = dto.SourceDTO{
			DocumentId: ref.DocumentId,
			Title:      ref.Title,
		}
	}
	return sources
}

// sessionTitle derives a session title from the first query: whitespace
// collapsed, cut at the title length limit on rune boundaries.
func sessionTitle(query string) string {
	title := strings.Join(strings.Fields(query), " ")
	if title == "" {
		return constant.ChatSessionDefaultTitle
	}
	runes := []rune(title)
	if len(runes) > constant.ChatSessionTitleMaxLen {
		title = string(runes[:constant.ChatSessionTitleMaxLen])
	}
	return title
}
