package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-helpdesk-be/internal/constant"
	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/specification"
	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.DocumentChunkRepository())
	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Document Chunk Repository", func(t *testing.T) {
		// Count implies the table and the vector column exist
		count, err := uow.DocumentChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentChunk count: %d", count)
	})

	t.Run("Check Transactional Session Messages", func(t *testing.T) {
		// A session must exist before messages reference it
		userId := uuid.New()
		sessionId := uuid.New()
		session := &entity.ChatSession{
			Id:     sessionId,
			UserId: userId,
			Title:  constant.ChatSessionDefaultTitle,
		}

		err := uow.ChatSessionRepository().Create(context.Background(), session)
		assert.NoError(t, err)

		// Transaction Test
		ctx := context.Background()
		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		messages := []*entity.ChatMessage{
			{
				Id:            uuid.New(),
				ChatSessionId: sessionId,
				Role:          constant.ChatMessageRoleUser,
				Content:       "How do I reset my password?",
				Category:      "RETRIEVAL",
			},
			{
				Id:            uuid.New(),
				ChatSessionId: sessionId,
				Role:          constant.ChatMessageRoleAssistant,
				Content:       "Open Settings, choose Security, then Reset password.",
				Category:      "RETRIEVAL",
				Sources: []entity.SourceRef{
					{DocumentId: uuid.New(), Title: "Password reset guide"},
				},
			},
		}

		err = uow.ChatMessageRepository().CreateBulk(ctx, messages)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		count, err := uow.ChatMessageRepository().Count(
			context.Background(),
			specification.ByChatSessionID{ChatSessionID: sessionId},
		)
		assert.NoError(t, err)
		assert.EqualValues(t, 2, count)

		t.Log("Successfully created Messages in a Session Transaction")

		// Cleanup so reruns stay tidy
		err = uow.ChatMessageRepository().DeleteByChatSessionId(context.Background(), sessionId)
		assert.NoError(t, err)
		err = uow.ChatSessionRepository().Delete(context.Background(), sessionId)
		assert.NoError(t, err)
	})
}
