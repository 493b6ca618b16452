package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ai-helpdesk-be/internal/constant"
	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/specification"
	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/pkg/embedding"
	"ai-helpdesk-be/pkg/events"
	pktNats "ai-helpdesk-be/pkg/nats"
	"ai-helpdesk-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IIngestionService interface {
	Consume(ctx context.Context) error
	RequeuePending(ctx context.Context) error
}

// ingestionService is the background worker behind document uploads: it
// splits the document, embeds every chunk and swaps the stored chunk set
// in one transaction, then flips the document status.
type ingestionService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
}

func NewIngestionService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
) IIngestionService {
	return &ingestionService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
	}
}

func (is *ingestionService) Consume(ctx context.Context) error {
	messages, err := is.pubSub.Subscribe(ctx, is.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			is.processMessage(ctx, msg)
		}
	}()

	return nil
}

// RequeuePending re-enqueues documents stuck in PENDING. The ingest queue
// is in-process, so anything accepted but not processed before a restart
// would otherwise wait forever.
func (is *ingestionService) RequeuePending(ctx context.Context) error {
	uow := is.uowFactory.NewUnitOfWork(ctx)
	pending, err := uow.DocumentRepository().FindAll(ctx, specification.ByStatus{Status: constant.DocumentStatusPending})
	if err != nil {
		return err
	}

	for _, document := range pending {
		payload, err := json.Marshal(dto.PublishIngestDocumentMessage{DocumentId: document.Id})
		if err != nil {
			return err
		}
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		if err := is.pubSub.Publish(is.topicName, msg); err != nil {
			return err
		}
	}

	if len(pending) > 0 {
		log.Printf("[INFO] Requeued %d pending documents for ingestion", len(pending))
	}
	return nil
}

func (is *ingestionService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Ingesting document %s", payload.DocumentId)

	uow := is.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if document == nil {
		log.Printf("[WARN] Document not found: %s", payload.DocumentId)
		msg.Ack() // Deleted before ingestion ran? Ack.
		return
	}

	// Title is prepended once so chunks from the document head carry it.
	content := fmt.Sprintf("%s\n\n%s", document.Title, document.Content)

	chunks := utils.SplitText(content, constant.IngestChunkSize, constant.IngestChunkOverlap)
	log.Printf("[INFO] Document %s split into %d chunks", document.Id, len(chunks))

	newChunks := make([]*entity.DocumentChunk, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := is.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			// Embedding failures are terminal for this attempt: mark the
			// document FAILED instead of retrying a broken provider in a loop.
			log.Printf("[ERROR] Failed to embed chunk %d of document %s: %v", i, document.Id, err)
			is.markFailed(ctx, document, fmt.Sprintf("embed chunk %d: %v", i, err))
			msg.Ack()
			return
		}

		newChunks = append(newChunks, &entity.DocumentChunk{
			Id:         uuid.New(),
			Content:    chunk,
			Embedding:  res.Embedding.Values,
			DocumentId: document.Id,
			ChunkIndex: i,
			CreatedAt:  time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Replace the old chunk set so re-ingestion never leaves stale chunks.
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old chunks for document %s: %v", document.Id, err)
		msg.Nack()
		return
	}
	if len(newChunks) > 0 {
		if err := uow.DocumentChunkRepository().CreateBulk(ctx, newChunks); err != nil {
			log.Printf("[ERROR] Failed to create chunks for document %s: %v", document.Id, err)
			msg.Nack()
			return
		}
	}
	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, constant.DocumentStatusReady); err != nil {
		log.Printf("[ERROR] Failed to update status for document %s: %v", document.Id, err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit ingestion for document %s: %v", document.Id, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Document %s ingested: %d chunks", document.Id, len(newChunks))

	is.publishEvent(ctx, events.New(events.TypeDocumentIngested, map[string]interface{}{
		"document_id": document.Id,
		"title":       document.Title,
		"user_id":     document.UploadedBy,
		"chunks":      len(newChunks),
	}))

	msg.Ack()
}

// markFailed records the terminal failure on the document and tells the
// uploader. Runs outside the chunk transaction; the old chunks stay as
// they were.
func (is *ingestionService) markFailed(ctx context.Context, document *entity.Document, reason string) {
	uow := is.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, constant.DocumentStatusFailed); err != nil {
		log.Printf("[ERROR] Failed to mark document %s as failed: %v", document.Id, err)
	}

	is.publishEvent(ctx, events.New(events.TypeDocumentFailed, map[string]interface{}{
		"document_id": document.Id,
		"title":       document.Title,
		"user_id":     document.UploadedBy,
		"reason":      reason,
	}))
}

// publishEvent is best effort: ingestion outcome is already persisted, a
// lost notification does not fail the job.
func (is *ingestionService) publishEvent(ctx context.Context, evt events.BaseEvent) {
	if is.eventPublisher == nil {
		return
	}
	if err := is.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", evt.Type, err)
	}
}
