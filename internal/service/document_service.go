package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-helpdesk-be/internal/constant"
	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/entity"
	"ai-helpdesk-be/internal/repository/specification"
	"ai-helpdesk-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context) ([]*dto.ListDocumentsResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

// documentService manages knowledge base articles. The knowledge base is
// shared: every agent can browse it, while update and delete stay with the
// uploader. Ingestion itself runs async off the publish queue.
type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

func (ds *documentService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document := entity.Document{
		Id:         uuid.New(),
		Title:      req.Title,
		Content:    req.Content,
		Language:   req.Language,
		Status:     constant.DocumentStatusPending,
		UploadedBy: userId,
		CreatedAt:  time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	if err := ds.publishIngest(ctx, document.Id); err != nil {
		return nil, err
	}

	return &dto.CreateDocumentResponse{
		Id:     document.Id,
		Status: document.Status,
	}, nil
}

func (ds *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil
	}

	chunkCount, err := uow.DocumentChunkRepository().Count(ctx,
		specification.ByDocumentID{DocumentID: document.Id},
	)
	if err != nil {
		return nil, err
	}

	return &dto.ShowDocumentResponse{
		Id:         document.Id,
		Title:      document.Title,
		Content:    document.Content,
		Language:   document.Language,
		Status:     document.Status,
		ChunkCount: chunkCount,
		UploadedBy: document.UploadedBy,
		CreatedAt:  document.CreatedAt,
		UpdatedAt:  document.UpdatedAt,
	}, nil
}

func (ds *documentService) List(ctx context.Context) ([]*dto.ListDocumentsResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.ListDocumentsResponse, 0, len(documents))
	for _, d := range documents {
		response = append(response, &dto.ListDocumentsResponse{
			Id:        d.Id,
			Title:     d.Title,
			Language:  d.Language,
			Status:    d.Status,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}

	return response, nil
}

func (ds *documentService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.ByUploadedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil
	}

	now := time.Now()
	document.Title = req.Title
	document.Content = req.Content
	document.Language = req.Language
	// Content changed, so the stored chunks are stale until re-ingestion.
	document.Status = constant.DocumentStatusPending
	document.UpdatedAt = &now

	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return nil, err
	}

	if err := ds.publishIngest(ctx, document.Id); err != nil {
		return nil, err
	}

	return &dto.UpdateDocumentResponse{
		Id:     document.Id,
		Status: document.Status,
	}, nil
}

func (ds *documentService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUploadedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if document == nil {
		return nil
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}

func (ds *documentService) publishIngest(ctx context.Context, documentId uuid.UUID) error {
	payload := dto.PublishIngestDocumentMessage{
		DocumentId: documentId,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return ds.publisherService.Publish(ctx, payloadJson)
}
