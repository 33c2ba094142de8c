package document_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"tabi/internal/repositories"
	"tabi/internal/services"
	"tabi/pkg/llm"
)

var Module = fx.Provide(
	provideDocumentRepo,
	provideDocumentService,
)

func provideDocumentRepo(db *gorm.DB) repositories.DocumentRepository {
	return repositories.NewDocumentRepository(db)
}

func provideDocumentService(repo repositories.DocumentRepository, embedder llm.Embedder, jobs services.JobSubmitter) services.DocumentServiceInterface {
	return services.NewDocumentService(repo, embedder, jobs)
}
