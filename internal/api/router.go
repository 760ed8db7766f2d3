package api

import (
	"github.com/gin-gonic/gin"
	"github.com/haruki/vecdex/internal/api/handler"
	"github.com/haruki/vecdex/internal/api/middleware"
	"github.com/haruki/vecdex/internal/logger"
	"github.com/haruki/vecdex/internal/service"
	"gorm.io/gorm"
)

// RouterDeps bundles everything the router wires together.
type RouterDeps struct {
	DB          *gorm.DB
	Collections *service.CollectionService
	Ingest      *service.IngestService
	Search      *service.SearchService
	Log         *logger.Logger
	Mode        string
	CORS        middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps RouterDeps) *gin.Engine {
	switch deps.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(deps.Log))
	r.Use(middleware.CORS(deps.CORS))

	healthHandler := handler.NewHealthHandler(deps.DB)
	collectionHandler := handler.NewCollectionHandler(deps.Collections)
	documentHandler := handler.NewDocumentHandler(deps.Ingest)
	searchHandler := handler.NewSearchHandler(deps.Search)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		// Collections
		v1.POST("/collections", collectionHandler.Create)
		v1.GET("/collections", collectionHandler.List)
		v1.GET("/collections/:name", collectionHandler.Get)
		v1.PATCH("/collections/:name", collectionHandler.Update)
		v1.DELETE("/collections/:name", collectionHandler.Delete)
		v1.GET("/collections/:name/stats", collectionHandler.Stats)

		// Documents
		v1.POST("/collections/:name/documents", documentHandler.Add)
		v1.GET("/collections/:name/documents", documentHandler.List)
		v1.DELETE("/collections/:name/documents/:id", documentHandler.Delete)

		// Search
		v1.POST("/collections/:name/search", searchHandler.Search)
		v1.GET("/collections/:name/search", searchHandler.SearchGet)

		// Retention
		v1.POST("/cleanup", collectionHandler.Cleanup)
	}

	return r
}
