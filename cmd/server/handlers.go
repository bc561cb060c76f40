package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"knowledge-graph/internal/graph"
)

// registerRoutes wires the knowledge graph operations onto the router.
// Not-found and no-op conditions map to empty shapes, never to 5xx.
func registerRoutes(router *gin.Engine, repo *graph.Repository, log *zap.Logger) {
	api := router.Group("/api")

	// Entities

	api.POST("/entities", func(c *gin.Context) {
		var req struct {
			Name         string         `json:"name" binding:"required"`
			Type         string         `json:"type" binding:"required"`
			Project      string         `json:"project" binding:"required"`
			Observations []string       `json:"observations"`
			Properties   map[string]any `json:"properties"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		entity, err := repo.CreateEntity(c.Request.Context(), req.Name, req.Type, req.Project, req.Observations, req.Properties)
		if err != nil {
			log.Error("Failed to create entity", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create entity"})
			return
		}
		if entity == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, entity)
	})

	api.POST("/entities/observations", func(c *gin.Context) {
		var req struct {
			Name         string   `json:"name" binding:"required"`
			Project      string   `json:"project" binding:"required"`
			Observations []string `json:"observations" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		entity, err := repo.AddObservations(c.Request.Context(), req.Name, req.Project, req.Observations)
		if err != nil {
			log.Error("Failed to add observations", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add observations"})
			return
		}
		if entity == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, entity)
	})

	api.DELETE("/entities", func(c *gin.Context) {
		name := c.Query("name")
		project := c.Query("project")
		if name == "" || project == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and project are required"})
			return
		}

		deleted, err := repo.DeleteEntity(c.Request.Context(), name, project)
		if err != nil {
			log.Error("Failed to delete entity", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete entity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	})

	api.GET("/entities/:name", func(c *gin.Context) {
		name := c.Param("name")
		project := c.Query("project")
		if project == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project is required"})
			return
		}

		entity, err := repo.GetEntity(c.Request.Context(), name, project)
		if err != nil {
			log.Error("Failed to get entity", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get entity"})
			return
		}
		if entity == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, entity)
	})

	// Search and project queries

	api.GET("/search", func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
			return
		}

		entities, err := repo.Search(c.Request.Context(), query, c.Query("project"))
		if err != nil {
			log.Error("Failed to search", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search"})
			return
		}
		c.JSON(http.StatusOK, entities)
	})

	api.GET("/projects", func(c *gin.Context) {
		projects, err := repo.ListProjects(c.Request.Context())
		if err != nil {
			log.Error("Failed to list projects", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
			return
		}
		c.JSON(http.StatusOK, projects)
	})

	api.GET("/projects/:project/graph", func(c *gin.Context) {
		pg, err := repo.GetProjectGraph(c.Request.Context(), c.Param("project"))
		if err != nil {
			log.Error("Failed to get project graph", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project graph"})
			return
		}
		c.JSON(http.StatusOK, pg)
	})

	// Relationships

	api.POST("/relationships", func(c *gin.Context) {
		var req struct {
			From         string         `json:"from" binding:"required"`
			To           string         `json:"to" binding:"required"`
			RelationType string         `json:"relation_type" binding:"required"`
			Project      string         `json:"project" binding:"required"`
			Properties   map[string]any `json:"properties"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rel, err := repo.CreateRelationship(c.Request.Context(), req.From, req.To, req.RelationType, req.Project, req.Properties)
		if err != nil {
			log.Error("Failed to create relationship", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create relationship"})
			return
		}
		if rel == nil {
			// Missing endpoint entities, nothing was created
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, rel)
	})

	api.DELETE("/relationships", func(c *gin.Context) {
		from := c.Query("from")
		to := c.Query("to")
		relationType := c.Query("relation_type")
		project := c.Query("project")
		if from == "" || to == "" || relationType == "" || project == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from, to, relation_type and project are required"})
			return
		}

		deleted, err := repo.DeleteRelationship(c.Request.Context(), from, to, relationType, project)
		if err != nil {
			log.Error("Failed to delete relationship", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete relationship"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	})

	// Migrations

	api.POST("/migrations", func(c *gin.Context) {
		var req struct {
			Project     string `json:"project" binding:"required"`
			Description string `json:"description" binding:"required"`
			CypherUp    string `json:"cypher_up" binding:"required"`
			CypherDown  string `json:"cypher_down"`
			Version     string `json:"version"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		migration, err := repo.AddMigration(c.Request.Context(), req.Project, req.Description, req.CypherUp, req.CypherDown, req.Version)
		if err != nil {
			log.Error("Failed to add migration", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add migration"})
			return
		}
		c.JSON(http.StatusOK, migration)
	})

	api.GET("/migrations", func(c *gin.Context) {
		project := c.Query("project")
		if project == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project is required"})
			return
		}

		migrations, err := repo.GetMigrations(c.Request.Context(), project)
		if err != nil {
			log.Error("Failed to get migrations", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get migrations"})
			return
		}
		c.JSON(http.StatusOK, migrations)
	})

	api.POST("/migrations/apply", func(c *gin.Context) {
		var req struct {
			Project string `json:"project" binding:"required"`
			Seq     int64  `json:"seq" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		migration, err := repo.ApplyMigration(c.Request.Context(), req.Project, req.Seq)
		if err != nil {
			var notApplicable graph.ErrMigrationNotApplicable
			if errors.As(err, &notApplicable) {
				c.JSON(http.StatusConflict, gin.H{"error": notApplicable.Error()})
				return
			}
			log.Error("Failed to apply migration", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply migration"})
			return
		}
		c.JSON(http.StatusOK, migration)
	})
}

// registerCypherRoute exposes the raw Cypher gateway. Read-only by
// convention only.
func registerCypherRoute(router *gin.Engine, gateway *graph.RawGateway, log *zap.Logger) {
	router.POST("/api/cypher", func(c *gin.Context) {
		var req struct {
			Query  string         `json:"query" binding:"required"`
			Params map[string]any `json:"params"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rows, err := gateway.Run(c.Request.Context(), req.Query, req.Params)
		if err != nil {
			log.Error("Failed to run cypher", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run query"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})
}
