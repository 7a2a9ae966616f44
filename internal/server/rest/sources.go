package rest

import (
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/dmitrijs2005/dashkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (r sourceRequest) input() services.SourceInput {
	return services.SourceInput{
		ID:       r.ID,
		Name:     r.Name,
		Type:     r.Type,
		URL:      r.URL,
		Login:    r.Login,
		Passcode: r.Passcode,
		VHost:    r.VHost,
	}
}

func (s *HTTPServer) listSources(c *gin.Context) {
	list, err := s.svc.Sources.List(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	if list == nil {
		list = []models.PublicSource{}
	}
	success(c, gin.H{"sources": list})
}

func (s *HTTPServer) createSource(c *gin.Context) {
	var req sourceRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	if err := s.svc.Sources.Create(c.Request.Context(), principal(c), req.input()); err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, nil)
}

func (s *HTTPServer) changeSource(c *gin.Context) {
	var req sourceRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	if err := s.svc.Sources.Change(c.Request.Context(), principal(c), req.input()); err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, nil)
}

func (s *HTTPServer) deleteSource(c *gin.Context) {
	var req deleteSourceRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	if err := s.svc.Sources.Delete(c.Request.Context(), principal(c), req.ID); err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, nil)
}

func (s *HTTPServer) checkSources(c *gin.Context) {
	var req checkSourcesRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	active, err := s.svc.Sources.CheckSources(c.Request.Context(), principal(c), req.Sources)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	if active == nil {
		active = []string{}
	}
	success(c, gin.H{"activeSources": active})
}
