package rest

import (
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) getDashboard(c *gin.Context) {
	v, err := s.svc.Dashboards.Fetch(c.Request.Context(), principal(c), c.Query("id"))
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, gin.H{"dashboard": v.Dashboard})
}

func (s *HTTPServer) listDashboards(c *gin.Context) {
	list, err := s.svc.Dashboards.List(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	if list == nil {
		list = []models.DashboardSummary{}
	}
	success(c, gin.H{"dashboards": list})
}

func (s *HTTPServer) createDashboard(c *gin.Context) {
	var req createDashboardRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	if _, err := s.svc.Dashboards.Create(c.Request.Context(), principal(c), req.Name); err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, nil)
}

func (s *HTTPServer) checkPasswordNeeded(c *gin.Context) {
	var req checkPasswordNeededRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}

	token := req.Token
	if token == "" {
		token = c.Query("token")
	}

	res, err := s.svc.Dashboards.CheckPasswordNeeded(c.Request.Context(), s.optionalPrincipal(token), req.dashboardID())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}

	body := gin.H{
		"owner":          res.Owner,
		"shared":         res.Shared,
		"hasPassword":    res.HasPassword,
		"passwordNeeded": res.PasswordNeeded,
	}
	if res.View.Kind == models.ViewProjected {
		body["dashboard"] = res.View.Projection
	}
	success(c, body)
}

func (s *HTTPServer) checkPassword(c *gin.Context) {
	var req checkPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}

	res, err := s.svc.Dashboards.CheckPassword(c.Request.Context(), req.dashboardID(), req.Password)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}

	body := gin.H{"correctPassword": res.Correct}
	if res.Correct {
		body["owner"] = res.Owner
		body["dashboard"] = res.View.Projection
	}
	success(c, body)
}

func (s *HTTPServer) shareDashboard(c *gin.Context) {
	var req dashboardRef
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	shared, err := s.svc.Dashboards.ShareToggle(c.Request.Context(), principal(c), req.dashboardID())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, gin.H{"shared": shared})
}

func (s *HTTPServer) changeDashboardPassword(c *gin.Context) {
	var req dashboardPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	if err := s.svc.Dashboards.ChangePassword(c.Request.Context(), principal(c), req.dashboardID(), req.Password); err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, nil)
}

func (s *HTTPServer) saveDashboard(c *gin.Context) {
	var req saveDashboardRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	err := s.svc.Dashboards.Save(c.Request.Context(), principal(c), req.dashboardID(), req.Layout, req.Items, req.NextID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, nil)
}

func (s *HTTPServer) cloneDashboard(c *gin.Context) {
	var req cloneDashboardRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	if _, err := s.svc.Dashboards.Clone(c.Request.Context(), principal(c), req.dashboardID(), req.Name); err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, nil)
}

func (s *HTTPServer) deleteDashboard(c *gin.Context) {
	var req dashboardRef
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	if err := s.svc.Dashboards.Delete(c.Request.Context(), principal(c), req.dashboardID()); err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, nil)
}

func (s *HTTPServer) exportDashboard(c *gin.Context) {
	var req dashboardRef
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.logger, err)
		return
	}
	url, err := s.svc.Exports.Export(c.Request.Context(), principal(c), req.dashboardID())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, gin.H{"url": url})
}
