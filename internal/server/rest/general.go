package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/dashkeeper/internal/netx"
	"github.com/dmitrijs2005/dashkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) statistics(c *gin.Context) {
	st, err := s.svc.General.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	success(c, gin.H{
		"users":      st.Users,
		"dashboards": st.Dashboards,
		"views":      st.Views,
		"sources":    st.Sources,
	})
}

func (s *HTTPServer) testURL(c *gin.Context) {
	if s.svc.General.TestURL(c.Request.Context(), c.Query("url")) {
		c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "active": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusInternalServerError, "active": false})
}

func (s *HTTPServer) testURLRequest(c *gin.Context) {
	fr, err := parseForwardRequest(c.Query("url"), c.Query("type"), c.Query("body"))
	if err != nil {
		s.logger.Debug(c.Request.Context(), "bad forward request", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": http.StatusInternalServerError, "response": services.ForwardFailure})
		return
	}

	res := s.svc.General.TestURLRequest(c.Request.Context(), fr)
	c.JSON(http.StatusOK, gin.H{"status": res.Status, "response": res.Response})
}

// parseForwardRequest builds a relayed request from query parameters. body is
// a JSON document {requestBody, params}; params may be empty or an object of
// strings.
func parseForwardRequest(url, method, body string) (netx.ForwardRequest, error) {
	fr := netx.ForwardRequest{URL: url, Method: strings.ToUpper(method)}
	if body == "" {
		return fr, nil
	}

	var b forwardBody
	if err := json.Unmarshal([]byte(body), &b); err != nil {
		return fr, fmt.Errorf("decode body: %w", err)
	}
	fr.Body = b.RequestBody

	raw := strings.TrimSpace(string(b.Params))
	if raw == "" || raw == "null" || raw == `""` {
		return fr, nil
	}
	if err := json.Unmarshal(b.Params, &fr.Params); err != nil {
		return fr, fmt.Errorf("decode params: %w", err)
	}
	return fr, nil
}
