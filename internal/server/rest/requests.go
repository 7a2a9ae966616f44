package rest

import (
	"encoding/json"

	"github.com/gin-gonic/gin/binding"
)

func validate(req any) error {
	return binding.Validator.ValidateStruct(req)
}

// dashboardRef names a dashboard; clients send either spelling.
type dashboardRef struct {
	ID          string `json:"id"`
	DashboardID string `json:"dashboardId"`
}

func (r dashboardRef) dashboardID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.DashboardID
}

type createDashboardRequest struct {
	Name string `json:"name"`
}

type checkPasswordNeededRequest struct {
	dashboardRef
	Token string `json:"token"`
}

type checkPasswordRequest struct {
	dashboardRef
	Password string `json:"password"`
}

type dashboardPasswordRequest struct {
	dashboardRef
	Password string `json:"password"`
}

type saveDashboardRequest struct {
	dashboardRef
	Layout json.RawMessage `json:"layout"`
	Items  json.RawMessage `json:"items"`
	NextID int             `json:"nextId"`
}

type cloneDashboardRequest struct {
	dashboardRef
	Name string `json:"name"`
}

type sourceRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	Login    string `json:"login"`
	Passcode string `json:"passcode"`
	VHost    string `json:"vhost"`
}

type deleteSourceRequest struct {
	ID string `json:"id" binding:"required"`
}

type checkSourcesRequest struct {
	Sources []string `json:"sources"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authenticateRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Username string `json:"username" binding:"required"`
}

type changePasswordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// forwardBody is the JSON carried in the body query parameter of
// test-url-request.
type forwardBody struct {
	RequestBody any             `json:"requestBody"`
	Params      json.RawMessage `json:"params"`
}
