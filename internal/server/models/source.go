package models

import "time"

// Source is an external feed or queue endpoint a user's widgets read from.
type Source struct {
	ID        string
	Owner     string
	Name      string
	Type      string
	URL       string
	Login     string
	Passcode  string
	VHost     string
	Active    bool
	CreatedAt time.Time
}

// PublicSource is the listing shape of a source.
type PublicSource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	Login    string `json:"login"`
	Passcode string `json:"passcode"`
	VHost    string `json:"vhost"`
	Active   bool   `json:"active"`
}

func (s *Source) Public() PublicSource {
	return PublicSource{
		ID:       s.ID,
		Name:     s.Name,
		Type:     s.Type,
		URL:      s.URL,
		Login:    s.Login,
		Passcode: s.Passcode,
		VHost:    s.VHost,
		Active:   s.Active,
	}
}

// Statistics are platform-wide counters.
type Statistics struct {
	Users      int64 `json:"users"`
	Dashboards int64 `json:"dashboards"`
	Views      int64 `json:"views"`
	Sources    int64 `json:"sources"`
}
