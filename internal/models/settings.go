package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by storage backends when an entry does not exist.
var ErrNotFound = errors.New("not found")

// Setting keys.
const (
	SettingSonarr = "sonarr"
	SettingMal    = "mal"
)

// SonarrConfig holds the connection settings of the series manager.
type SonarrConfig struct {
	URL               string       `json:"url"`
	APIKey            string       `json:"api_key"`
	Connected         bool         `json:"connected"`
	DefaultRootFolder string       `json:"default_root_folder,omitempty"`
	RootFolders       []RootFolder `json:"root_folders,omitempty"`
}

// RootFolder is a destination folder known to the series manager.
type RootFolder struct {
	ID         int    `json:"id"`
	Path       string `json:"path"`
	Accessible bool   `json:"accessible"`
	FreeSpace  int64  `json:"free_space,omitempty"`
	TotalSpace int64  `json:"total_space,omitempty"`
}

// MalConfig holds the optional MyAnimeList account link. It only gates the
// extra-records step of the catalog fetch.
type MalConfig struct {
	ClientID  string `json:"client_id"`
	Connected bool   `json:"connected"`
}

// Notification types.
const (
	NotifySuccess = "success"
	NotifyError   = "error"
	NotifyInfo    = "info"
)

// Notification is a transient, user-visible message.
type Notification struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}
