// Package models tracks all api models for request and responses
package models

import "github.com/aouyang1/photoportfolio/content"

// AdminSecretHeader carries the admin secret outside development.
const AdminSecretHeader = "X-Admin-Secret"

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ManagementItem struct {
	Filename   string         `json:"filename"`
	Configured bool           `json:"configured"`
	Config     *content.Entry `json:"config,omitempty"`
}

type AdminPhotosData struct {
	Total      int              `json:"total"`
	Configured int              `json:"configured"`
	Items      []ManagementItem `json:"items"`
}

type AdminPhotosResponse struct {
	Success bool            `json:"success"`
	Data    AdminPhotosData `json:"data"`
}

type ConfigResponse struct {
	Success bool           `json:"success"`
	Data    content.Config `json:"data"`
}

type SaveConfigRequest struct {
	Filename string         `json:"filename"`
	Config   *content.Entry `json:"config"`
}

type ReplaceConfigRequest struct {
	Configs content.Config `json:"configs"`
}

type PhotoListResponse struct {
	Photos []content.Item `json:"photos"`
	Total  int            `json:"total"`
}
