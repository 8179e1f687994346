package api

import (
	"time"

	"github.com/ritz123/SeoWatch/app/analyzer"
	"github.com/ritz123/SeoWatch/app/bulk"
	"github.com/ritz123/SeoWatch/app/fetch"
	"github.com/ritz123/SeoWatch/app/store"
)

type Handler struct {
	jobStore     store.JobStore
	runner       *bulk.Runner
	fetcher      *fetch.Client
	engine       *analyzer.Engine
	uploadsDir   string
	fetchTimeout time.Duration
}

type UploadResponse struct {
	JobID                   string `json:"jobId"`
	TotalURLs               int    `json:"totalUrls"`
	EstimatedCompletionTime string `json:"estimatedCompletionTime"`
}

type ProgressInfo struct {
	Total      int `json:"total"`
	Processed  int `json:"processed"`
	Percentage int `json:"percentage"`
}

type StatusResponse struct {
	JobID                  string       `json:"jobId"`
	Status                 string       `json:"status"`
	Progress               ProgressInfo `json:"progress"`
	EstimatedTimeRemaining string       `json:"estimatedTimeRemaining,omitempty"`
}

type AnalyzeRequest struct {
	URL string `json:"url"`
}
