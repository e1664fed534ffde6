package controllers

import "github.com/colinclerk/sr/internal/pagelog"

// Common request/response types for HTTP controllers

// appendResp reports where a committed batch ends. For an empty batch
// Recorded is false and the position is that of the last committed batch.
type appendResp struct {
	LogID    string `json:"logId"`
	Created  bool   `json:"created"`
	Recorded bool   `json:"recorded"`
	Page     uint64 `json:"page"`
	Offset   int    `json:"offset"`
}

// cursorResp summarizes a session's write cursor.
type cursorResp struct {
	LogID      string             `json:"logId"`
	PageSize   int                `json:"pageSize"`
	OpenPage   uint64             `json:"openPage"`
	Fill       int                `json:"fill"`
	Batches    int                `json:"batches"`
	Bytes      uint64             `json:"bytes"`
	Boundaries []pagelog.Boundary `json:"boundaries"`
}

// wsAck is sent after each WebSocket batch. An empty batch is acked with
// recorded=false and the last committed position.
type wsAck struct {
	Page     uint64 `json:"page"`
	Offset   int    `json:"offset"`
	Recorded bool   `json:"recorded"`
}

// wsError is sent when a WebSocket batch is rejected.
type wsError struct {
	Error string `json:"error"`
}
