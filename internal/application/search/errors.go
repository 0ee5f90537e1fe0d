package search

import (
	"context"
	"errors"

	apperrors "conference-rag/pkg/errors"
)

var (
	// ErrEmptyQuery 查询为空（去除首尾空白后），不发起任何后端调用
	ErrEmptyQuery = errors.New("query is empty")
)

const (
	fallbackEmbedMessage    = "Failed to get embedding"
	fallbackGenerateMessage = "Failed to generate answer"
	fallbackBackendMessage  = "backend unavailable"
	timeoutMessage          = "request timed out"
)

// backendMessager 后端错误携带的可展示文本
type backendMessager interface {
	BackendMessage() string
}

// backendMessage 提取后端报告的错误文本；传输层错误不暴露原始细节
func backendMessage(err error, fallback string) string {
	var bm backendMessager
	if errors.As(err, &bm) && bm.BackendMessage() != "" {
		return bm.BackendMessage()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutMessage
	}
	return fallback
}

func searchFailed(err error) error {
	return apperrors.Wrap(err, apperrors.CodeSearchFailed, "Search failed: "+backendMessage(err, fallbackBackendMessage))
}

func embeddingFailed(err error) error {
	return apperrors.Wrap(err, apperrors.CodeEmbeddingFailed, backendMessage(err, fallbackEmbedMessage))
}

func retrievalFailed(err error) error {
	return apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "Database search failed: "+backendMessage(err, fallbackBackendMessage))
}

func generationFailed(err error) error {
	return apperrors.Wrap(err, apperrors.CodeGenerationFailed, backendMessage(err, fallbackGenerateMessage))
}
