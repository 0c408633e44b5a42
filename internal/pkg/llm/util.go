package llm

import (
	"Hydro/internal/pkg/logger"
	"Hydro/internal/pkg/mongo"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/semaphore"
)

// exchange 一次调用的上下文，用于落分析日志
type exchange struct {
	flow  string
	pass  string
	model string
	start time.Time
}

func (a *Analyzer) fetch(ctx context.Context, sem *semaphore.Weighted, model string, parts []llms.ContentPart) (string, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer sem.Release(1)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: parts,
		},
	}
	opts := []llms.CallOption{
		llms.WithTemperature(0.2),
		llms.WithMaxTokens(400),
	}
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}

	log.DebugContext(ctx, "requesting llm", "model", model)
	resp, err := a.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// record 异步写入分析日志，失败只打日志
func (a *Analyzer) record(ctx context.Context, ex exchange, response string, parsed bool, callErr error) {
	if a.logs == nil {
		return
	}

	entry := &mongo.AnalysisLog{
		Flow:      ex.flow,
		Pass:      ex.pass,
		Model:     ex.model,
		Response:  response,
		Parsed:    parsed,
		LatencyMs: time.Since(ex.start).Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}
	if uid, ok := ctx.Value(logger.UserIDKey).(uint64); ok {
		entry.UserID = uid
	}
	if traceID, ok := ctx.Value(logger.TraceIDKey).(string); ok {
		entry.TraceID = traceID
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		saveCtx, cancel := context.WithTimeout(bg, 3*time.Second)
		defer cancel()
		if err := a.logs.Save(saveCtx, entry); err != nil {
			log.WarnContext(saveCtx, "save analysis log failed", "flow", entry.Flow, "err", err)
		}
	}()
}
