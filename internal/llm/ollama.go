// Package llm 封装本地 Ollama 推理后端
package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"ai-chatbot/internal/apperr"
	"ai-chatbot/internal/config"
)

// probeTimeout 启动探测的超时时间
const probeTimeout = 5 * time.Second

// Ollama 文本补全后端
type Ollama struct {
	model     llms.Model
	serverURL string
	timeout   time.Duration
	client    *http.Client
}

// NewOllama 创建 Ollama 后端
// 参数:
//   - modelName: 模型名称，如 llama3.1
//   - cfg: 推理后端配置
//
// 返回:
//   - *Ollama: 后端实例
//   - error: 初始化错误
func NewOllama(modelName string, cfg config.LLMConfig) (*Ollama, error) {
	model, err := ollama.New(
		ollama.WithModel(modelName),
		ollama.WithServerURL(cfg.ServerURL),
	)
	if err != nil {
		return nil, apperr.Initialization("llm.new", err)
	}
	return NewWithModel(model, cfg), nil
}

// NewWithModel 用任意 langchaingo 模型构造后端
func NewWithModel(model llms.Model, cfg config.LLMConfig) *Ollama {
	return &Ollama{
		model:     model,
		serverURL: strings.TrimRight(cfg.ServerURL, "/"),
		timeout:   cfg.Timeout,
		client:    &http.Client{Timeout: probeTimeout},
	}
}

// Complete 发送提示词并返回模型输出
// 超时、连接失败和模型错误都返回推理错误
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, o.model, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", apperr.Inference("llm.complete", fmt.Errorf("%w: %v", ctxErr, err))
		}
		return "", apperr.Inference("llm.complete", err)
	}
	return out, nil
}

// Ping 探测 Ollama 服务是否可达
// 请求 GET <server_url>/api/tags，非 2xx 视为不可用
func (o *Ollama) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.serverURL+"/api/tags", nil)
	if err != nil {
		return apperr.Initialization("llm.ping", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return apperr.Initialization("llm.ping", fmt.Errorf("ollama unreachable at %s: %w", o.serverURL, err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.Initialization("llm.ping", fmt.Errorf("ollama at %s returned status %d", o.serverURL, resp.StatusCode))
	}
	return nil
}
