package llm

import (
	"Hydro/internal/api/config"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel 依次返回预设回复并记录收到的提示词
type scriptedModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
	images  int
}

func (m *scriptedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range messages {
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case llms.TextContent:
				m.prompts = append(m.prompts, p.Text)
			case llms.BinaryContent:
				m.images++
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return &llms.ContentResponse{}, nil
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newTestAnalyzer(m *scriptedModel) *Analyzer {
	return NewAnalyzer(m, config.LLMConfig{TextModel: "text", VisionModel: "vision", TimeoutSec: 5}, nil)
}

var testImage = ImageInput{Data: []byte{0xff, 0xd8, 0xff}, MimeType: "image/jpeg"}

func TestAnalyzer_TwoPass(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{replies: []string{
		"ESTIMATE_1: 16\nESTIMATE_2: 17\nESTIMATE_3: 16.9\nSIZE: medium\nCONTAINER: disposable-bottle\nREASONING: Standard bottle.",
		"ESTIMATE:16.9:disposable-bottle:water",
	}}
	a := newTestAnalyzer(m)
	ctx := context.Background()

	est, err := a.EstimateSize(ctx, testImage, Hints{HandSize: "large"})
	require.NoError(t, err)
	assert.InDelta(t, 16.9, est.Median(), 1e-9)

	d, err := a.Decide(ctx, testImage, est, Hints{HandSize: "large"})
	require.NoError(t, err)
	assert.InDelta(t, 16.9, d.Ounces, 1e-9)
	assert.Equal(t, "disposable-bottle", d.Classification)

	require.Len(t, m.prompts, 2)
	assert.Contains(t, m.prompts[0], "large hands")
	assert.Contains(t, m.prompts[1], "ESTIMATE_1: 16")
	assert.Equal(t, 2, m.images)
}

func TestAnalyzer_DecideUnparseable(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(&scriptedModel{replies: []string{"I cannot determine that."}})
	_, err := a.Decide(context.Background(), testImage, nil, Hints{})

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindParse, ae.Kind)
}

func TestAnalyzer_TextForcesDescription(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{replies: []string{"ESTIMATE:8:cup/glass:orange juice"}}
	a := newTestAnalyzer(m)

	d, err := a.AnalyzeText(context.Background(), "a glass of OJ with breakfast")
	require.NoError(t, err)
	assert.Equal(t, "description", d.Classification)
	assert.Equal(t, "orange juice", d.LiquidType)
	assert.True(t, strings.Contains(m.prompts[0], "a glass of OJ with breakfast"))
}

func TestAnalyzer_BarcodeHint(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{replies: []string{"PRODUCT:Poland Spring|OUNCES:16.9|TYPE:water"}}
	a := newTestAnalyzer(m)

	p, err := a.LookupBarcode(context.Background(), "075720000814", "Poland Spring 24 x 16.9 fl oz")
	require.NoError(t, err)
	assert.Equal(t, "Poland Spring", p.ProductName)
	assert.Contains(t, m.prompts[0], "Product database entry: Poland Spring")
	assert.Contains(t, m.prompts[0], "075720000814")
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindNetwork, Classify(context.DeadlineExceeded).Kind)
	assert.Equal(t, KindRateLimit, Classify(errors.New("API returned unexpected status code: 429")).Kind)
	assert.Equal(t, KindGeneric, Classify(errors.New("boom")).Kind)

	orig := NewAnalysisError(KindNoWater, "no drink", nil)
	assert.Same(t, orig, Classify(orig))
	assert.Nil(t, Classify(nil))

	m := &scriptedModel{err: errors.New("dial tcp: connection refused")}
	_, err := newTestAnalyzer(m).AnalyzeText(context.Background(), "water")
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindNetwork, ae.Kind)
}
