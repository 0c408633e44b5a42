package llm

import (
	"Hydro/internal/model"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const mlPerOunce = 29.5735

// SizeEstimate 第一轮输出：三个容量估计与尺寸描述
type SizeEstimate struct {
	Estimates []float64
	Size      string
	Container string
	Reasoning string
	Raw       string
}

// Median 估计值中位数，无估计时为 0
func (e *SizeEstimate) Median() float64 {
	if e == nil || len(e.Estimates) == 0 {
		return 0
	}
	vals := append([]float64(nil), e.Estimates...)
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}

// Decision 第二轮的最终结论
type Decision struct {
	NoWater        bool
	Reason         string
	Ounces         float64
	Classification string
	LiquidType     string
}

// BarcodeProduct 条码对应的单个容器信息
type BarcodeProduct struct {
	ProductName string
	Ounces      float64
	LiquidType  string
}

var (
	estimateLineRe = regexp.MustCompile(`(?im)^\s*\**\s*ESTIMATE[_ ]?\d\s*\**\s*:\s*\**\s*(\d+(?:\.\d+)?)`)
	ozMentionRe    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:fl\.?\s*)?(?:oz|ounces?)\b`)
	sizeLineRe     = regexp.MustCompile(`(?im)^\s*SIZE\s*:\s*(.+)$`)
	containerRe    = regexp.MustCompile(`(?im)^\s*CONTAINER\s*:\s*(.+)$`)
	reasoningRe    = regexp.MustCompile(`(?im)^\s*REASONING\s*:\s*(.+)$`)

	decisionRe = regexp.MustCompile(`(?i)ESTIMATE\s*:\s*(\d+(?:\.\d+)?)\s*(?:oz)?\s*:\s*([^:\n]+?)\s*:\s*([^\n]+)`)
	noWaterRe  = regexp.MustCompile(`(?i)NO_WATER\s*:?\s*([^\n]*)`)

	barcodeRe = regexp.MustCompile(`(?i)PRODUCT\s*:\s*([^|\n]+?)\s*\|\s*OUNCES\s*:\s*(\d+(?:\.\d+)?)\s*\|\s*TYPE\s*:\s*([^|\n]+)`)

	packCountRe = regexp.MustCompile(`(?i)\b\d+\s*[- ]?\s*(?:pack|pk|ct|count|bottles|cans)\b|\bpack\s+of\s+\d+\b|\b\d+\s*x\s*`)
	volumeRe    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(fl\.?\s*oz|ounces?|oz|millilit(?:er|re)s?|ml|lit(?:er|re)s?|l)\b`)
)

// ParseSizeEstimate 解析第一轮输出，格式不符时尽量从正文提取盎司数
func ParseSizeEstimate(text string) *SizeEstimate {
	est := &SizeEstimate{Raw: text}

	for _, m := range estimateLineRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			est.Estimates = append(est.Estimates, v)
		}
	}
	if len(est.Estimates) == 0 {
		for _, m := range ozMentionRe.FindAllStringSubmatch(text, 3) {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				est.Estimates = append(est.Estimates, v)
			}
		}
	}

	if m := sizeLineRe.FindStringSubmatch(text); m != nil {
		est.Size = cleanValue(m[1])
	}
	if m := containerRe.FindStringSubmatch(text); m != nil {
		est.Container = NormalizeClassification(m[1])
	}
	if m := reasoningRe.FindStringSubmatch(text); m != nil {
		est.Reasoning = strings.TrimSpace(m[1])
	}
	return est
}

// ParseDecision 解析 ESTIMATE:<oz>:<分类>:<饮品> 或 NO_WATER:<原因>，都不匹配时 ok 为 false
func ParseDecision(text string) (*Decision, bool) {
	if m := decisionRe.FindStringSubmatch(text); m != nil {
		oz, err := strconv.ParseFloat(m[1], 64)
		if err == nil && oz > 0 {
			liquid := cleanValue(m[3])
			if liquid == "" {
				liquid = "water"
			}
			return &Decision{
				Ounces:         oz,
				Classification: NormalizeClassification(m[2]),
				LiquidType:     liquid,
			}, true
		}
	}
	if m := noWaterRe.FindStringSubmatch(text); m != nil {
		return &Decision{NoWater: true, Reason: cleanValue(m[1])}, true
	}
	return nil, false
}

// ParseBarcodeResponse 解析 PRODUCT:|OUNCES:|TYPE: 格式，失败时回退到自由文本中的单瓶容量
func ParseBarcodeResponse(text string) (*BarcodeProduct, bool) {
	if m := barcodeRe.FindStringSubmatch(text); m != nil {
		oz, err := strconv.ParseFloat(m[2], 64)
		if err == nil && oz > 0 {
			name := cleanValue(m[1])
			// OUNCES 字段偶尔带着整箱描述，以名称里的单瓶规格为准
			if perUnit, ok := ParseContainerOunces(name); ok && perUnit < oz {
				oz = perUnit
			}
			return &BarcodeProduct{
				ProductName: name,
				Ounces:      oz,
				LiquidType:  cleanValue(m[3]),
			}, true
		}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.EqualFold(trimmed, "UNKNOWN") {
		return nil, false
	}
	oz, ok := ParseContainerOunces(trimmed)
	if !ok {
		return nil, false
	}
	name := strings.SplitN(trimmed, "\n", 2)[0]
	if len(name) > 100 {
		name = name[:100]
	}
	return &BarcodeProduct{
		ProductName: cleanValue(name),
		Ounces:      oz,
		LiquidType:  "water",
	}, true
}

// ParseContainerOunces 从描述中提取单个容器的容量（盎司），先去掉箱/包数量，ml 与 L 会换算
func ParseContainerOunces(text string) (float64, bool) {
	stripped := packCountRe.ReplaceAllString(text, " ")
	m := volumeRe.FindStringSubmatch(stripped)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}

	unit := strings.ToLower(strings.ReplaceAll(m[2], " ", ""))
	switch {
	case strings.HasPrefix(unit, "ml"), strings.HasPrefix(unit, "millil"):
		v = v / mlPerOunce
	case unit == "l", strings.HasPrefix(unit, "lit"):
		v = v * 1000 / mlPerOunce
	}
	return math.Round(v*10) / 10, true
}

// NormalizeClassification 归一化到已知容器分类，无法识别时按杯子处理
func NormalizeClassification(raw string) string {
	c := strings.ToLower(cleanValue(raw))
	if model.Classifications[c] {
		return c
	}
	switch {
	case strings.Contains(c, "can"):
		return model.ClassDisposableCan
	case strings.Contains(c, "reusable"), strings.Contains(c, "tumbler"), strings.Contains(c, "flask"):
		return model.ClassReusableBottle
	case strings.Contains(c, "bottle"):
		return model.ClassDisposableBottle
	case strings.Contains(c, "fountain"):
		return model.ClassFountain
	case strings.Contains(c, "tap"), strings.Contains(c, "faucet"), strings.Contains(c, "sink"):
		return model.ClassTap
	case strings.Contains(c, "dispenser"), strings.Contains(c, "cooler"):
		return model.ClassDispenser
	case c == "description":
		return model.ClassDescription
	}
	return model.ClassCupGlass
}

func cleanValue(s string) string {
	return strings.Trim(strings.TrimSpace(s), "`*\"'.<>")
}
