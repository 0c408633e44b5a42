// Package hydration 饮品补水系数、饮用量换算与取整规则
package hydration

import (
	"errors"
	"math"
	"strings"
)

// ErrAlcohol 酒精饮品不计入饮水
var ErrAlcohol = errors.New("alcoholic drinks are worth 0 oz of hydration")

// ErrNoVolume 计算后饮水量不大于 0
var ErrNoVolume = errors.New("consumed volume must be greater than 0")

type rule struct {
	keyword string
	factor  float64
}

// 按顺序子串匹配，先匹配先生效：root beer 在 beer 之前，diet 在 soda/coke 之前，juice 在 water 之前
var rules = []rule{
	{"root beer", 0.75},
	{"ginger ale", 0.75},
	{"alcohol", 0},
	{"beer", 0},
	{"wine", 0},
	{"liquor", 0},
	{"vodka", 0},
	{"whiskey", 0},
	{"rum", 0},
	{"tequila", 0},
	{"cocktail", 0},
	{"sparkling", 1.0},
	{"seltzer", 1.0},
	{"diet", 0.9},
	{"energy", 0.65},
	{"red bull", 0.65},
	{"monster", 0.65},
	{"sports drink", 0.7},
	{"gatorade", 0.7},
	{"powerade", 0.7},
	{"electrolyte", 0.7},
	{"soda", 0.75},
	{"cola", 0.75},
	{"coke", 0.75},
	{"pepsi", 0.75},
	{"sprite", 0.75},
	{"pop", 0.75},
	{"coffee", 0.8},
	{"espresso", 0.8},
	{"latte", 0.8},
	{"tea", 0.8},
	{"smoothie", 0.65},
	{"milk", 0.75},
	{"juice", 0.7},
	{"lemonade", 0.7},
	{"water", 1.0},
}

// Multiplier 返回饮品的补水系数，未识别的按 1.0 计
func Multiplier(liquidType string) float64 {
	lower := strings.ToLower(strings.TrimSpace(liquidType))
	if lower == "" {
		return 1.0
	}
	for _, r := range rules {
		if strings.Contains(lower, r.keyword) {
			return r.factor
		}
	}
	return 1.0
}

// SmartRound 取整到 0.5 oz：小数 >=0.75 进位，>=0.25 记半盎司，否则舍去
func SmartRound(x float64) float64 {
	whole := math.Floor(x)
	frac := x - whole
	switch {
	case frac >= 0.75:
		return whole + 1
	case frac >= 0.25:
		return whole + 0.5
	default:
		return whole
	}
}

// SipRate 每秒吸入量（oz/s），按手掌大小区分
func SipRate(handSize string) float64 {
	switch handSize {
	case "small":
		return 0.5
	case "large":
		return 0.8
	default:
		return 0.65
	}
}

// Consumption 一次饮用的计算结果
type Consumption struct {
	ContainerCapacity float64
	RawOunces         float64
	Multiplier        float64
	Ounces            float64
}

// FromContainer 容量 × 百分比 × 份数，再乘补水系数并取整。percentage 为 0 表示喝完
func FromContainer(capacity, percentage float64, servings int, liquidType string) (*Consumption, error) {
	raw := capacity
	if percentage > 0 {
		raw = capacity * percentage / 100
	}
	return apply(capacity, raw, servings, liquidType)
}

// FromDuration 按吸吮时长估算，不需要容器容量
func FromDuration(seconds float64, handSize string, servings int, liquidType string) (*Consumption, error) {
	return apply(0, seconds*SipRate(handSize), servings, liquidType)
}

func apply(capacity, raw float64, servings int, liquidType string) (*Consumption, error) {
	if servings < 1 {
		servings = 1
	}
	raw *= float64(servings)

	m := Multiplier(liquidType)
	if m == 0 {
		return nil, ErrAlcohol
	}
	ounces := SmartRound(raw * m)
	if ounces <= 0 {
		return nil, ErrNoVolume
	}
	return &Consumption{
		ContainerCapacity: capacity,
		RawOunces:         raw,
		Multiplier:        m,
		Ounces:            ounces,
	}, nil
}
