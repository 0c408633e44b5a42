package llm

import (
	"embed"
	log "log/slog"
	"os"
	"path/filepath"
	"strings"
)

//go:embed prompts/*.txt
var defaultPrompts embed.FS

const (
	PromptSizeEstimate = "size_estimate.txt"
	PromptDecision     = "decision.txt"
	PromptText         = "text.txt"
	PromptBarcode      = "barcode.txt"
)

// Prompts 提示词模板，占位符形如 {name}
type Prompts struct {
	SizeEstimate string
	Decision     string
	Text         string
	Barcode      string
}

// LoadPrompts 优先读取 dir 下的同名文件，缺失时使用内置模板
func LoadPrompts(dir string) *Prompts {
	return &Prompts{
		SizeEstimate: readPrompt(dir, PromptSizeEstimate),
		Decision:     readPrompt(dir, PromptDecision),
		Text:         readPrompt(dir, PromptText),
		Barcode:      readPrompt(dir, PromptBarcode),
	}
}

func readPrompt(dir, name string) string {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data)
		}
		if !os.IsNotExist(err) {
			log.Warn("read prompt file failed, using built-in", "file", name, "err", err)
		}
	}
	data, err := defaultPrompts.ReadFile("prompts/" + name)
	if err != nil {
		log.Error("built-in prompt missing", "file", name, "err", err)
		return ""
	}
	return string(data)
}

// render 替换模板中的 {key}
func render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
