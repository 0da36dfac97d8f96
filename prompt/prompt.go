// Package prompt derives the instruction sent alongside the image from the
// requested intent and target language.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Intent string

const (
	IntentTranslate Intent = "translate"
	IntentDescribe  Intent = "describe"
	IntentGeneric   Intent = "generic"
)

const (
	DefaultLanguage = "English"

	// LanguagePlaceholder is replaced with the target language in every template.
	LanguagePlaceholder = "{language}"
)

const (
	defaultTranslate = "You are a language translator. What is the object in this image? " +
		"Provide a direct, literal translation of any text visible in the image into {language}."
	defaultDescribe = "You are a tour guide. You are looking at a scene and describing it in {language}. " +
		"Explain what is in front of you and its context. " +
		"Do not mention the camera, the photo or the device used to capture it."
	defaultGeneric = "Describe this image for a sign language accessibility app in {language}."
)

// ParseIntent maps a client supplied string onto an Intent. An empty value
// means describe; anything unrecognised is generic.
func ParseIntent(s string) Intent {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(IntentDescribe):
		return IntentDescribe
	case string(IntentTranslate):
		return IntentTranslate
	default:
		return IntentGeneric
	}
}

// Templates holds one instruction template per intent.
type Templates struct {
	Translate string `yaml:"translate"`
	Describe  string `yaml:"describe"`
	Generic   string `yaml:"generic"`
}

func DefaultTemplates() Templates {
	return Templates{
		Translate: defaultTranslate,
		Describe:  defaultDescribe,
		Generic:   defaultGeneric,
	}
}

// Builder renders instructions from a fixed set of templates. It holds no
// mutable state, so the same inputs always produce the same output.
type Builder struct {
	templates Templates
}

var defaultBuilder = &Builder{templates: DefaultTemplates()}

func Default() *Builder { return defaultBuilder }

// NewBuilder fills empty templates with the defaults and rejects templates
// that do not reference the target language.
func NewBuilder(t Templates) (*Builder, error) {
	def := DefaultTemplates()
	if strings.TrimSpace(t.Translate) == "" {
		t.Translate = def.Translate
	}
	if strings.TrimSpace(t.Describe) == "" {
		t.Describe = def.Describe
	}
	if strings.TrimSpace(t.Generic) == "" {
		t.Generic = def.Generic
	}

	for name, tmpl := range map[string]string{
		"translate": t.Translate,
		"describe":  t.Describe,
		"generic":   t.Generic,
	} {
		if !strings.Contains(tmpl, LanguagePlaceholder) {
			return nil, fmt.Errorf("prompt template %q must contain %s", name, LanguagePlaceholder)
		}
	}
	return &Builder{templates: t}, nil
}

// LoadFile reads template overrides from a YAML file with the keys
// translate, describe and generic.
func LoadFile(path string) (*Builder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return NewBuilder(t)
}

// Build returns the instruction for the given intent and language.
func (b *Builder) Build(intent, language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}

	var tmpl string
	switch ParseIntent(intent) {
	case IntentTranslate:
		tmpl = b.templates.Translate
	case IntentDescribe:
		tmpl = b.templates.Describe
	default:
		tmpl = b.templates.Generic
	}
	return strings.ReplaceAll(tmpl, LanguagePlaceholder, language)
}

// Build renders an instruction with the default templates.
func Build(intent, language string) string {
	return defaultBuilder.Build(intent, language)
}
