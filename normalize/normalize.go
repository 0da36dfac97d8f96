// Package normalize pulls the model's answer out of an inference response
// whose layout depends on the provider that produced it.
package normalize

import "strings"

// Rule names, also used as metric labels.
const (
	RuleChoices           = "choices"
	RuleMessage           = "message"
	RuleResponse          = "response"
	RuleOutput            = "output"
	RuleCompletionMessage = "completion_message"
	RuleBareString        = "bare_string"
	RuleFallback          = "fallback"
)

// Rule locates the answer inside one known response layout.
type Rule struct {
	Name  string
	Match func(Value) (Value, bool)
}

// Rules are tried in order and the first match wins. Chat-completions
// layouts come first, then provider-native message, then the generic
// response/output wrappers.
var Rules = []Rule{
	{Name: RuleChoices, Match: matchChoices},
	{Name: RuleMessage, Match: contentOrSelf("message")},
	{Name: RuleResponse, Match: self("response")},
	{Name: RuleOutput, Match: contentOrSelf("output")},
	{Name: RuleCompletionMessage, Match: contentOrSelf("completion_message")},
	{Name: RuleBareString, Match: matchBareString},
}

// Extract returns the answer text and the name of the rule that produced
// it. When no rule matches, the whole response is serialised instead so
// the caller always gets some text.
func Extract(v Value) (string, string) {
	for _, r := range Rules {
		m, ok := r.Match(v)
		if !ok {
			continue
		}
		if text, ok := Text(m); ok {
			return text, r.Name
		}
	}
	return v.String(), RuleFallback
}

// choices[0].message.content
func matchChoices(v Value) (Value, bool) {
	choices, ok := present(v, "choices")
	if !ok || choices.Kind() != Array {
		return Value{}, false
	}
	first, ok := choices.Index(0)
	if !ok {
		return Value{}, false
	}
	msg, ok := present(first, "message")
	if !ok {
		return Value{}, false
	}
	return present(msg, "content")
}

// contentOrSelf matches a field whose content sub-field holds the answer
// when the field is an object, and which is the answer itself otherwise.
func contentOrSelf(name string) func(Value) (Value, bool) {
	return func(v Value) (Value, bool) {
		f, ok := present(v, name)
		if !ok {
			return Value{}, false
		}
		if f.Kind() == Object {
			return present(f, "content")
		}
		return f, true
	}
}

func self(name string) func(Value) (Value, bool) {
	return func(v Value) (Value, bool) {
		return present(v, name)
	}
}

func matchBareString(v Value) (Value, bool) {
	return v, v.Kind() == String
}

// present looks up a member and treats an explicit null as absent.
func present(v Value, name string) (Value, bool) {
	f, ok := v.Field(name)
	if !ok || f.IsNull() {
		return Value{}, false
	}
	return f, true
}

// Text renders an extracted value as plain text. Strings are returned as
// is, content parts contribute their text, numbers and booleans their
// literal. Objects without text are serialised. Null has no text.
func Text(v Value) (string, bool) {
	switch v.Kind() {
	case Null:
		return "", false
	case String:
		s, _ := v.Str()
		return s, true
	case Bool, Number:
		return v.String(), true
	case Object:
		if t, ok := present(v, "text"); ok {
			return Text(t)
		}
		if c, ok := present(v, "content"); ok {
			return Text(c)
		}
		return v.String(), true
	case Array:
		var parts []string
		for i := 0; i < v.Len(); i++ {
			el, _ := v.Index(i)
			if s, ok := Text(el); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return v.String(), true
		}
		return strings.Join(parts, "\n"), true
	}
	return v.String(), true
}
