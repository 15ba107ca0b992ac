// Package i18n holds the message catalogue for parse and extraction error
// codes.
package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for error codes. data carries
// values substituted into {placeholders} (for example "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogue = map[string]map[string]string{
	"en": {
		"invalid_type":           "expected {expected}, got {actual}",
		"length_mismatch":        "the length of the list must be `{expected}`",
		"too_short":              "length must be at least {min}",
		"too_long":               "length must be at most {max}",
		"invalid_enum":           "`{actual}` is not one of {allowed}",
		"pattern":                "does not match pattern `{pattern}`",
		"required":               "required property `{key}` missing",
		"unknown_key":            "unknown property `{key}`",
		"duplicate_item":         "items must be unique",
		"invalid_format":         "invalid {format}",
		"out_of_range":           "{actual} is out of range for {type}",
		"union_mismatch":         "value does not match any variant of {name}",
		"discriminator_missing":  "discriminator `{key}` missing",
		"discriminator_unknown":  "unknown variant `{actual}` for `{key}`",
		"parse_error":            "parse error",
		"header_required":        "header `{header}` is required",
		"header_malformed":       "header `{header}` is malformed",
		"body_consumed":          "request body has already been consumed",
		"body_too_large":         "request body is too large",
		"body_read":              "request body could not be read",
		"unsupported_media_type": "unsupported content type `{content_type}`",
		"payload":                "malformed request payload",
	},
	"ja": {
		"invalid_type":           "型が不正です ({expected} が必要ですが {actual} でした)",
		"length_mismatch":        "要素数は `{expected}` でなければなりません",
		"too_short":              "短すぎます (最小 {min})",
		"too_long":               "長すぎます (最大 {max})",
		"invalid_enum":           "`{actual}` は {allowed} のいずれでもありません",
		"pattern":                "パターン `{pattern}` に一致しません",
		"required":               "必須プロパティ `{key}` が不足しています",
		"unknown_key":            "未知のキー `{key}` です",
		"duplicate_item":         "要素が重複しています",
		"invalid_format":         "{format} の形式が不正です",
		"out_of_range":           "{actual} は {type} の範囲外です",
		"union_mismatch":         "{name} のいずれのバリアントにも一致しません",
		"discriminator_missing":  "判別子 `{key}` がありません",
		"discriminator_unknown":  "`{key}` の値 `{actual}` は未知のバリアントです",
		"parse_error":            "解析エラー",
		"header_required":        "ヘッダー `{header}` は必須です",
		"header_malformed":       "ヘッダー `{header}` が不正です",
		"body_consumed":          "リクエストボディは既に読み取られています",
		"body_too_large":         "リクエストボディが大きすぎます",
		"body_read":              "リクエストボディを読み取れませんでした",
		"unsupported_media_type": "サポートされていない Content-Type `{content_type}` です",
		"payload":                "リクエストペイロードが不正です",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogue[t.lang][code]
	if !ok {
		msg, ok = catalogue["en"][code]
	}
	if !ok {
		return code
	}
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalogue[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation. nil restores the
// English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
