// Package entity 定义领域实体
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// TalkID 演讲标识
// 后端可能以数字或字符串返回，统一按字符串保存
type TalkID string

// UnmarshalJSON 同时接受 JSON 数字与字符串
func (id *TalkID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TalkID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("talk_id: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("talk_id: %w", err)
	}
	*id = TalkID(n.String())
	return nil
}

// String 实现 fmt.Stringer
func (id TalkID) String() string {
	return string(id)
}

// Sentence 语料中的一条句子记录（只读，来自后端）
type Sentence struct {
	TalkID  TalkID `json:"talk_id"`
	Title   string `json:"title"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	// Similarity 仅向量检索结果携带，取值 [0,1]
	Similarity float64 `json:"similarity,omitempty"`
}
