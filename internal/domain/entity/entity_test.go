package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTalkIDUnmarshal(t *testing.T) {
	var rows []Sentence
	body := `[{"talk_id": 42, "text": "a"}, {"talk_id": "k-7", "text": "b"}, {"talk_id": null, "text": "c"}]`
	require.NoError(t, json.Unmarshal([]byte(body), &rows))

	assert.Equal(t, TalkID("42"), rows[0].TalkID)
	assert.Equal(t, TalkID("k-7"), rows[1].TalkID)
	assert.Equal(t, TalkID(""), rows[2].TalkID)

	var bad Sentence
	assert.Error(t, json.Unmarshal([]byte(`{"talk_id": true}`), &bad))
}

func TestSessionTransitions(t *testing.T) {
	s := NewSession("sid")
	assert.False(t, s.IsAuthenticated())

	s.CodeVerifier = "verifier"
	s.SignIn(&AuthSession{AccessToken: "at", RefreshToken: "rt", User: User{ID: "u1", Email: "a@b.co"}})
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "a@b.co", s.User.Email)
	assert.Empty(t, s.CodeVerifier)

	s.Readiness = &Readiness{Lexical: true}
	s.SignOut()
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.Readiness)
	assert.Empty(t, s.AccessToken)
}

func TestReadiness(t *testing.T) {
	var nilReadiness *Readiness
	assert.False(t, nilReadiness.Ready(CapabilityLexical))

	r := &Readiness{Lexical: true, Generation: true}
	assert.True(t, r.Ready(CapabilityLexical))
	assert.False(t, r.Ready(CapabilityVector))
	assert.True(t, r.Ready(CapabilityGeneration))
	assert.False(t, r.AllReady())
	assert.False(t, nilReadiness.AllReady())
	r.Vector = true
	assert.True(t, r.AllReady())

	assert.Equal(t, "keyword", CapabilityLexical.Panel())
	assert.Equal(t, "semantic", CapabilityVector.Panel())
	assert.Equal(t, "rag", CapabilityGeneration.Panel())
}

func TestTakeFlash(t *testing.T) {
	s := NewSession("sid")
	s.Flash = &FlashMessage{Text: "hi", Type: "success"}
	assert.Equal(t, "hi", s.TakeFlash().Text)
	assert.Nil(t, s.TakeFlash())
}
