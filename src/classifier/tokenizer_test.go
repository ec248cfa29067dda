package classifier

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/raulisai/Gateway-IA/src/models"
)

func TestTokenEstimator_Empty(t *testing.T) {
	e := NewTokenEstimator(zap.NewNop())

	assert.Equal(t, 0, e.CountText("", "gpt-4o"))
	assert.Equal(t, 0, e.CountMessages(nil, ""))
}

func TestTokenEstimator_UnknownModelUsesDefault(t *testing.T) {
	e := NewTokenEstimator(zap.NewNop())
	text := "The quick brown fox jumps over the lazy dog."

	assert.Equal(t, e.CountText(text, ""), e.CountText(text, "some-unknown-model"))
	assert.Greater(t, e.CountText(text, ""), 0)
}

func TestTokenEstimator_MessageOverhead(t *testing.T) {
	e := NewTokenEstimator(zap.NewNop())
	msgs := []models.Message{{Role: models.RoleUser, Content: "hello"}}
	named := []models.Message{{Role: models.RoleUser, Content: "hello", Name: "bob"}}

	plain := e.CountMessages(msgs, "")
	assert.Equal(t, tokensPerMessage+e.CountText("user", "")+e.CountText("hello", "")+replyPriming, plain)
	assert.Equal(t, plain+e.CountText("bob", "")+tokensPerName, e.CountMessages(named, ""))
}

func TestEncodingFor(t *testing.T) {
	assert.Equal(t, omniEncoding, encodingFor("gpt-4o-mini"))
	assert.Equal(t, omniEncoding, encodingFor("o1-preview"))
	assert.Equal(t, defaultEncoding, encodingFor("gpt-3.5-turbo"))
	assert.Equal(t, defaultEncoding, encodingFor("claude-3-5-sonnet"))
	assert.Equal(t, defaultEncoding, encodingFor(""))
}

func TestApproximate(t *testing.T) {
	assert.Equal(t, 1, approximate("abcd"))
	assert.Equal(t, 2, approximate("abcde"))
	assert.Equal(t, 1, approximate("ñañ"))
}

func TestTokenEstimator_LoadsEmbeddedEncodings(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := NewTokenEstimator(zap.New(core))

	require.Contains(t, e.encodings, defaultEncoding)
	assert.Zero(t, logs.FilterMessage("tiktoken encoding unavailable").FilterField(zap.String("encoding", defaultEncoding)).Len())

	// Real BPE counts, not the rune approximation.
	assert.Equal(t, 2, e.CountText("hello world", ""))
	assert.Equal(t, 2, e.CountText("hello world", "gpt-4o-mini"))
	assert.NotEqual(t, approximate("The quick brown fox jumps over the lazy dog."), e.CountText("The quick brown fox jumps over the lazy dog.", ""))
	assert.Equal(t, 10, e.CountText("The quick brown fox jumps over the lazy dog.", ""))
}

func TestTokenEstimator_IdenticalAcrossInstances(t *testing.T) {
	text := strings.Repeat("func main() { fmt.Println(\"hi\") }\n", 50)
	a := NewTokenEstimator(zap.NewNop())
	b := NewTokenEstimator(zap.NewNop())

	assert.Equal(t, a.CountText(text, ""), b.CountText(text, ""))
	assert.Equal(t, a.CountText(text, "gpt-4o"), b.CountText(text, "gpt-4o"))
}

func TestTokenEstimator_Concurrent(t *testing.T) {
	e := NewTokenEstimator(zap.NewNop())
	want := e.CountText("Explain the trade-offs of microservices step by step.", "")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			model := ""
			if i%2 == 0 {
				model = "gpt-4o"
			}
			got := e.CountText("Explain the trade-offs of microservices step by step.", model)
			if model == "" {
				assert.Equal(t, want, got)
			}
		}(i)
	}
	wg.Wait()
}
