package classifier

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"go.uber.org/zap"

	"github.com/raulisai/Gateway-IA/src/models"
)

const (
	defaultEncoding = "cl100k_base"
	omniEncoding    = "o200k_base"

	tokensPerMessage = 3
	tokensPerName    = 1
	replyPriming     = 3
)

// TokenEstimator counts tokens with tiktoken encodings. Encodings are
// read from the BPE files embedded in the binary and loaded once at
// construction, so counting never touches the network or a lock. An encoding
// that fails to load falls back to cl100k_base, and when that is missing too
// to a four-characters-per-token approximation.
type TokenEstimator struct {
	encodings map[string]*tiktoken.Tiktoken
	logger    *zap.Logger
}

var registerLoader sync.Once

func NewTokenEstimator(logger *zap.Logger) *TokenEstimator {
	registerLoader.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	e := &TokenEstimator{
		encodings: make(map[string]*tiktoken.Tiktoken, 2),
		logger:    logger,
	}
	for _, name := range []string{defaultEncoding, omniEncoding} {
		enc, err := tiktoken.GetEncoding(name)
		if err != nil {
			logger.Warn("tiktoken encoding unavailable",
				zap.String("encoding", name), zap.Error(err))
			continue
		}
		e.encodings[name] = enc
	}
	return e
}

func encodingFor(model string) string {
	m := strings.ToLower(model)
	for _, prefix := range []string{"gpt-4o", "gpt-4.1", "o1", "o3", "o4"} {
		if strings.HasPrefix(m, prefix) {
			return omniEncoding
		}
	}
	return defaultEncoding
}

// encoding is a read of a map that is never written after construction.
func (e *TokenEstimator) encoding(model string) *tiktoken.Tiktoken {
	if enc, ok := e.encodings[encodingFor(model)]; ok {
		return enc
	}
	return e.encodings[defaultEncoding]
}

// CountText returns the token count of text for the given model. Unknown
// or empty model ids use the default encoding.
func (e *TokenEstimator) CountText(text, model string) int {
	if text == "" {
		return 0
	}
	if enc := e.encoding(model); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return approximate(text)
}

// CountMessages applies the chat accounting used by OpenAI: a fixed
// overhead per message and per name, plus priming for the reply.
func (e *TokenEstimator) CountMessages(messages []models.Message, model string) int {
	if len(messages) == 0 {
		return 0
	}

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage
		total += e.CountText(msg.Role, model)
		total += e.CountText(msg.Content, model)
		if msg.Name != "" {
			total += e.CountText(msg.Name, model) + tokensPerName
		}
	}
	return total + replyPriming
}

func approximate(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}
