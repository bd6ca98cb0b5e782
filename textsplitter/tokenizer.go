package textsplitter

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// EncodingCL100kBase is the tokenizer encoding shared by the GPT-3.5/4
// generation of models, close enough for budgeting any provider's context
// window.
const EncodingCL100kBase = "cl100k_base"

// TokenCounter counts model tokens in a text.
type TokenCounter interface {
	CountTokens(text string) int
}

// TiktokenCounter counts tokens with a tiktoken BPE encoding.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter for the named encoding; empty
// selects cl100k_base. Loading the BPE tables may hit the network on
// first use.
func NewTiktokenCounter(encodingName string) (*TiktokenCounter, error) {
	if encodingName == "" {
		encodingName = EncodingCL100kBase
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}
	return &TiktokenCounter{encoding: enc}, nil
}

// CountTokens implements TokenCounter.
func (t *TiktokenCounter) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// HeuristicCounter estimates four characters per token. It backs token
// budgeting when the BPE tables cannot be loaded.
type HeuristicCounter struct{}

// CountTokens implements TokenCounter.
func (HeuristicCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return utf8.RuneCountInString(text)/4 + 1
}

var (
	defaultCounter     TokenCounter
	defaultCounterOnce sync.Once
)

// DefaultTokenCounter returns a shared cl100k_base counter, degrading to
// the character heuristic when the encoding cannot be loaded. Safe for
// concurrent use.
func DefaultTokenCounter() TokenCounter {
	defaultCounterOnce.Do(func() {
		counter, err := NewTiktokenCounter(EncodingCL100kBase)
		if err != nil {
			defaultCounter = HeuristicCounter{}
			return
		}
		defaultCounter = counter
	})
	return defaultCounter
}

var (
	_ TokenCounter = (*TiktokenCounter)(nil)
	_ TokenCounter = HeuristicCounter{}
)
