// Package moderation asks the oracle whether a chat message is safe for a
// general community room. It fails open: any error yields a safe verdict.
package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/zhouzirui/vyne/backend/internal/logging"
	"github.com/zhouzirui/vyne/backend/internal/oracle"
	"github.com/zhouzirui/vyne/backend/internal/oracle/gemini"
)

// DefaultReason is used when the oracle flags a message without saying why.
const DefaultReason = "flagged by moderation"

// Verdict is the moderation outcome for one message.
type Verdict struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason,omitempty"`
}

// Safe is the fail-open verdict.
var Safe = Verdict{Safe: true}

// Checker is what the chat pipeline depends on.
type Checker interface {
	Check(ctx context.Context, text string) Verdict
}

// Config controls the moderation service.
type Config struct {
	Enabled bool
}

// Service runs the moderation chain.
type Service struct {
	enabled bool
	chain   compose.Runnable[map[string]any, *schema.Message]
	log     zerolog.Logger
}

// NewService compiles the moderation chain. A nil chatModel or a disabled
// config produces a service that approves everything.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config, logger zerolog.Logger) (*Service, error) {
	svc := &Service{
		enabled: cfg.Enabled && chatModel != nil,
		log:     logger.With().Str(logging.FieldComponent, "moderation").Logger(),
	}
	if !svc.enabled {
		return svc, nil
	}

	tmpl := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tmpl)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile moderation chain: %w", err)
	}
	svc.chain = runnable
	return svc, nil
}

// Enabled reports whether messages are actually sent to the oracle.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.chain != nil
}

// Check returns the verdict for text, failing open on any oracle failure.
func (s *Service) Check(ctx context.Context, text string) Verdict {
	res := s.Query(ctx, text)
	return res.Or(func(kind oracle.FailureKind, err error) Verdict {
		if !errors.Is(err, oracle.ErrUnavailable) {
			s.log.Warn().Err(err).Str(logging.FieldFailure, string(kind)).Msg("moderation failed open")
		}
		return Safe
	})
}

// Query performs a single oracle attempt and reports the raw outcome.
func (s *Service) Query(ctx context.Context, text string) oracle.Result[Verdict] {
	if !s.Enabled() {
		return oracle.Err[Verdict](oracle.FailureTransport, oracle.ErrUnavailable)
	}

	msg, err := s.chain.Invoke(ctx, map[string]any{"message": text},
		compose.WithChatModelOption(gemini.WithResponseSchema(responseSchema)))
	if err != nil {
		return oracle.Err[Verdict](oracle.FailureTransport, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return oracle.Err[Verdict](oracle.FailureParse, errors.New("empty moderation response"))
	}

	verdict, err := parseVerdict(msg.Content)
	if err != nil {
		return oracle.Err[Verdict](oracle.FailureParse, err)
	}
	return oracle.Ok(verdict)
}

type verdictPayload struct {
	Safe   *bool  `json:"safe"`
	Reason string `json:"reason"`
}

func parseVerdict(content string) (Verdict, error) {
	raw, err := oracle.ExtractJSON(content, '{', '}')
	if err != nil {
		return Verdict{}, err
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Verdict{}, fmt.Errorf("decode moderation verdict: %w", err)
	}
	if payload.Safe == nil {
		return Verdict{}, errors.New("moderation verdict missing safe flag")
	}

	if *payload.Safe {
		return Safe, nil
	}
	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		reason = DefaultReason
	}
	return Verdict{Safe: false, Reason: reason}, nil
}

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"safe":   {Type: genai.TypeBoolean},
		"reason": {Type: genai.TypeString},
	},
	Required: []string{"safe"},
}

const systemPrompt = "You moderate messages for VYNE, a social chat app. Decide whether the message is safe for a general community chat room. " +
	"Answer with a single JSON object with the fields safe (boolean) and reason (short string explaining why an unsafe message was flagged). Output nothing else."

const userPrompt = "Message: \"{message}\""
