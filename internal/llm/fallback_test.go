package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"notebook-ai/internal/llm"
	"notebook-ai/internal/llm/mocks"
)

const longAnswer = "A sufficiently long generated answer that clears the minimum length check."

func TestFallback_FirstTierWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := mocks.NewMockGenerator(ctrl)
	first.EXPECT().Generate(gomock.Any(), "sys", "user", llm.FormatText).Return(longAnswer, nil)
	first.EXPECT().Name().Return("first").AnyTimes()
	second := mocks.NewMockGenerator(ctrl)
	second.EXPECT().Name().Return("second").AnyTimes()

	chain := llm.NewFallback(30, first, second)
	out, origin, err := chain.GenerateWithOrigin(context.Background(), "sys", "user", llm.FormatText)
	if err != nil {
		t.Fatalf("GenerateWithOrigin() error = %v", err)
	}
	if out != longAnswer {
		t.Errorf("out = %q, want the first tier's answer", out)
	}
	if origin != "first" {
		t.Errorf("origin = %q, want first", origin)
	}
}

func TestFallback_AdvancesOnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := mocks.NewMockGenerator(ctrl)
	first.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("credentials missing"))
	first.EXPECT().Name().Return("first").AnyTimes()
	second := mocks.NewMockGenerator(ctrl)
	second.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(longAnswer, nil)
	second.EXPECT().Name().Return("second").AnyTimes()

	chain := llm.NewFallback(30, first, second)
	out, origin, err := chain.GenerateWithOrigin(context.Background(), "sys", "user", llm.FormatText)
	if err != nil {
		t.Fatalf("GenerateWithOrigin() error = %v", err)
	}
	if out != longAnswer || origin != "second" {
		t.Errorf("got (%q, %q), want the second tier's answer", out, origin)
	}
}

func TestFallback_AdvancesOnShortOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := mocks.NewMockGenerator(ctrl)
	first.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("   ok   ", nil)
	first.EXPECT().Name().Return("first").AnyTimes()
	second := mocks.NewMockGenerator(ctrl)
	second.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(longAnswer, nil)
	second.EXPECT().Name().Return("second").AnyTimes()

	chain := llm.NewFallback(30, first, second)
	_, origin, err := chain.GenerateWithOrigin(context.Background(), "sys", "user", llm.FormatText)
	if err != nil {
		t.Fatalf("GenerateWithOrigin() error = %v", err)
	}
	if origin != "second" {
		t.Errorf("origin = %q, want second after short first output", origin)
	}
}

func TestFallback_LastTierKeepsShortOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	only := mocks.NewMockGenerator(ctrl)
	only.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("ok", nil)
	only.EXPECT().Name().Return("only").AnyTimes()

	chain := llm.NewFallback(30, only)
	out, origin, err := chain.GenerateWithOrigin(context.Background(), "sys", "user", llm.FormatText)
	if err != nil {
		t.Fatalf("GenerateWithOrigin() error = %v", err)
	}
	if out != "ok" || origin != "only" {
		t.Errorf("last tier output must be kept even when short, got (%q, %q)", out, origin)
	}
}

func TestFallback_AllTiersFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := mocks.NewMockGenerator(ctrl)
	first.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("down"))
	first.EXPECT().Name().Return("first").AnyTimes()

	chain := llm.NewFallback(30, first)
	if _, _, err := chain.GenerateWithOrigin(context.Background(), "sys", "user", llm.FormatText); err == nil {
		t.Fatal("expected error when every tier fails")
	}
}

func TestFallback_LocalTierNeverFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockGenerator(ctrl)
	remote.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("down"))
	remote.EXPECT().Name().Return("remote").AnyTimes()

	chain := llm.NewFallback(30, remote, llm.LocalGenerator{})
	out, origin, err := chain.GenerateWithOrigin(context.Background(), "", "Cats purr when they are content. Cats sleep most of the day.", llm.FormatText)
	if err != nil {
		t.Fatalf("GenerateWithOrigin() error = %v", err)
	}
	if origin != (llm.LocalGenerator{}).Name() {
		t.Errorf("origin = %q, want the local tier", origin)
	}
	if !strings.Contains(out, "Cats purr") {
		t.Errorf("local output should be extractive, got %q", out)
	}
}

func TestFallback_Name(t *testing.T) {
	chain := llm.NewFallback(30, llm.LocalGenerator{})
	if got := chain.Name(); got != "fallback(local-extractive)" {
		t.Errorf("Name() = %q", got)
	}
}
