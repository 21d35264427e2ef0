package logging

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/coinagedev/coinage/common/keys"
)

func TestInjectAndGet(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := Inject(context.Background(), logger)

	if got := GetLoggerFromContext(ctx); got != logger {
		t.Error("GetLoggerFromContext did not return the injected logger")
	}
}

func TestGetLoggerFromContext_Empty_ReturnsDefault(t *testing.T) {
	if got := GetLoggerFromContext(context.Background()); got != slog.Default() {
		t.Error("empty context did not fall back to the default logger")
	}
}

func TestWithAttrs_AttachesToLaterLines(t *testing.T) {
	var buf bytes.Buffer
	ctx := Inject(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	ctx, logger := WithAttrs(ctx, slog.String("request_id", "abc123"))
	logger.Info("first")
	GetLoggerFromContext(ctx).Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "request_id=abc123") {
			t.Errorf("log line %q missing attached attribute", line)
		}
	}
}

func TestWithAttrs_AttachesAll(t *testing.T) {
	var buf bytes.Buffer
	ctx := Inject(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	_, logger := WithAttrs(ctx, slog.Int("a", 1), slog.Int("b", 2))
	logger.Info("line")

	out := buf.String()
	if !strings.Contains(out, "a=1") || !strings.Contains(out, "b=2") {
		t.Errorf("log line %q missing attached attributes", out)
	}
}

func TestWithAddress_StampsAddress(t *testing.T) {
	var buf bytes.Buffer
	ctx := Inject(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	addr := keys.MustGeneratePrivateKeyFromRand(rand.NewChaCha8([32]byte{7})).Public().Address()
	_, logger := WithAddress(ctx, addr)
	logger.Info("line")

	if !strings.Contains(buf.String(), addr.String()) {
		t.Errorf("log line %q missing address", buf.String())
	}
}
