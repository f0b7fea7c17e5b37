package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/gainvault/gainvault/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))

	var calls int
	app.Post("/deposits", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"calls": calls})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return app, cleanup
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	req := httptest.NewRequest(fiber.MethodPost, "/deposits", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	send := func() (int, string) {
		req := httptest.NewRequest(fiber.MethodPost, "/deposits", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(idempotencyKeyHeader, "dep-42")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode, string(body)
	}

	status1, body1 := send()
	if status1 != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, status1)
	}

	status2, body2 := send()
	if status2 != fiber.StatusCreated {
		t.Fatalf("expected replayed %d got %d", fiber.StatusCreated, status2)
	}
	if body1 != body2 {
		t.Fatalf("handler ran twice: %s vs %s", body1, body2)
	}
}

func TestIdempotencyIgnoresReads(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	app.Get("/balance", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/balance", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("GET must bypass idempotency, got %d", resp.StatusCode)
	}
}
