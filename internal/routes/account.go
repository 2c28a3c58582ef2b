package routes

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mobile-bank/mobile_bank/internal/account"
	"github.com/mobile-bank/mobile_bank/internal/auth"
	"github.com/mobile-bank/mobile_bank/internal/teller"
)

const accountEventsHeartbeat = 15 * time.Second

// RegisterAccountRoutes wires the signed-in client's account view, its live
// event stream and the teller endpoints.
func RegisterAccountRoutes(r fiber.Router, sessions *auth.Service, h *teller.Handler, requireSession, idempotent fiber.Handler) {
	group := r.Group("/account", requireSession)
	group.Get("/", accountState)
	group.Get("/events", accountEvents(sessions))
	group.Get("/transactions", h.History)
	if idempotent != nil {
		group.Post("/deposit", idempotent, h.Deposit)
		group.Post("/withdraw", idempotent, h.Withdraw)
	} else {
		group.Post("/deposit", h.Deposit)
		group.Post("/withdraw", h.Withdraw)
	}
}

func accountState(c *fiber.Ctx) error {
	client := auth.ClientFrom(c)
	if client == nil {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return c.Status(http.StatusOK).JSON(client.Account.State())
}

// accountEvents streams the account snapshot as server-sent events: one
// event up front, then one after every change. The stream ends when the
// session ends or the client goes away.
func accountEvents(sessions *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client := auth.ClientFrom(c)
		if client == nil {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		changes, stop := client.Account.Watch()
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer stop()
			heartbeat := time.NewTicker(accountEventsHeartbeat)
			defer heartbeat.Stop()

			if err := writeAccountEvent(w, client.Account.State()); err != nil {
				return
			}
			for {
				select {
				case <-changes:
					if _, err := sessions.Lookup(client.ID); err != nil {
						fmt.Fprint(w, "event: end\ndata: {}\n\n")
						_ = w.Flush()
						return
					}
					if err := writeAccountEvent(w, client.Account.State()); err != nil {
						return
					}
				case <-heartbeat.C:
					if _, err := sessions.Lookup(client.ID); err != nil {
						return
					}
					if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				}
			}
		})
		return nil
	}
}

func writeAccountEvent(w *bufio.Writer, st account.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: account\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
