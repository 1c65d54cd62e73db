package server

import (
	"log/slog"
	"net/http"

	"github.com/deep-rent/components/component"
	"github.com/deep-rent/components/internal/config"
)

// Register adds the components of the web application to c. The visit
// counter is backed by Postgres if a database DSN is configured, and by
// process memory otherwise.
func Register(c *component.Container, cfg *config.Config, logger *slog.Logger) *component.Container {
	component.Supply(c, logger)
	component.Supply(c, cfg)

	c.Register(NewRouter, component.As[http.Handler]())
	c.Register(NewHomePage, component.As[Page]())
	c.Register(NewAboutPage, component.As[Page]())
	c.Register(NewVisitsPage, component.As[Page]())

	if cfg.Database.DSN != "" {
		c.Register(OpenDB)
		c.Register(NewPostgresCounter, component.As[VisitCounter]())
	} else {
		c.Register(NewMemoryCounter, component.As[VisitCounter]())
	}

	return c.Register(NewServer)
}
