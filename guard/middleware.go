package guard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authclient/claims"
	"github.com/kbukum/authclient/errors"
	"github.com/kbukum/authclient/logger"
	"github.com/kbukum/authclient/tokenstore"
)

// ContextKeyStore is the gin context key of the request-scoped token store.
const ContextKeyStore = "authclient.token_store"

// StoreFrom returns the token store the middleware attached to c.
func StoreFrom(c *gin.Context) (tokenstore.Store, bool) {
	v, ok := c.Get(ContextKeyStore)
	if !ok {
		return nil, false
	}
	s, ok := v.(tokenstore.Store)
	return s, ok
}

// Middleware guards gin routes. Handlers report failures with c.Error; a
// credential error clears the session cookies and redirects to sign in,
// while any other error unanswered by the handler is rendered as JSON.
//
// A handler may report a credential error and then write its own response;
// the cookies are expired before the first byte goes out. Reporting one
// after writing is too late to touch the cookies, so handlers must call
// c.Error before they write.
func (g *Guard) Middleware(req claims.Requirements) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := g.CookieStore(c.Writer, c.Request)
		ctx := c.Request.Context()

		decision, cl := g.evaluate(ctx, store, req)
		if decision != Proceed {
			c.Redirect(http.StatusFound, g.RedirectFor(decision).Destination)
			c.Abort()
			return
		}

		sw := &sessionWriter{ResponseWriter: c.Writer}
		sw.beforeWrite = func() {
			if err := credentialError(c.Errors); err != nil {
				sw.invalidated = true
				g.invalidate(ctx, store, err)
			}
		}
		c.Writer = sw
		c.Request = c.Request.WithContext(claims.NewContext(ctx, cl))
		c.Set(ContextKeyStore, tokenstore.Store(store))
		c.Next()
		sw.checked = true

		if err := credentialError(c.Errors); err != nil {
			log := g.log.WithContext(ctx)
			switch {
			case sw.invalidated:
			case c.Writer.Written():
				log.Warn("credential error reported after the response was written, session cookies kept",
					logger.ErrorFields("view", err))
				g.invalidate(ctx, store, err)
			default:
				log.Info("credential rejected during view, signing out", logger.ErrorFields("view", err))
				g.invalidate(ctx, store, err)
				c.Redirect(http.StatusFound, g.cfg.SignInPath)
			}
			return
		}

		if c.Writer.Written() {
			return
		}
		if last := c.Errors.Last(); last != nil {
			appErr, ok := errors.AsAppError(last.Err)
			if !ok {
				appErr = errors.Internal(last.Err)
			}
			c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		}
	}
}

func credentialError(errs []*gin.Error) error {
	for _, e := range errs {
		if errors.IsCredentialError(e.Err) {
			return e.Err
		}
	}
	return nil
}

// sessionWriter runs beforeWrite once, just before the response headers
// are sent.
type sessionWriter struct {
	gin.ResponseWriter
	beforeWrite func()
	checked     bool
	invalidated bool
}

func (w *sessionWriter) check() {
	if w.checked || w.ResponseWriter.Written() {
		return
	}
	w.checked = true
	w.beforeWrite()
}

func (w *sessionWriter) WriteHeaderNow() {
	w.check()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionWriter) Write(data []byte) (int, error) {
	w.check()
	return w.ResponseWriter.Write(data)
}

func (w *sessionWriter) WriteString(s string) (int, error) {
	w.check()
	return w.ResponseWriter.WriteString(s)
}

func (w *sessionWriter) Flush() {
	w.check()
	w.ResponseWriter.Flush()
}
