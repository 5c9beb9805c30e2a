package etagcache

import (
	"net/http"
	"slices"
	"strings"

	"github.com/tranhuy105/KTPM-20242-sub001/pkg/fingerprint"
	tee "github.com/tranhuy105/KTPM-20242-sub001/pkg/response-writer-tee"
	"github.com/tranhuy105/KTPM-20242-sub001/rfc9110"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// DefaultMaxBodySize is the largest body held back for fingerprinting
// when Config.MaxBodySize is zero.
const DefaultMaxBodySize = 8 << 20

type Config struct {
	// Logger to use. A console logger is used if nil.
	// Requests that carry an hlog logger are logged through that instead.
	Logger *zerolog.Logger
	// Fingerprinter computes tag values. Overrides Algorithm and TagLength.
	Fingerprinter fingerprint.Fingerprinter
	// Hash function for tag values, sha256 if empty.
	Algorithm fingerprint.Algorithm
	// Number of hex characters in a tag value, the algorithm default if 0.
	TagLength int
	// Methods that get a tag. GET and HEAD if empty.
	// Conditions are only evaluated for GET and HEAD.
	Methods []string
	// Largest body held back for fingerprinting; larger bodies go out
	// untagged. DefaultMaxBodySize if 0, unlimited if negative.
	MaxBodySize int
	// Per-route exclusions and Cache-Control defaults.
	Rules Rules
	// Generate weak tags (W/"...").
	Weak bool
	// Answer 412 to GET and HEAD requests whose If-Match does not match.
	EnforceIfMatch bool
	// Pass every request through untouched.
	Disabled bool
}

type ETagCache struct {
	log            zerolog.Logger
	fingerprinter  fingerprint.Fingerprinter
	methods        []string
	maxBodySize    int
	rules          Rules
	weak           bool
	enforceIfMatch bool
	disabled       bool
}

// New creates the middleware from config. The zero Config is usable.
func New(config Config) *ETagCache {
	// use console logger if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}
	logger = logger.With().Str("component", "etag").Logger()

	c := &ETagCache{
		log:            logger,
		fingerprinter:  config.Fingerprinter,
		methods:        config.Methods,
		maxBodySize:    config.MaxBodySize,
		rules:          config.Rules,
		weak:           config.Weak,
		enforceIfMatch: config.EnforceIfMatch,
		disabled:       config.Disabled,
	}
	if c.fingerprinter == nil {
		h, err := fingerprint.New(config.Algorithm, config.TagLength)
		if err != nil {
			logger.Warn().Err(err).Msg("Falling back to sha256")
			h = fingerprint.Default()
		}
		c.fingerprinter = h
	}
	if len(c.methods) == 0 {
		c.methods = []string{http.MethodGet, http.MethodHead}
	}
	if c.maxBodySize == 0 {
		c.maxBodySize = DefaultMaxBodySize
	} else if c.maxBodySize < 0 {
		c.maxBodySize = 0
	}
	return c
}

// Middleware wraps next so that its responses carry an ETag and conditional
// requests are answered with 304 Not Modified when the tag still matches.
func (c *ETagCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := c.skip(r); reason != "" {
			c.logger(r).Trace().Str("reason", reason).Msg("Not validating request")
			responsesTotal.WithLabelValues(outcomeBypass).Inc()
			next.ServeHTTP(w, r)
			return
		}
		rule := c.rules.find(r, c.logger(r))
		if rule != nil && rule.Disable {
			c.logger(r).Trace().Msg("Route excluded by rule")
			responsesTotal.WithLabelValues(outcomeBypass).Inc()
			next.ServeHTTP(w, r)
			return
		}
		rs := tee.NewResponseSaver(w, c.maxBodySize)
		// a panicking handler never reaches finalize and nothing is sent
		next.ServeHTTP(rs, r)
		c.finalize(rs, r, rule)
	})
}

func (c *ETagCache) skip(r *http.Request) string {
	switch {
	case c.disabled:
		return "disabled"
	case r.Header.Get("Sec-WebSocket-Key") != "" || r.Header.Get("Upgrade") != "":
		return "upgrade"
	case !slices.Contains(c.methods, r.Method):
		return "method"
	}
	return ""
}

// finalize decides what to send for a response the handler has completed:
// the response itself with a tag, 304, 412, or the response untouched.
func (c *ETagCache) finalize(rs *tee.ResponseSaver, r *http.Request, rule *Rule) {
	log := c.logger(r)
	generated := false
	defer func() {
		if err := rs.Close(); err != nil {
			log.Error().Err(err).Msg("Could not close response")
		}
	}()
	defer c.recover(rs, r, &generated)

	if rs.Bypassed() {
		log.Trace().Msg("Response streamed, not tagged")
		responsesTotal.WithLabelValues(outcomeBypass).Inc()
		return
	}

	status := rs.StatusCode()
	header := rs.Header()
	if !taggable(status) {
		log.Trace().Int("status", status).Msg("Status not tagged")
		responsesTotal.WithLabelValues(outcomeBypass).Inc()
		c.send(rs)
		return
	}
	if rule != nil {
		rule.apply(header, status, log)
	}

	current, ok := c.handlerTag(header)
	if !ok {
		body := rs.Body()
		current = rfc9110.EntityTag{
			Opaque: c.fingerprinter.Sum(body),
			Weak:   c.weak,
		}
		header.Set("ETag", current.String())
		generated = true
		hashedBytesTotal.Add(float64(len(body)))
	}
	if err := rs.MarkHashed(); err != nil {
		panic(err)
	}
	log.Trace().Str("etag", current.String()).Bool("generated", generated).Msg("Response tagged")

	// conditions only apply to a 2xx; a redirect is sent as is
	outcome := rfc9110.Proceed
	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && status >= 200 && status < 300 {
		preconditions := rfc9110.ParsePreconditions(r.Header)
		if preconditions.IfNoneMatch == nil && !rfc9110.FieldAbsent(r.Header, "If-None-Match") {
			log.Debug().Strs("if-none-match", r.Header.Values("If-None-Match")).Msg("Ignoring malformed If-None-Match")
		}
		if preconditions.Present() {
			outcome = preconditions.Evaluate(r.Method, current, c.enforceIfMatch)
			log.Trace().Stringer("outcome", outcome).Msg("Preconditions evaluated")
		}
	}
	switch outcome {
	case rfc9110.NotModified:
		rfc9110.StripContentFields(header)
		if err := rs.ShortCircuit(outcome.StatusCode()); err != nil {
			panic(err)
		}
		log.Debug().Str("url", r.URL.String()).Str("etag", current.String()).Msg("Not modified")
		responsesTotal.WithLabelValues(outcomeNotModified).Inc()
	case rfc9110.PreconditionFailed:
		rfc9110.StripContentFields(header)
		if generated {
			header.Del("ETag")
		}
		if err := rs.ShortCircuit(outcome.StatusCode()); err != nil {
			panic(err)
		}
		log.Debug().Str("url", r.URL.String()).Str("etag", current.String()).Msg("Precondition failed")
		responsesTotal.WithLabelValues(outcomePreconditionFailed).Inc()
	default:
		c.send(rs)
		responsesTotal.WithLabelValues(outcomeTagged).Inc()
	}
}

// handlerTag returns the tag the handler set itself, if it set a valid one.
func (c *ETagCache) handlerTag(header http.Header) (rfc9110.EntityTag, bool) {
	value := header.Get("ETag")
	if value == "" {
		return rfc9110.EntityTag{}, false
	}
	tag, ok := rfc9110.ParseEntityTag(value)
	// a bare token is not a valid ETag field value
	if !ok || !strings.HasSuffix(value, `"`) {
		return rfc9110.EntityTag{}, false
	}
	return tag, true
}

func (c *ETagCache) send(rs *tee.ResponseSaver) {
	if _, err := rs.Send(); err != nil {
		c.log.Debug().Err(err).Msg("Could not write response to client")
	}
}

// recover recovers from panics in finalize and sends the original response
// through the escape hatch.
func (c *ETagCache) recover(rs *tee.ResponseSaver, r *http.Request, generated *bool) {
	if err := recover(); err != nil {
		c.logger(r).WithLevel(zerolog.PanicLevel).Interface("error", err).Msg("Panic in etag handler")
		c.escapeHatch(rs, *generated)
	}
}

// escapeHatch sends the response as the handler produced it, without a tag.
func (c *ETagCache) escapeHatch(rs *tee.ResponseSaver, generated bool) {
	responsesTotal.WithLabelValues(outcomeFailOpen).Inc()
	switch rs.State() {
	case tee.Pending, tee.Hashed:
		if generated {
			rs.Header().Del("ETag")
		}
		c.send(rs)
	}
}

// taggable reports whether a response with the status gets a tag.
// Error responses never do, and neither do responses without content.
func taggable(status int) bool {
	if status < 200 || status >= 400 {
		return false
	}
	switch status {
	case http.StatusNoContent, http.StatusPartialContent, http.StatusNotModified:
		return false
	}
	return true
}

// logger returns the request logger installed by hlog, if any.
func (c *ETagCache) logger(r *http.Request) *zerolog.Logger {
	if l := hlog.FromRequest(r); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &c.log
}
