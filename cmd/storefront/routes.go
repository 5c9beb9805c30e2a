package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	etagcache "github.com/tranhuy105/KTPM-20242-sub001"
	"github.com/tranhuy105/KTPM-20242-sub001/catalog"
	"github.com/tranhuy105/KTPM-20242-sub001/pkg/fingerprint"
	serializer "github.com/tranhuy105/KTPM-20242-sub001/pkg/response-serializer"
	"github.com/tranhuy105/KTPM-20242-sub001/rfc9110"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type server struct {
	catalog       catalog.Catalog
	fingerprinter fingerprint.Fingerprinter
}

func newRouter(c catalog.Catalog, validator *etagcache.ETagCache, fp fingerprint.Fingerprinter, logger zerolog.Logger) http.Handler {
	s := &server{catalog: c, fingerprinter: fp}

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Sending response to client")
	}))
	r.Use(hlog.EtagHandler("etag"))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.GetHead)
	r.Use(validator.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
	r.Route("/admin/products", func(r chi.Router) {
		r.Post("/", s.createProduct)
		r.Put("/{id}", s.putProduct)
		r.Delete("/{id}", s.deleteProduct)
	})
	return r
}

func (s *server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, products)
}

func (s *server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, p)
}

func (s *server) createProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.decode(w, r)
	if !ok {
		return
	}
	p.ID = ""
	p, err := s.catalog.Put(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/products/"+p.ID)
	s.respond(w, r, http.StatusCreated, p)
}

// putProduct replaces a product. An If-Match header is checked against the
// ETag a read of the current product would carry, so that a client only
// overwrites the version it has seen. The check and the write are atomic.
func (s *server) putProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.decode(w, r)
	if !ok {
		return
	}
	p.ID = chi.URLParam(r, "id")
	var err error
	if cond := rfc9110.IfMatch(r.Header); cond != nil {
		p, err = s.catalog.PutIf(r.Context(), p, func(current catalog.Product, found bool) bool {
			// a missing product matches nothing, not even "*"
			if !found {
				return false
			}
			tag, ok := s.tag(current)
			return ok && rfc9110.IfMatchTrue(cond, tag)
		})
	} else {
		p, err = s.catalog.Put(r.Context(), p)
	}
	if errors.Is(err, catalog.ErrPreconditionFailed) {
		hlog.FromRequest(r).Debug().Str("id", chi.URLParam(r, "id")).Msg("Lost update prevented")
		w.WriteHeader(http.StatusPreconditionFailed)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, p)
}

func (s *server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tag is the strong entity tag of the product as GET /products/{id} renders
// it. It never matches a weak tag, so with weak tags configured every
// If-Match on PUT fails.
func (s *server) tag(p catalog.Product) (rfc9110.EntityTag, bool) {
	body, _, err := serializer.Marshal(p)
	if err != nil {
		return rfc9110.EntityTag{}, false
	}
	return rfc9110.EntityTag{Opaque: s.fingerprinter.Sum(body)}, true
}

func (s *server) decode(w http.ResponseWriter, r *http.Request) (catalog.Product, bool) {
	var p catalog.Product
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
		http.Error(w, "invalid product: "+err.Error(), http.StatusBadRequest)
		return p, false
	}
	if p.Name == "" {
		http.Error(w, "invalid product: name is required", http.StatusBadRequest)
		return p, false
	}
	return p, true
}

func (s *server) respond(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := etagcache.Respond(w, status, payload); err != nil {
		s.fail(w, r, err)
	}
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	hlog.FromRequest(r).Error().Err(err).Msg("Request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
