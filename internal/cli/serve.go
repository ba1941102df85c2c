package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/observability"
	"github.com/mhalstead/rigmeta/pkg/render"
	"github.com/mhalstead/rigmeta/pkg/scene"
	"github.com/mhalstead/rigmeta/pkg/sceneio"
)

// serveCommand creates the serve command, which exposes a read-only HTTP
// API over a scene document:
//
//	GET /api/scene        full document (compacted JSON)
//	GET /api/nodes/{name} one node's record
//	GET /api/graph.svg    rendered metadata graph
func (c *CLI) serveCommand() *cobra.Command {
	var typePaths []string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve a read-only HTTP API for a scene document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc, _, result, err := importDocument(ctx, args[0], typePaths)
			if err != nil {
				return err
			}
			if err := reportImport(result, false); err != nil {
				return err
			}
			return runServer(ctx, sc, addr)
		},
	}

	cmd.Flags().StringSliceVarP(&typePaths, "types", "t", nil, "type manifest files or directories (also reads RIGMETA_TYPE_PATHS)")
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	return cmd
}

// runServer blocks until ctx is cancelled, then shuts the server down.
func runServer(ctx context.Context, sc *scene.Scene, addr string) error {
	logger := loggerFromContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: newRouter(sc),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Serving on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newRouter builds the chi router for the read-only API.
func newRouter(sc *scene.Scene) http.Handler {
	r := chi.NewRouter()
	r.Use(hookMiddleware)

	r.Get("/api/scene", func(w http.ResponseWriter, req *http.Request) {
		rec := sceneio.Export(sc, sceneio.ExportOptions{})
		writeJSON(w, http.StatusOK, rec)
	})

	r.Get("/api/nodes/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		rec := sceneio.Export(sc, sceneio.ExportOptions{})
		for _, n := range rec.Nodes {
			if n.Name == name {
				writeJSON(w, http.StatusOK, n)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "node not found: " + name})
	})

	r.Get("/api/graph.svg", func(w http.ResponseWriter, req *http.Request) {
		detailed := req.URL.Query().Get("detailed") == "true"
		dot := render.ToDOT(sc, render.Options{Detailed: detailed, IncludePlain: true})
		svg, _, err := renderCachedSVG(req.Context(), dot, false)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(svg)
	})

	r.Get("/api/nodes/{name}/value/{attr}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		attrName := chi.URLParam(req, "attr")
		n, ok := sc.Node(name)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "node not found: " + name})
			return
		}
		s, ok := n.Attribute(attrName)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "attribute not found: " + attrName})
			return
		}
		v, err := s.Value()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"node":      name,
			"attribute": attrName,
			"kind":      s.Kind().String(),
			"value":     v,
			"display":   attr.FormatValue(v),
		})
	})

	return r
}

// hookMiddleware reports requests and responses through the HTTP hooks.
func hookMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(req.Context(), req.Method, req.URL.Path)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)

		observability.HTTP().OnResponse(req.Context(), req.Method, req.URL.Path, sw.status, time.Since(start))
	})
}

// statusWriter captures the response status for the hooks.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
