// Package respond renders router-level errors (404, 405, panics) as RFC 9457
// problem details, negotiated between JSON and CBOR.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	applog "github.com/janisto/admin-probe/internal/platform/logging"
)

const (
	msgNotFound       = "resource not found"
	msgInternalServer = "internal server error"

	contentTypeProblemJSON = "application/problem+json"
	contentTypeProblemCBOR = "application/problem+cbor"

	schemaLink = `</schemas/ErrorModel.json>; rel="describedBy"`
)

// NotFoundHandler emits a 404 problem.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applog.LogWarn(r.Context(), msgNotFound, zap.String("path", r.URL.Path))
		writeProblem(w, r, http.StatusNotFound, msgNotFound)
	}
}

// MethodNotAllowedHandler emits a 405 problem with an Allow header built from chi's routes.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
		}
		detail := fmt.Sprintf("method %s not allowed", r.Method)
		applog.LogWarn(r.Context(), "method not allowed", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		writeProblem(w, r, http.StatusMethodNotAllowed, detail)
	}
}

// Recoverer turns panics into 500 problems. http.ErrAbortHandler is re-panicked
// and nothing is written once the handler has started its response.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				applog.LogError(r.Context(), "panic recovered", err, zap.ByteString("stack", debug.Stack()))
				if rw.wroteHeader {
					return
				}
				writeProblem(rw, r, http.StatusInternalServerError, msgInternalServer)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	problem := &huma.ErrorModel{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
	var (
		body []byte
		err  error
	)
	ct := contentTypeProblemJSON
	if acceptsCBOR(r.Header.Get("Accept")) {
		ct = contentTypeProblemCBOR
		body, err = cbor.Marshal(problem)
	} else {
		body, err = json.Marshal(problem)
	}
	if err != nil {
		applog.LogError(r.Context(), "failed to encode problem", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Link", schemaLink)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		applog.LogError(r.Context(), "failed to write problem", err)
	}
}

type mediaRange struct {
	q           float64
	specificity int
}

// acceptsCBOR ranks CBOR against JSON by q-value, then by specificity
// (problem+ types beat base types). Ties and wildcards resolve to JSON.
func acceptsCBOR(accept string) bool {
	if accept == "" {
		return false
	}
	var bestCBOR, bestJSON *mediaRange
	for part := range strings.SplitSeq(accept, ",") {
		fields := strings.Split(part, ";")
		mt := strings.ToLower(strings.TrimSpace(fields[0]))
		q := 1.0
		for _, p := range fields[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || strings.TrimSpace(k) != "q" {
				continue
			}
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				q = parsed
			}
		}
		if q <= 0 {
			continue
		}
		var target **mediaRange
		rank := 1
		switch mt {
		case "application/cbor":
			target = &bestCBOR
		case "application/problem+cbor":
			target, rank = &bestCBOR, 2
		case "application/json":
			target = &bestJSON
		case "application/problem+json":
			target, rank = &bestJSON, 2
		default:
			continue
		}
		if cur := *target; cur == nil || q > cur.q || (q == cur.q && rank > cur.specificity) {
			*target = &mediaRange{q: q, specificity: rank}
		}
	}
	switch {
	case bestCBOR == nil:
		return false
	case bestJSON == nil:
		return true
	case bestCBOR.q != bestJSON.q:
		return bestCBOR.q > bestJSON.q
	default:
		return bestCBOR.specificity > bestJSON.specificity
	}
}

// allowedMethods probes chi's routing tree for methods registered on the path.
func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}
	routePath := rctx.RoutePath
	if routePath == "" {
		routePath = r.URL.RawPath
		if routePath == "" {
			routePath = r.URL.Path
		}
		if routePath == "" {
			routePath = "/"
		}
	}
	methods := []string{
		http.MethodGet,
		http.MethodHead,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	}
	allowed := make([]string, 0, len(methods))
	for _, method := range methods {
		if rctx.Routes.Match(chi.NewRouteContext(), method, routePath) {
			allowed = append(allowed, method)
		}
	}
	return allowed
}

type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
