package httpapi

import (
	"context"
	"log"
	"net/http"

	"askyaguy/internal/services"

	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"
)

// Server exposes the question, auth and health services over HTTP
type Server struct {
	questions *services.QuestionService
	auth      *services.AuthService
	health    *services.HealthService

	mux     goahttp.Muxer
	routes  []string
	decoder func(*http.Request) goahttp.Decoder
	encoder func(context.Context, http.ResponseWriter) goahttp.Encoder
}

// handlerFunc is an endpoint body; a returned error is rendered as an error response
type handlerFunc func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// New creates the server and mounts every route on a fresh goa muxer
func New(questions *services.QuestionService, auth *services.AuthService, health *services.HealthService) *Server {
	s := &Server{
		questions: questions,
		auth:      auth,
		health:    health,
		mux:       goahttp.NewMuxer(),
		decoder:   goahttp.RequestDecoder,
		encoder:   goahttp.ResponseEncoder,
	}
	s.Mount()
	return s
}

// Mount registers the routes. They are the HTTP endpoints declared in
// api/design; TestRoutesMatchDesign keeps the two in step.
func (s *Server) Mount() {
	log.Println("Mounting HTTP handlers...")

	s.handle("GET", "/health", public, s.healthCheck)

	s.handle("POST", "/api/auth/register", public, s.register)
	s.handle("POST", "/api/auth/login", public, s.login)
	s.handle("GET", "/api/auth/me", required, s.me)

	s.handle("POST", "/api/questions", optional, s.createQuestion)
	s.handle("GET", "/api/questions", admin, s.adminListAll)
	s.handle("POST", "/api/questions/confirm-payment", public, s.confirmPayment)
	s.handle("GET", "/api/questions/my-questions", required, s.listMine)
	s.handle("GET", "/api/questions/admin/stats", admin, s.adminStats)
	s.handle("GET", "/api/questions/{id}", optional, s.getQuestion)
	s.handle("POST", "/api/questions/{id}/payment-session", public, s.renewPaymentSession)
	s.handle("POST", "/api/questions/{id}/attachments", required, s.addAttachment)
	s.handle("PATCH", "/api/questions/{id}/status", admin, s.adminSetStatus)
	s.handle("POST", "/api/questions/{id}/publish-answer", admin, s.adminPublishAnswer)

	s.handle("POST", "/api/webhooks/stripe", public, s.stripeWebhook)

	log.Printf("Mounted %d routes", len(s.routes))
}

// Routes lists the mounted endpoints as "METHOD /path"
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

// Handler returns the muxer wrapped with the goa request middleware
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = middleware.PopulateRequestContext()(h)
	h = middleware.RequestID()(h)
	return h
}

func (s *Server) handle(method, path string, level access, fn handlerFunc) {
	s.routes = append(s.routes, method+" "+path)
	s.mux.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		ctx, err := s.authenticate(r, level)
		if err != nil {
			s.writeError(r.Context(), w, err)
			return
		}
		r = r.WithContext(ctx)
		if err := fn(ctx, w, r); err != nil {
			s.writeError(ctx, w, err)
		}
	})
}

// respond writes v as the JSON body. Headers are already sent when encoding
// fails, so the failure is only logged.
func (s *Server) respond(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := s.encoder(ctx, w).Encode(v); err != nil {
		log.Printf("[ERROR] failed to encode response: %v", err)
	}
}

func (s *Server) pathID(r *http.Request) string {
	return s.mux.Vars(r)["id"]
}
