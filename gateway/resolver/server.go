package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/miekg/dns"

	"namechain/crypto"
	"namechain/native/registry"
	"namechain/native/router"
	"namechain/observability/metrics"
)

const maxTXTChunk = 255

// Handler answers TXT queries for registered names. Each name yields an
// "address=<bech32>" string followed by one "key=value" string per record.
type Handler struct {
	backend Backend
	ttl     uint32
	logger  *slog.Logger
}

func NewHandler(backend Backend, ttl time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Handler{backend: backend, ttl: uint32(ttl / time.Second), logger: logger.With("component", "dns")}
}

func (h *Handler) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	msg := &dns.Msg{}
	msg.SetReply(r)
	msg.Authoritative = true

	if len(r.Question) == 0 {
		msg.Rcode = dns.RcodeFormatError
		h.write(w, msg, 0)
		return
	}
	question := r.Question[0]
	switch question.Qtype {
	case dns.TypeTXT, dns.TypeANY:
		h.answer(msg, question)
	default:
		// Known names answer NODATA for other types.
		if _, err := h.backend.Resolve(strings.ToLower(question.Name)); err != nil {
			msg.Rcode = rcodeFor(err)
		}
	}
	h.write(w, msg, question.Qtype)
}

func (h *Handler) answer(msg *dns.Msg, question dns.Question) {
	domain := strings.ToLower(question.Name)
	addr, err := h.backend.Resolve(domain)
	if err != nil {
		msg.Rcode = rcodeFor(err)
		if msg.Rcode == dns.RcodeServerFailure {
			h.logger.Error("dns resolve failed", slog.String("domain", domain), slog.Any("error", err))
		}
		return
	}
	records, err := h.backend.Records(domain)
	if err != nil {
		h.logger.Error("dns records lookup failed", slog.String("domain", domain), slog.Any("error", err))
		msg.Rcode = dns.RcodeServerFailure
		return
	}
	hdr := dns.RR_Header{Name: dns.Fqdn(domain), Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: h.ttl}
	msg.Answer = append(msg.Answer, &dns.TXT{Hdr: hdr, Txt: chunk("address=" + crypto.FromRaw(addr).String())})
	for _, record := range records {
		msg.Answer = append(msg.Answer, &dns.TXT{Hdr: hdr, Txt: chunk(record.Key + "=" + record.Value)})
	}
}

func (h *Handler) write(w dns.ResponseWriter, msg *dns.Msg, qtype uint16) {
	metrics.DNS().RecordQuery(qtype, msg.Rcode)
	if err := w.WriteMsg(msg); err != nil {
		h.logger.Warn("failed to write DNS response", slog.Any("error", err))
	}
}

func rcodeFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrNameDoesntExist), errors.Is(err, router.ErrMalformedAddress):
		return dns.RcodeNameError
	case errors.Is(err, router.ErrUnknownTLD):
		return dns.RcodeRefused
	default:
		return dns.RcodeServerFailure
	}
}

// chunk splits value into TXT character-strings of at most 255 bytes.
func chunk(value string) []string {
	if len(value) <= maxTXTChunk {
		return []string{value}
	}
	out := make([]string, 0, len(value)/maxTXTChunk+1)
	for len(value) > maxTXTChunk {
		out = append(out, value[:maxTXTChunk])
		value = value[maxTXTChunk:]
	}
	if value != "" {
		out = append(out, value)
	}
	return out
}

// Server runs the handler on UDP and TCP.
type Server struct {
	handler *Handler
	logger  *slog.Logger
}

func NewServer(handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{handler: handler, logger: logger.With("component", "dns")}
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	udp := &dns.Server{Addr: addr, Net: "udp", Handler: s.handler}
	tcp := &dns.Server{Addr: addr, Net: "tcp", Handler: s.handler}
	errCh := make(chan error, 2)
	for _, srv := range []*dns.Server{udp, tcp} {
		srv := srv
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("dns %s: %w", srv.Net, err)
			}
		}()
	}
	s.logger.Info("dns gateway listening", slog.String("address", addr))

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = udp.ShutdownContext(shutdownCtx)
	_ = tcp.ShutdownContext(shutdownCtx)
	return runErr
}
