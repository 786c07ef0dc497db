package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/ggicci/httpin"
	"github.com/ggicci/httpin/integration"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KonishchevDmitry/opds/internal/util"
	"github.com/KonishchevDmitry/opds/pkg/opds"
	"github.com/KonishchevDmitry/opds/pkg/url"
)

func init() {
	integration.UseGorillaMux("path", mux.Vars)
}

type feedParams struct {
	URL string `in:"query=url;required"`
}

// Server exposes the parser over HTTP: GET /feed?url=... returns the catalog as JSON.
type Server struct {
	router  *mux.Router
	parser  *opds.Parser
	metrics *opds.Metrics
}

func New(opts ...opds.Option) *Server {
	metrics := opds.NewMetrics()

	s := &Server{
		router:  mux.NewRouter(),
		parser:  opds.New(append(opts, opds.WithMetrics(metrics))...),
		metrics: metrics,
	}
	s.register("/feed", s.getFeed).Methods(http.MethodGet)
	s.register("/", func(ctx context.Context, writer http.ResponseWriter, request *http.Request) {
		http.NotFound(writer, request)
	})

	return s
}

var _ http.Handler = &Server{}

func (s *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.router.ServeHTTP(writer, request)
}

func (s *Server) Serve(ctx context.Context, listenAddr string, metricsAddr string) error {
	var waitGroup sync.WaitGroup
	defer waitGroup.Wait()

	if err := prometheus.DefaultRegisterer.Register(s.metrics); err != nil {
		return err
	}
	defer prometheus.DefaultRegisterer.Unregister(s.metrics)

	//nolint:gosec
	feedsServer := http.Server{
		Addr:     listenAddr,
		Handler:  s.router,
		ErrorLog: log.New(newHTTPLogger(logging.L(ctx)), "Feeds HTTP server: ", 0),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	defer func() {
		if err := feedsServer.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logging.L(ctx).Errorf("Failed to shutdown feeds HTTP server: %s.", err)
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog: newPrometheusLogger(logging.L(ctx)),
	}))

	//nolint:gosec
	metricsServer := http.Server{
		Addr:     metricsAddr,
		Handler:  metricsMux,
		ErrorLog: log.New(newHTTPLogger(logging.L(ctx)), "Metrics HTTP server: ", 0),
	}
	defer func() {
		if err := metricsServer.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logging.L(ctx).Errorf("Failed to shutdown metrics HTTP server: %s.", err)
		}
	}()

	logging.L(ctx).Infof("Listening on %s (feeds) and %s (metrics)...", listenAddr, metricsAddr)

	feedsSocket, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	closeFeedsSocket := true
	defer func() {
		if closeFeedsSocket {
			if err := feedsSocket.Close(); err != nil {
				logging.L(ctx).Errorf("Failed to close a socket: %s.", err)
			}
		}
	}()

	metricsSocket, err := net.Listen("tcp", metricsAddr)
	if err != nil {
		return err
	}
	closeMetricsSocket := true
	defer func() {
		if closeMetricsSocket {
			if err := metricsSocket.Close(); err != nil {
				logging.L(ctx).Errorf("Failed to close a socket: %s.", err)
			}
		}
	}()

	serverCrashed := make(chan error, 2)

	closeFeedsSocket = false
	waitGroup.Go(func() {
		if err := feedsServer.Serve(feedsSocket); !errors.Is(err, http.ErrServerClosed) {
			serverCrashed <- fmt.Errorf("feeds HTTP server has crashed: %w", err)
		}
	})

	closeMetricsSocket = false
	waitGroup.Go(func() {
		if err := metricsServer.Serve(metricsSocket); !errors.Is(err, http.ErrServerClosed) {
			serverCrashed <- fmt.Errorf("metrics HTTP server has crashed: %w", err)
		}
	})

	select {
	case err := <-serverCrashed:
		return err
	case <-ctx.Done():
		logging.L(ctx).Infof("Shutting down...")
		return nil
	}
}

func (s *Server) getFeed(ctx context.Context, writer http.ResponseWriter, request *http.Request) {
	params, err := httpin.Decode[feedParams](request)
	if err != nil {
		logging.L(ctx).Warnf("Invalid feed parameters: %s.", err)
		http.Error(writer, "Invalid parameters", http.StatusBadRequest)
		return
	}

	catalogURL, err := url.ParseAbsolute(params.URL)
	if err != nil {
		logging.L(ctx).Warnf("Invalid feed URL: %s.", err)
		http.Error(writer, "Invalid catalog URL", http.StatusBadRequest)
		return
	}

	result, err := s.parser.Parse(ctx, catalogURL).Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logging.L(ctx).Debugf("The client has gone away while parsing %s.", catalogURL)
			return
		}

		status := errorStatus(err)
		logging.L(ctx).Warnf("Failed to parse %s: %s.", catalogURL, err)
		http.Error(writer, err.Error(), status)
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		logging.L(ctx).Errorf("Failed to serialize %s feed: %s.", catalogURL, err)
		http.Error(writer, "Internal server error", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	if _, err := writer.Write(data); err != nil {
		logging.L(ctx).Debugf("Failed to send the response: %s.", err)
	}
}

func errorStatus(err error) int {
	switch opds.KindOf(err) {
	case opds.DocumentNotFound:
		return http.StatusNotFound
	case opds.DocumentNotValid:
		return http.StatusUnprocessableEntity
	default:
		if util.IsTemporaryError(err) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
}

func (s *Server) register(
	path string, handler func(ctx context.Context, writer http.ResponseWriter, request *http.Request),
) *mux.Route {
	return s.router.HandleFunc(path, func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		logging.L(ctx).Debugf("%s %s...", request.Method, request.RequestURI)
		handler(ctx, writer, request)
		logging.L(ctx).Debugf("%s %s finished.", request.Method, request.RequestURI)
	})
}
